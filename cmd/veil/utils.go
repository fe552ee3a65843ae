// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/openveil/veil/config"
	"github.com/openveil/veil/eventdb"
	"github.com/openveil/veil/log"
	"github.com/openveil/veil/lvldb"
	"github.com/openveil/veil/metrics"
)

func fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func fatalf(format string, args ...interface{}) {
	fatal(fmt.Sprintf(format, args...))
}

func initLogger(ctx *cli.Context) {
	level := new(slog.LevelVar)
	level.Set(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.NewJSONHandlerWithLevel(os.Stderr, level)
	} else {
		handler = log.NewTextHandlerWithLevel(os.Stderr, level)
	}
	log.SetDefault(log.NewLogger(handler))
}

// loadConfig merges the optional config file with command line flags;
// flags win.
func loadConfig(ctx *cli.Context) *config.Config {
	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fatal(err)
		}
		cfg = loaded
	}
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(apiAddrFlag.Name) {
		cfg.API.Addr = ctx.String(apiAddrFlag.Name)
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.API.AllowedOrigins = ctx.String(apiCorsFlag.Name)
	}
	if ctx.IsSet(apiEventsLimitFlag.Name) {
		cfg.API.EventsLimit = ctx.Uint64(apiEventsLimitFlag.Name)
	}
	if ctx.Bool(enableAPILogsFlag.Name) {
		cfg.API.EnableReqLogger = true
	}
	if ctx.Bool(pprofFlag.Name) {
		cfg.API.PprofOn = true
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		cfg.Metrics.Enabled = true
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.Metrics.Addr = ctx.String(metricsAddrFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	return cfg
}

func makeDataDir(cfg *config.Config) string {
	if cfg.DataDir == "" {
		fatalf("unable to infer data dir, use -%s to specify one", dataDirFlag.Name)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		fatalf("create data dir at '%v': %v", cfg.DataDir, err)
	}
	return cfg.DataDir
}

func openMainDB(dataDir string) *lvldb.LevelDB {
	db, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
	if err != nil {
		fatalf("open main database: %v", err)
	}
	return db
}

func openEventDB(dataDir string) *eventdb.EventDB {
	db, err := eventdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		fatalf("open event database: %v", err)
	}
	return db
}

// loadNodeKey reads the 32-byte hex encoded node key, generating and
// persisting a fresh one when the file does not exist yet.
func loadNodeKey(keyFile string) ([]byte, error) {
	if data, err := os.ReadFile(keyFile); err == nil {
		key, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, err
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyFile, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func startAPIServer(addr string, handler http.Handler) (string, func()) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatalf("listen API addr [%v]: %v", addr, err)
	}
	srv := &http.Server{Handler: handler}
	done := make(chan struct{})
	go func() {
		srv.Serve(listener)
		close(done)
	}()
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		<-done
	}
}

func startMetricsServer(addr string) (string, func()) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatalf("listen metrics addr [%v]: %v", addr, err)
	}
	srv := &http.Server{Handler: metrics.HTTPHandler()}
	done := make(chan struct{})
	go func() {
		srv.Serve(listener)
		close(done)
	}()
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		<-done
	}
}

func handleExitSignal() chan os.Signal {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
	return exitSignalCh
}
