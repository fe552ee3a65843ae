// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"path/filepath"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/openveil/veil/acm"
	"github.com/openveil/veil/api"
	"github.com/openveil/veil/config"
	"github.com/openveil/veil/eventdb"
	"github.com/openveil/veil/hom/localhom"
	"github.com/openveil/veil/log"
	"github.com/openveil/veil/lvldb"
	"github.com/openveil/veil/metrics"
	"github.com/openveil/veil/node"
	"github.com/openveil/veil/veil"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "veil",
		Usage:     "Confidential ledger node",
		Copyright: "2026 The OpenVeil developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			enableAPILogsFlag,
			pprofFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "run an in-memory node for test & dev; nothing survives a restart",
				Flags: []cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					apiEventsLimitFlag,
					enableAPILogsFlag,
					pprofFlag,
					verbosityFlag,
					jsonLogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
				Action: soloAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	cfg := loadConfig(ctx)
	dataDir := makeDataDir(cfg)

	mainDB := openMainDB(dataDir)
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	eventDB := openEventDB(dataDir)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	keyFile := cfg.KeyFile
	if keyFile == "" {
		keyFile = filepath.Join(dataDir, "node.key")
	}
	nodeKey, err := loadNodeKey(keyFile)
	if err != nil {
		fatalf("load node key: %v", err)
	}
	provider, err := localhom.New(mainDB, acm.New(mainDB), nodeKey)
	if err != nil {
		fatalf("init crypto provider: %v", err)
	}

	return runNode(cfg, node.New(mainDB, provider, eventDB), dataDir)
}

func soloAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	cfg := loadConfig(ctx)

	mainDB, err := lvldb.NewMem()
	if err != nil {
		fatalf("open in-memory database: %v", err)
	}
	defer mainDB.Close()

	eventDB, err := eventdb.NewMem()
	if err != nil {
		fatalf("open in-memory event database: %v", err)
	}
	defer eventDB.Close()

	provider, err := localhom.NewRandom(mainDB, acm.New(mainDB))
	if err != nil {
		fatalf("init crypto provider: %v", err)
	}

	return runNode(cfg, node.New(mainDB, provider, eventDB), "memory")
}

func runNode(cfg *config.Config, engine *node.Node, dataDir string) error {
	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
		url, closeFunc := startMetricsServer(cfg.Metrics.Addr)
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		logger.Info("metrics service started", "url", url)
	}

	handler := api.New(engine, api.Options{
		AllowedOrigins:  cfg.API.AllowedOrigins,
		EventsLimit:     cfg.API.EventsLimit,
		PprofOn:         cfg.API.PprofOn,
		EnableReqLogger: cfg.API.EnableReqLogger,
		EnableMetrics:   cfg.Metrics.Enabled,
	})
	apiURL, closeAPI := startAPIServer(cfg.API.Addr, handler)
	defer func() { logger.Info("stopping API server..."); closeAPI() }()

	printStartupMessage(apiURL, dataDir)

	sig := <-handleExitSignal()
	logger.Info("exit signal received", "signal", sig)
	return nil
}

func printStartupMessage(apiURL, dataDir string) {
	fmt.Printf(`Starting veil %v
    Claim amount [ %v ]
    API portal   [ %v ]
    Data dir     [ %v ]
`,
		fullVersion(),
		veil.ClaimAmount,
		apiURL,
		dataDir)
}
