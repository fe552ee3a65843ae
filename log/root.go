// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var root atomic.Value

func init() {
	level := &slog.LevelVar{}
	level.Set(LevelInfo)
	root.Store(&logger{slog.New(newLevelHandler(level, slog.NewTextHandler(os.Stderr, nil)))})
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(l.(*logger))
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(*logger)
}

// WithContext returns a logger bound to the given context key/value pairs.
// Packages typically call it once at init time:
//
//	var logger = log.WithContext("pkg", "vault")
func WithContext(ctx ...any) Logger {
	return Root().With(ctx...)
}

// Trace is a convenient alias for Root().Trace
func Trace(msg string, ctx ...any) {
	Root().Trace(msg, ctx...)
}

// Debug is a convenient alias for Root().Debug
func Debug(msg string, ctx ...any) {
	Root().Debug(msg, ctx...)
}

// Info is a convenient alias for Root().Info
func Info(msg string, ctx ...any) {
	Root().Info(msg, ctx...)
}

// Warn is a convenient alias for Root().Warn
func Warn(msg string, ctx ...any) {
	Root().Warn(msg, ctx...)
}

// Error is a convenient alias for Root().Error
func Error(msg string, ctx ...any) {
	Root().Error(msg, ctx...)
}

// Crit is a convenient alias for Root().Crit
func Crit(msg string, ctx ...any) {
	Root().Crit(msg, ctx...)
}

// levelHandler wraps an inner handler with a dynamic minimum level.
type levelHandler struct {
	level *slog.LevelVar
	inner slog.Handler
}

func newLevelHandler(level *slog.LevelVar, inner slog.Handler) slog.Handler {
	return &levelHandler{level, inner}
}

func (h *levelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{h.level, h.inner.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{h.level, h.inner.WithGroup(name)}
}
