// Copyright (c) 2026 The OpenVeil developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"io"
	"log/slog"
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, _ slog.Record) error {
	return nil
}

func (h *discardHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return false
}

func (h *discardHandler) WithGroup(_ string) slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return &discardHandler{}
}

// NewTextHandlerWithLevel returns a text handler writing to wr, filtered by
// the given adjustable level.
func NewTextHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return newLevelHandler(level, slog.NewTextHandler(wr, nil))
}

// NewJSONHandlerWithLevel returns a JSON handler writing to wr, filtered
// by the given adjustable level.
func NewJSONHandlerWithLevel(wr io.Writer, level *slog.LevelVar) slog.Handler {
	return newLevelHandler(level, slog.NewJSONHandler(wr, nil))
}

// FromLegacyLevel converts old numeric verbosity levels to levels defined
// by slog. 0=crit .. 5=trace, values above 5 clamp to trace.
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case 0:
		return LevelCrit
	case 1:
		return LevelError
	case 2:
		return LevelWarn
	case 3:
		return LevelInfo
	case 4:
		return LevelDebug
	default:
		return LevelTrace
	}
}
