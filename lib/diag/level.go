// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LevelNotify sits between INFO and WARN. Events at this level are
// user-facing notices: configuration sections that are missing or
// could not be parsed, first-time ownership overrides.
const LevelNotify = slog.Level(2)

// LevelOff is above every level any package logs at. Setting a
// LevelVar to LevelOff suppresses all output.
const LevelOff = slog.Level(64)

// Verbosity values accepted by the LogLevel configuration key. Lower
// is chattier.
const (
	VerbosityOnce   = 0
	VerbosityDebug  = 1
	VerbosityInfo   = 2
	VerbosityNotify = 3
	VerbosityLong   = 4
	VerbosityWarn   = 5
	VerbosityNone   = 6
)

// LevelFromVerbosity maps a LogLevel setting to the minimum slog level
// that is emitted. Unknown values above VerbosityNone are treated as
// VerbosityNone.
func LevelFromVerbosity(verbosity uint) slog.Level {
	switch {
	case verbosity <= VerbosityDebug:
		return slog.LevelDebug
	case verbosity == VerbosityInfo:
		return slog.LevelInfo
	case verbosity <= VerbosityLong:
		return LevelNotify
	case verbosity == VerbosityWarn:
		return slog.LevelWarn
	default:
		return LevelOff
	}
}

// NewLogger creates the process logger. When stderr is a terminal the
// text handler is used for human-readable output; otherwise records
// are JSON so they can be collected by log shippers. The level is read
// from the LevelVar on every record, so callers can change verbosity
// after a configuration reload.
func NewLogger(level *slog.LevelVar) *slog.Logger {
	options := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelName,
	}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// replaceLevelName prints LevelNotify as "NOTIFY" instead of slog's
// default "INFO+2".
func replaceLevelName(groups []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey || len(groups) != 0 {
		return attr
	}
	level, ok := attr.Value.Any().(slog.Level)
	if ok && level == LevelNotify {
		attr.Value = slog.StringValue("NOTIFY")
	}
	return attr
}
