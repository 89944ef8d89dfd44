// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package diag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Once emits each distinct event at most one time. An event's identity
// is its message plus its attribute values, so logging
// ("exclusion decided", "app_id", 10, "exclude", true) twice produces
// one record, while the same message for app 20 produces another.
//
// Once is safe for concurrent use. The zero value is not usable; call
// [NewOnce].
type Once struct {
	logger *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewOnce creates a deduplicating emitter writing to logger.
func NewOnce(logger *slog.Logger) *Once {
	return &Once{
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// Log emits the event unless an identical one was already emitted.
// Returns true when the record was passed to the logger. An event the
// logger's level filters out is not remembered, so it is emitted once
// the level allows it.
func (once *Once) Log(ctx context.Context, level slog.Level, message string, args ...any) bool {
	if !once.logger.Enabled(ctx, level) {
		return false
	}
	key := eventKey(message, args)

	once.mu.Lock()
	_, duplicate := once.seen[key]
	if !duplicate {
		once.seen[key] = struct{}{}
	}
	once.mu.Unlock()

	if duplicate {
		return false
	}
	once.logger.Log(ctx, level, message, args...)
	return true
}

// Debug is Log at slog.LevelDebug with a background context.
func (once *Once) Debug(message string, args ...any) bool {
	return once.Log(context.Background(), slog.LevelDebug, message, args...)
}

// Info is Log at slog.LevelInfo with a background context.
func (once *Once) Info(message string, args ...any) bool {
	return once.Log(context.Background(), slog.LevelInfo, message, args...)
}

// Len reports how many distinct events have been emitted.
func (once *Once) Len() int {
	once.mu.Lock()
	defer once.mu.Unlock()
	return len(once.seen)
}

func eventKey(message string, args []any) string {
	var builder strings.Builder
	builder.WriteString(message)
	for _, arg := range args {
		builder.WriteByte(0)
		fmt.Fprint(&builder, arg)
	}
	return builder.String()
}
