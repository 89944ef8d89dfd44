// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// ConfigFile writes document as config.yaml in a fresh temporary
// directory and returns its path.
func ConfigFile(t *testing.T, document string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

// ReplaceFile replaces path with data by writing a sibling temporary
// file and renaming it over path.
func ReplaceFile(t *testing.T, path string, data []byte) {
	t.Helper()
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", temporary, err)
	}
	if err := os.Rename(temporary, path); err != nil {
		t.Fatalf("renaming %s: %v", temporary, err)
	}
}

// LogBuffer is a goroutine-safe sink for log output.
type LogBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

// NewLogBuffer returns a buffer and a debug-level text logger writing
// to it.
func NewLogBuffer() (*LogBuffer, *slog.Logger) {
	logs := &LogBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logs, logger
}

// Write implements io.Writer.
func (logs *LogBuffer) Write(data []byte) (int, error) {
	logs.mu.Lock()
	defer logs.mu.Unlock()
	return logs.buffer.Write(data)
}

// String returns everything logged so far.
func (logs *LogBuffer) String() string {
	logs.mu.Lock()
	defer logs.mu.Unlock()
	return logs.buffer.String()
}

// Count returns the number of logged lines containing substring.
func (logs *LogBuffer) Count(substring string) int {
	count := 0
	for line := range strings.SplitSeq(logs.String(), "\n") {
		if strings.Contains(line, substring) {
			count++
		}
	}
	return count
}
