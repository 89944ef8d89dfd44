// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the directory under the user's configuration root that
// holds the document and the ticket cache.
const DirName = "slscore"

// FileName is the document's file name inside [Dir].
const FileName = "config.yaml"

//go:embed default_config.yaml
var defaultDocument []byte

// DefaultDocument returns the commented document written on first
// start. Parsing it yields [Default].
func DefaultDocument() []byte {
	return append([]byte(nil), defaultDocument...)
}

// Dir returns $XDG_CONFIG_HOME/slscore, or $HOME/.config/slscore when
// XDG_CONFIG_HOME is unset.
func Dir() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, DirName)
	}
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		homeDirectory = os.Getenv("HOME")
	}
	return filepath.Join(homeDirectory, ".config", DirName)
}

// Path returns the document path inside [Dir].
func Path() string {
	return filepath.Join(Dir(), FileName)
}

// EnsureFile writes the default document to path unless a file is
// already there, creating the parent directory if needed. Returns true
// when a new file was written.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := file.Write(defaultDocument); err != nil {
		file.Close()
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return false, fmt.Errorf("closing %s: %w", path, err)
	}
	return true, nil
}
