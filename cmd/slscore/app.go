// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/slscore/slscore/cmd/slscore/cli"
	"github.com/slscore/slscore/lib/diag"
	"github.com/slscore/slscore/lib/engine"
	"github.com/slscore/slscore/lib/settings"
)

// app holds state shared by every command: output streams, the global
// flags, and the logger.
type app struct {
	ctx    context.Context
	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
	level  *slog.LevelVar

	configPath string
	cacheDir   string
	verbose    bool
}

func newApp(ctx context.Context, stdout, stderr io.Writer) *app {
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	return &app{
		ctx:    ctx,
		stdout: stdout,
		stderr: stderr,
		logger: diag.Discard(),
		level:  level,
	}
}

func (a *app) root() *cli.Command {
	return &cli.Command{
		Name:   "slscore",
		Output: a.stderr,
		Description: `slscore inspects and runs the ownership-decision engine.

It reads the configuration document and the ticket cache and reports
the decisions the engine makes for given app ids.`,
		Subcommands: []*cli.Command{
			a.initCommand(),
			a.checkCommand(),
			a.ownerCommand(),
			a.dlcCommand(),
			a.ticketCommand(),
			a.dumpCommand(),
			a.watchCommand(),
			a.versionCommand(),
		},
	}
}

// flagSet returns a flag set for command carrying the global flags.
func (a *app) flagSet(command string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(command, pflag.ContinueOnError)
	flagSet.StringVar(&a.configPath, "config", settings.Path(), "configuration document")
	flagSet.StringVar(&a.cacheDir, "cache-dir", "", "ticket cache directory (default: cache/ next to --config)")
	flagSet.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	return flagSet
}

func (a *app) resolvedCacheDir() string {
	if a.cacheDir != "" {
		return a.cacheDir
	}
	return filepath.Join(filepath.Dir(a.configPath), "cache")
}

// open builds an engine for a one-shot command. Log output stays at
// WARN unless --verbose, regardless of LogLevel in the document.
func (a *app) open() (*engine.Engine, error) {
	if a.verbose {
		a.level.Set(slog.LevelDebug)
	}
	instance, err := engine.New(engine.Options{
		ConfigPath: a.configPath,
		CacheDir:   a.resolvedCacheDir(),
		Logger:     a.logger,
	})
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return instance, nil
}

// openWatched builds an engine whose log level follows the document.
func (a *app) openWatched(registerer prometheus.Registerer, onReload func(*settings.Report)) (*engine.Engine, error) {
	options := engine.Options{
		ConfigPath: a.configPath,
		CacheDir:   a.resolvedCacheDir(),
		Logger:     a.logger,
		Registerer: registerer,
		OnReload:   onReload,
	}
	if !a.verbose {
		options.Level = a.level
	} else {
		a.level.Set(slog.LevelDebug)
	}
	instance, err := engine.New(options)
	if err != nil {
		return nil, cli.Internal("%w", err)
	}
	return instance, nil
}

// parseAppIDs converts positional arguments to app ids.
func parseAppIDs(args []string) ([]uint32, error) {
	if len(args) == 0 {
		return nil, cli.Validation("at least one app id is required")
	}
	ids := make([]uint32, 0, len(args))
	for _, arg := range args {
		id, err := parseAppID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseAppID(arg string) (uint32, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, cli.Validation("invalid app id %q: must be an unsigned 32-bit integer", arg)
	}
	return uint32(id), nil
}
