// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/slscore/slscore/cmd/slscore/cli"
	"github.com/slscore/slscore/lib/settings"
)

func (a *app) watchCommand() *cli.Command {
	var metricsListen string
	return &cli.Command{
		Name:    "watch",
		Summary: "Run the engine and reload on configuration changes",
		Description: `Load the configuration, then watch it and reload on every change
until interrupted. The log level follows LogLevel in the document
unless --verbose is given.

With --metrics-listen, Prometheus metrics are served at /metrics.`,
		Usage: "slscore watch [--metrics-listen ADDR]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("watch")
			flagSet.StringVar(&metricsListen, "metrics-listen", "", "serve metrics on this address, e.g. 127.0.0.1:9464")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			return a.watch(metricsListen)
		},
	}
}

func (a *app) watch(metricsListen string) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	instance, err := a.openWatched(registry, func(report *settings.Report) {
		a.logger.Info("configuration reloaded", "path", report.Path, "ok", report.OK())
	})
	if err != nil {
		return err
	}
	defer instance.Close()

	if err := instance.Start(); err != nil {
		return cli.Internal("%w", err)
	}

	if metricsListen != "" {
		listener, err := net.Listen("tcp", metricsListen)
		if err != nil {
			return cli.Internal("listening on %s: %w", metricsListen, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}()
		a.logger.Info("serving metrics", "address", listener.Addr().String())
	}

	<-a.ctx.Done()
	a.logger.Info("stopping")
	return nil
}
