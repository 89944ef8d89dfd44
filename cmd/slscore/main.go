// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/slscore/slscore/cmd/slscore/cli"
	"github.com/slscore/slscore/lib/diag"
)

func main() {
	if err := run(); err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var toolError *cli.ToolError
		if errors.As(err, &toolError) {
			os.Exit(toolError.ExitCode())
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := newApp(ctx, os.Stdout, os.Stderr)
	application.logger = diag.NewLogger(application.level)
	return application.root().Execute(os.Args[1:])
}
