// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/slscore/slscore/cmd/slscore/cli"
	"github.com/slscore/slscore/lib/codec"
	"github.com/slscore/slscore/lib/version"
)

func (a *app) dumpCommand() *cli.Command {
	var format string
	return &cli.Command{
		Name:    "dump",
		Summary: "Print the effective configuration",
		Description: `Print the configuration snapshot the engine would use, after
defaults and per-key fallbacks are applied.

Formats: json (default), cbor (deterministic binary, suitable for
comparing two configurations byte for byte), cbor-diag (CBOR in
RFC 8949 diagnostic notation).`,
		Usage: "slscore dump [--format json|cbor|cbor-diag]",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("dump")
			flagSet.StringVar(&format, "format", "json", "output format: json, cbor or cbor-diag")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			switch format {
			case "json", "cbor", "cbor-diag":
			default:
				return cli.Validation("unknown format %q", format)
			}

			instance, err := a.open()
			if err != nil {
				return err
			}
			defer instance.Close()
			snapshot := instance.Settings().Snapshot()

			switch format {
			case "json":
				return writeJSON(a.stdout, snapshot)
			case "cbor":
				data, err := codec.Marshal(snapshot)
				if err != nil {
					return cli.Internal("encoding snapshot: %w", err)
				}
				_, err = a.stdout.Write(data)
				return err
			default:
				data, err := codec.Marshal(snapshot)
				if err != nil {
					return cli.Internal("encoding snapshot: %w", err)
				}
				diagnostic, err := codec.Diagnose(data)
				if err != nil {
					return cli.Internal("rendering snapshot: %w", err)
				}
				_, err = fmt.Fprintln(a.stdout, diagnostic)
				return err
			}
		},
	}
}

func (a *app) versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			fmt.Fprintf(a.stdout, "slscore %s\n", version.Full())
			return nil
		},
	}
}
