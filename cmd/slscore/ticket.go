// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/slscore/slscore/cmd/slscore/cli"
	"github.com/slscore/slscore/lib/ticket"
)

func (a *app) ticketCommand() *cli.Command {
	return &cli.Command{
		Name:    "ticket",
		Summary: "Inspect and manage the ticket cache",
		Subcommands: []*cli.Command{
			a.ticketListCommand(),
			a.ticketShowCommand(),
			a.ticketImportCommand(),
			a.ticketExportCommand(),
			a.ticketRestoreCommand(),
		},
	}
}

func (a *app) ticketListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Summary: "List app ids with a cached ticket",
		Flags:   func() *pflag.FlagSet { return a.flagSet("ticket list") },
		Run: func(args []string) error {
			cache := ticket.New(a.resolvedCacheDir(), a.logger, nil)
			ids, err := cache.List()
			if err != nil {
				return cli.Internal("%w", err)
			}
			for _, id := range ids {
				fmt.Fprintln(a.stdout, id)
			}
			return nil
		},
	}
}

type ticketSummary struct {
	AppID    uint32         `json:"app_id"`
	Length   int            `json:"length"`
	Offsets  ticket.Offsets `json:"offsets"`
	Embedded *uint32        `json:"embedded_app_id,omitempty"`
	Owner    *uint32        `json:"owner_id,omitempty"`
	Digest   ticket.Digest  `json:"digest"`
}

func summarize(appID uint32, record *ticket.Record) ticketSummary {
	summary := ticketSummary{
		AppID:   appID,
		Length:  record.Len(),
		Offsets: record.Offsets,
		Digest:  ticket.Sum(record.Bytes()),
	}
	if embedded, err := record.AppID(); err == nil {
		summary.Embedded = &embedded
	}
	if owner, err := record.OwnerID(); err == nil {
		summary.Owner = &owner
	}
	return summary
}

func (a *app) ticketShowCommand() *cli.Command {
	var outputJSON bool
	return &cli.Command{
		Name:    "show",
		Summary: "Show the cached ticket for an app",
		Usage:   "slscore ticket show [flags] <appid>",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("ticket show")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("exactly one app id is required")
			}
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}
			cache := ticket.New(a.resolvedCacheDir(), a.logger, nil)
			record, ok, err := cache.Load(appID)
			if err != nil {
				return cli.Internal("%w", err)
			}
			if !ok {
				return cli.NotFound("no ticket cached for %d", appID)
			}

			summary := summarize(appID, &record)
			if outputJSON {
				return writeJSON(a.stdout, summary)
			}
			table := newTable(a.stdout)
			fmt.Fprintf(table, "app\t%d\n", summary.AppID)
			fmt.Fprintf(table, "length\t%d\n", summary.Length)
			fmt.Fprintf(table, "offsets\t%v\n", summary.Offsets)
			fmt.Fprintf(table, "embedded app\t%s\n", optional(summary.Embedded))
			fmt.Fprintf(table, "owner\t%s\n", optional(summary.Owner))
			fmt.Fprintf(table, "digest\t%s\n", summary.Digest)
			return table.Flush()
		},
	}
}

func optional(value *uint32) string {
	if value == nil {
		return "(offset out of range)"
	}
	return fmt.Sprint(*value)
}

func (a *app) ticketImportCommand() *cli.Command {
	var appOffset, ownerOffset uint32
	return &cli.Command{
		Name:    "import",
		Summary: "Cache a raw ticket from a file",
		Description: `Store the raw ticket bytes in <file> as the cached ticket for <appid>,
replacing any earlier one. --app-offset and --owner-offset give the
byte positions of the embedded app id and owner id.`,
		Usage: "slscore ticket import [flags] <appid> <file>",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("ticket import")
			flagSet.Uint32Var(&appOffset, "app-offset", 0, "byte offset of the embedded app id")
			flagSet.Uint32Var(&ownerOffset, "owner-offset", 0, "byte offset of the embedded owner id")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return cli.Validation("an app id and a file are required")
			}
			appID, err := parseAppID(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return cli.NotFound("%w", err)
			}

			var offsets ticket.Offsets
			offsets[ticket.AppIDSlot] = appOffset
			offsets[ticket.OwnerIDSlot] = ownerOffset
			cache := ticket.New(a.resolvedCacheDir(), a.logger, nil)
			if err := cache.Save(appID, data, offsets); err != nil {
				return cli.Validation("%w", err)
			}
			fmt.Fprintf(a.stdout, "cached %d bytes for %d\n", len(data), appID)
			return nil
		},
	}
}

func (a *app) ticketExportCommand() *cli.Command {
	var output string
	return &cli.Command{
		Name:    "export",
		Summary: "Write the ticket cache as a zstd-compressed tar archive",
		Usage:   "slscore ticket export [flags] --output <path|->",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("ticket export")
			flagSet.StringVarP(&output, "output", "o", "", "archive path, or - for stdout")
			return flagSet
		},
		Run: func(args []string) error {
			if output == "" {
				return cli.Validation("--output is required")
			}
			cache := ticket.New(a.resolvedCacheDir(), a.logger, nil)
			if output == "-" {
				if _, err := cache.Export(a.stdout); err != nil {
					return cli.Internal("%w", err)
				}
				return nil
			}

			count, err := exportToFile(cache, output)
			if err != nil {
				return cli.Internal("%w", err)
			}
			fmt.Fprintf(a.stdout, "exported %d tickets to %s\n", count, output)
			return nil
		},
	}
}

// exportToFile writes the archive to path. A failed close is an
// export failure: the archive may be incomplete on disk.
func exportToFile(cache *ticket.Cache, path string) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	count, err := cache.Export(file)
	if err != nil {
		file.Close()
		return count, err
	}
	if err := file.Close(); err != nil {
		return count, fmt.Errorf("closing %s: %w", path, err)
	}
	return count, nil
}

func (a *app) ticketRestoreCommand() *cli.Command {
	return &cli.Command{
		Name:    "restore",
		Summary: "Load tickets from an archive written by export",
		Usage:   "slscore ticket restore [flags] <archive>",
		Flags:   func() *pflag.FlagSet { return a.flagSet("ticket restore") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Validation("exactly one archive path is required")
			}
			file, err := os.Open(args[0])
			if err != nil {
				return cli.NotFound("%w", err)
			}
			defer file.Close()

			cache := ticket.New(a.resolvedCacheDir(), a.logger, nil)
			ids, err := cache.Import(file)
			if err != nil {
				if errors.Is(err, ticket.ErrBadArchive) {
					return cli.Validation("%s: %w", args[0], err)
				}
				return cli.Internal("%w", err)
			}
			fmt.Fprintf(a.stdout, "restored %d tickets\n", len(ids))
			return nil
		},
	}
}
