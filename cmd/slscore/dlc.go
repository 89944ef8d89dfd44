// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/slscore/slscore/cmd/slscore/cli"
)

type dlcEntry struct {
	ID        uint32 `json:"id"`
	Available bool   `json:"available"`
	Name      string `json:"name"`
}

func (a *app) dlcCommand() *cli.Command {
	var outputJSON bool
	return &cli.Command{
		Name:    "dlc",
		Summary: "List the DLCs configured for an app",
		Description: `List the DLCs DlcData configures for an app, in document order,
with whether each is unlocked under the current configuration.`,
		Usage: "slscore dlc [flags] <appid>",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("dlc")
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
			instance, err := a.open()
			if err != nil {
				return err
			}
			defer instance.Close()

			resolver := instance.DLC()
			count := resolver.DlcCount(appID)
			entries := make([]dlcEntry, 0, count)
			for index := range count {
				record, err := resolver.DlcByIndex(appID, index)
				if err != nil {
					return cli.Internal("%w", err)
				}
				entries = append(entries, dlcEntry{ID: record.ID, Available: record.Available, Name: record.Name})
			}

			if outputJSON {
				return writeJSON(a.stdout, entries)
			}
			if count == 0 {
				return cli.NotFound("no DLCs configured for %d", appID)
			}
			table := newTable(a.stdout)
			fmt.Fprintln(table, "DLC\tUNLOCKED\tNAME")
			for _, entry := range entries {
				fmt.Fprintf(table, "%d\t%t\t%s\n", entry.ID, entry.Available, entry.Name)
			}
			return table.Flush()
		},
	}
}
