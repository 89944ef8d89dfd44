// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/slscore/slscore/cmd/slscore/cli"
	"github.com/slscore/slscore/lib/settings"
)

func (a *app) initCommand() *cli.Command {
	return &cli.Command{
		Name:    "init",
		Summary: "Write the default configuration document if none exists",
		Flags:   func() *pflag.FlagSet { return a.flagSet("init") },
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			created, err := settings.EnsureFile(a.configPath)
			if err != nil {
				return cli.Internal("%w", err)
			}
			if created {
				fmt.Fprintf(a.stdout, "created %s\n", a.configPath)
			} else {
				fmt.Fprintf(a.stdout, "%s already exists\n", a.configPath)
			}
			return nil
		},
	}
}

type checkResult struct {
	AppID   uint32 `json:"app_id"`
	Exclude bool   `json:"exclude"`
	Rule    string `json:"rule"`
	Listed  bool   `json:"listed"`
	Unlock  bool   `json:"dlc_unlocked"`
}

func (a *app) checkCommand() *cli.Command {
	var outputJSON bool
	return &cli.Command{
		Name:    "check",
		Summary: "Show the exclusion decision for app ids",
		Description: `Evaluate each app id against the current configuration and print
whether it is excluded, and which rule decided: reserved, forced,
additional, whitelist or blacklist.`,
		Usage: "slscore check [flags] <appid>...",
		Examples: []cli.Example{
			{Description: "Check two apps", Command: "slscore check 440 570"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("check")
			flagSet.BoolVar(&outputJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(args []string) error {
			ids, err := parseAppIDs(args)
			if err != nil {
				return err
			}
			instance, err := a.open()
			if err != nil {
				return err
			}
			defer instance.Close()

			results := make([]checkResult, 0, len(ids))
			for _, id := range ids {
				decision := instance.Decide(id)
				results = append(results, checkResult{
					AppID:   id,
					Exclude: decision.Exclude,
					Rule:    string(decision.Rule),
					Listed:  decision.Listed,
					Unlock:  instance.DLC().ShouldUnlockDlc(id),
				})
			}
			if outputJSON {
				return writeJSON(a.stdout, results)
			}

			table := newTable(a.stdout)
			fmt.Fprintln(table, "APP\tDECISION\tRULE\tLISTED")
			for _, result := range results {
				decision := "include"
				if result.Exclude {
					decision = "exclude"
				}
				fmt.Fprintf(table, "%d\t%s\t%s\t%t\n", result.AppID, decision, result.Rule, result.Listed)
			}
			return table.Flush()
		},
	}
}

func (a *app) ownerCommand() *cli.Command {
	return &cli.Command{
		Name:    "owner",
		Summary: "Show the DenuvoGames owner of app ids",
		Usage:   "slscore owner [flags] <appid>...",
		Flags:   func() *pflag.FlagSet { return a.flagSet("owner") },
		Run: func(args []string) error {
			ids, err := parseAppIDs(args)
			if err != nil {
				return err
			}
			instance, err := a.open()
			if err != nil {
				return err
			}
			defer instance.Close()

			missing := 0
			table := newTable(a.stdout)
			fmt.Fprintln(table, "APP\tOWNER")
			for _, id := range ids {
				owner, ok := instance.Policy().OwnerOf(id)
				if !ok {
					missing++
					fmt.Fprintf(table, "%d\t-\n", id)
					continue
				}
				fmt.Fprintf(table, "%d\t%d\n", id, owner)
			}
			if err := table.Flush(); err != nil {
				return err
			}
			if missing == len(ids) {
				return &cli.ExitError{Code: 3}
			}
			return nil
		},
	}
}
