// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the slscore binary: a tree
// of [Command] values with per-command pflag sets, generated help, and
// typo suggestions for unknown commands and flags.
//
// Command handlers return errors. A [ToolError] carries a category so
// main can choose an exit status, and an [ExitError] requests a
// specific status without printing anything further.
package cli
