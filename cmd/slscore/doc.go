// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// slscore is the operator tool for the ownership-decision engine. It
// loads the same configuration file and ticket cache the engine uses
// and answers questions about them: which apps are excluded and why,
// who owns an app through DenuvoGames, which DLCs an app exposes, and
// what ticket is cached for it.
//
// "slscore watch" runs the engine in the foreground, reloading the
// configuration whenever it changes and optionally serving Prometheus
// metrics.
//
// Every command accepts --config (default
// $XDG_CONFIG_HOME/slscore/config.yaml) and --cache-dir (default
// cache/ next to the configuration file).
package main
