// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine wires the configuration store, the policy evaluator,
// the DLC resolver and the ticket cache into one object with a reload
// lifecycle.
//
// [New] performs the first load. [Engine.Reload] rebuilds the settings
// snapshot from the configuration file and publishes it atomically;
// forced apps held by the evaluator survive. [Engine.Start] installs a
// file watcher that reloads whenever the file is rewritten, and
// [Engine.Close] stops it.
//
// The engine also owns the process log level: each reload sets the
// shared slog.LevelVar from the LogLevel key, so verbosity follows the
// file without restarting. Counters for reloads, decisions and ticket
// lookups are registered on the prometheus.Registerer passed in
// [Options].
package engine
