// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package diag provides the diagnostics plumbing shared by every slscore
// package: a logger constructor, the NOTIFY level used for events an
// operator should see even at a quiet verbosity, the mapping from the
// configuration's numeric LogLevel onto slog levels, and [Once], which
// emits a given event at most one time per process.
//
// Decision code never owns deduplication state. A [Once] is created by
// the caller (normally the engine) and handed to the packages that need
// it, so tests can pass a fresh instance or a discarding logger without
// affecting behavior.
//
// This package has no slscore-internal dependencies.
package diag
