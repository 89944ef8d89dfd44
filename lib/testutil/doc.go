// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for slscore packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls. Tests that
// wait on the file watcher use them instead of sleeping.
//
// [ConfigFile] and [ReplaceFile] write configuration documents the way
// editors do: the first in place, the second through a temporary file
// and rename. [LogBuffer] captures structured log output from code
// running on several goroutines.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package imports nothing else from slscore.
package testutil
