// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package filewatch calls back when a single file is rewritten.
//
// [Watch] installs an inotify watch on the file's parent directory for
// IN_CLOSE_WRITE and IN_MOVED_TO, so both in-place writes and atomic
// replace-by-rename are seen. Bursts of events are coalesced: after the
// first matching event the watcher waits [Debounce], drains whatever
// else queued up, and invokes the callback once.
//
// The file does not need to exist when the watch starts, but its
// parent directory does. Linux only.
package filewatch
