// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings loads the slscore configuration document into an
// immutable [Settings] snapshot and publishes snapshots through a
// [Store].
//
// The document is YAML. Every key has a documented default (see
// [Default] and the commented file returned by [DefaultDocument]), and
// nothing in the document is required: a missing key takes its
// default, a key that fails to decode takes its default, and a
// document that cannot be read or parsed yields the default snapshot.
// None of these are errors to the caller. Instead [Parse] and
// [LoadFile] return a [Report] with one [SectionResult] per key, which
// the caller logs via [Report.Log].
//
// Collections follow one of two policies, visible as the result's
// [Kind]:
//
//   - id lists (AppIds, AdditionalApps, FakeOffline) skip a bad entry
//     and keep the rest.
//   - maps (FakeAppIds) and nested maps (DlcData, DenuvoGames) stop
//     at the first bad entry and keep the entries completed before it.
//
// Snapshots are rebuilt from scratch on every load; nothing from a
// previous snapshot carries over. A [Store] swaps snapshots atomically
// so readers never see a half-built one.
//
// [Dir], [Path] and [EnsureFile] locate the document under
// $XDG_CONFIG_HOME (or ~/.config) and write the default document on
// first start.
package settings
