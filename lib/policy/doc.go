// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy decides, per app id, whether slscore treats an app as
// included (ownership overrides apply) or excluded (the real answer
// passes through untouched).
//
// [Evaluator.ShouldExclude] applies three rules in fixed precedence:
//
//  1. ids at or above [ReservedRangeStart] are used internally by the
//     client and are always excluded.
//  2. forced apps are always included. An app is forced when
//     [Evaluator.Force] was called for it during this process, or when
//     the document lists it under AdditionalApps.
//  3. otherwise membership in AppIds decides: in whitelist mode listed
//     apps are included, in blacklist mode listed apps are excluded.
//
// The forced set belongs to the [Evaluator], not to the settings
// snapshot, so it survives configuration reloads. Every other input is
// read from the snapshot current at the time of the call.
//
// [Evaluator.OwnerOf] resolves the account entitled to a Denuvo title
// by scanning DenuvoGames owners in document order; when several owners
// list the same app the first one wins.
package policy
