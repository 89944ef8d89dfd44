// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package dlc answers downloadable-content queries for included apps:
// whether a DLC is unlocked, whether it should be reported as
// subscribed or installed, and the per-app DLC list configured under
// DlcData.
//
// A DLC is unlocked when it was forced, or, when DlcData lists it
// under a parent, when that parent is included by the policy
// evaluator. A DLC that no parent lists is judged on its own id.
//
// Enumeration follows document order, so index i refers to the same
// DLC for as long as a snapshot is current.
package dlc
