// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package dlc

import (
	"errors"
	"fmt"

	"github.com/slscore/slscore/lib/policy"
	"github.com/slscore/slscore/lib/settings"
)

// ErrIndexOutOfRange is returned by [Resolver.DlcByIndex] for an index
// outside [0, DlcCount).
var ErrIndexOutOfRange = errors.New("no such DLC index")

// Record is one enumerated DLC.
type Record struct {
	ID        uint32
	Available bool
	Name      string
}

// CopyName copies the name into dst without writing past its end.
// Returns the number of bytes copied and the length dst would need to
// hold the whole name; copied < required means the name was truncated.
func (record Record) CopyName(dst []byte) (copied, required int) {
	return copy(dst, record.Name), len(record.Name)
}

// Resolver answers DLC queries against an evaluator's current
// snapshot.
type Resolver struct {
	evaluator *policy.Evaluator
}

// New creates a resolver.
func New(evaluator *policy.Evaluator) *Resolver {
	return &Resolver{evaluator: evaluator}
}

// ShouldUnlockDlc reports whether appID (a DLC id) is unlocked.
func (resolver *Resolver) ShouldUnlockDlc(appID uint32) bool {
	return resolver.unlocked(resolver.evaluator.Settings(), appID)
}

func (resolver *Resolver) unlocked(snapshot *settings.Settings, appID uint32) bool {
	if resolver.evaluator.IsForced(appID) {
		return true
	}
	if parent, ok := snapshot.DlcData.ParentOf(appID); ok {
		return !resolver.evaluator.DecideIn(snapshot, parent).Exclude
	}
	return !resolver.evaluator.DecideIn(snapshot, appID).Exclude
}

// IsSubscribed reports whether appID is owned, given the real answer.
func (resolver *Resolver) IsSubscribed(appID uint32, real bool) bool {
	return real || resolver.overrideUnowned(appID)
}

// IsInstalled reports whether appID is installed, given the real
// answer.
func (resolver *Resolver) IsInstalled(appID uint32, real bool) bool {
	return real || resolver.overrideUnowned(appID)
}

// UserSubscribedInTicket reports whether the app ticket should list
// appID, given the real answer.
func (resolver *Resolver) UserSubscribedInTicket(appID uint32, real bool) bool {
	return real || resolver.overrideUnowned(appID)
}

// IsDlcEnabled reports whether an owned DLC is enabled. Unlike the
// ownership queries it does not require PlayNotOwnedGames: it only
// re-enables content the account already has access to.
func (resolver *Resolver) IsDlcEnabled(appID uint32, real bool) bool {
	return real || resolver.ShouldUnlockDlc(appID)
}

func (resolver *Resolver) overrideUnowned(appID uint32) bool {
	snapshot := resolver.evaluator.Settings()
	return snapshot.PlayNotOwnedGames && resolver.unlocked(snapshot, appID)
}

// DlcCount returns how many DLCs DlcData lists for appID. Zero when
// the app has no entry.
func (resolver *Resolver) DlcCount(appID uint32) int {
	set, _ := resolver.evaluator.Settings().DlcData.Lookup(appID)
	return set.Len()
}

// DlcByIndex returns the DLC at position index of appID's list.
func (resolver *Resolver) DlcByIndex(appID uint32, index int) (Record, error) {
	snapshot := resolver.evaluator.Settings()
	set, _ := snapshot.DlcData.Lookup(appID)
	if index < 0 || index >= set.Len() {
		return Record{}, fmt.Errorf("app %d, index %d of %d: %w", appID, index, set.Len(), ErrIndexOutOfRange)
	}
	dlc := set.At(index)
	return Record{
		ID:        dlc.ID,
		Available: resolver.unlocked(snapshot, dlc.ID),
		Name:      dlc.Name,
	}, nil
}

// Records returns every DLC listed for appID in enumeration order.
func (resolver *Resolver) Records(appID uint32) []Record {
	snapshot := resolver.evaluator.Settings()
	set, _ := snapshot.DlcData.Lookup(appID)
	records := make([]Record, 0, set.Len())
	for _, dlc := range set.All() {
		records = append(records, Record{
			ID:        dlc.ID,
			Available: resolver.unlocked(snapshot, dlc.ID),
			Name:      dlc.Name,
		})
	}
	return records
}
