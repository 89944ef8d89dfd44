// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"sync"

	"github.com/slscore/slscore/lib/diag"
	"github.com/slscore/slscore/lib/settings"
)

// ReservedRangeStart is the first app id the client reserves for
// internal use. Ids at or above it are never included.
const ReservedRangeStart uint32 = 1_000_000_000

// NoOwner is returned by [Evaluator.OwnerOf] when no account is
// entitled to the app.
const NoOwner uint32 = 0

// Rule names the step of the decision that produced a result.
type Rule string

const (
	RuleReserved   Rule = "reserved"
	RuleForced     Rule = "forced"
	RuleAdditional Rule = "additional"
	RuleWhitelist  Rule = "whitelist"
	RuleBlacklist  Rule = "blacklist"
)

// Decision is the full outcome of evaluating one app id.
type Decision struct {
	AppID   uint32
	Exclude bool
	Rule    Rule

	// Listed reports whether the app is in AppIds. Only meaningful
	// for the whitelist and blacklist rules.
	Listed bool
}

// Evaluator evaluates ownership policy against the current settings
// snapshot. Safe for concurrent use.
type Evaluator struct {
	store *settings.Store
	once  *diag.Once

	mu     sync.RWMutex
	forced settings.AppSet
}

// New creates an evaluator reading snapshots from store. Decision
// events go through once so each (app, result) pair is logged a single
// time; pass diag.NewOnce(diag.Discard()) to silence them.
func New(store *settings.Store, once *diag.Once) *Evaluator {
	return &Evaluator{
		store:  store,
		once:   once,
		forced: settings.AppSet{},
	}
}

// Settings returns the snapshot decisions are currently made against.
func (evaluator *Evaluator) Settings() *settings.Settings {
	return evaluator.store.Load()
}

// IsForced reports whether appID was forced during this process.
func (evaluator *Evaluator) IsForced(appID uint32) bool {
	evaluator.mu.RLock()
	defer evaluator.mu.RUnlock()
	return evaluator.forced.Contains(appID)
}

// Force pins appID as included for the rest of the process. Returns
// false when it was already forced.
func (evaluator *Evaluator) Force(appID uint32) bool {
	evaluator.mu.Lock()
	if evaluator.forced.Contains(appID) {
		evaluator.mu.Unlock()
		return false
	}
	evaluator.forced[appID] = struct{}{}
	evaluator.mu.Unlock()

	evaluator.once.Info("force owned", "app_id", appID)
	return true
}

// Forced returns the forced app ids in ascending order.
func (evaluator *Evaluator) Forced() []uint32 {
	evaluator.mu.RLock()
	defer evaluator.mu.RUnlock()
	return evaluator.forced.Sorted()
}

// ShouldExclude reports whether appID is left alone. See the package
// documentation for the rule order.
func (evaluator *Evaluator) ShouldExclude(appID uint32) bool {
	return evaluator.Decide(appID).Exclude
}

// Decide evaluates appID and returns the decision together with the
// rule that produced it.
func (evaluator *Evaluator) Decide(appID uint32) Decision {
	return evaluator.DecideIn(evaluator.store.Load(), appID)
}

// DecideIn evaluates appID against a snapshot the caller already holds,
// so several related decisions see the same configuration.
func (evaluator *Evaluator) DecideIn(snapshot *settings.Settings, appID uint32) Decision {
	decision := evaluator.decide(snapshot, appID)
	evaluator.once.Debug("exclusion decided", "app_id", appID, "exclude", decision.Exclude)
	return decision
}

func (evaluator *Evaluator) decide(snapshot *settings.Settings, appID uint32) Decision {
	if appID >= ReservedRangeStart {
		return Decision{AppID: appID, Exclude: true, Rule: RuleReserved}
	}
	if evaluator.IsForced(appID) {
		return Decision{AppID: appID, Exclude: false, Rule: RuleForced}
	}
	if snapshot.AdditionalApps.Contains(appID) {
		return Decision{AppID: appID, Exclude: false, Rule: RuleAdditional}
	}

	listed := snapshot.AppIDs.Contains(appID)
	if snapshot.UseWhitelist {
		return Decision{AppID: appID, Exclude: !listed, Rule: RuleWhitelist, Listed: listed}
	}
	return Decision{AppID: appID, Exclude: listed, Rule: RuleBlacklist, Listed: listed}
}

// OwnerOf returns the account entitled to appID through DenuvoGames,
// or NoOwner and false.
func (evaluator *Evaluator) OwnerOf(appID uint32) (uint32, bool) {
	owner, ok := evaluator.store.Load().DenuvoGames.OwnerOf(appID)
	if !ok {
		return NoOwner, false
	}
	return owner, true
}

// FakeAppID returns the substitute configured for appID in FakeAppIds.
func (evaluator *Evaluator) FakeAppID(appID uint32) (uint32, bool) {
	substitute, ok := evaluator.store.Load().FakeAppIDs[appID]
	return substitute, ok
}

// ResolveAppID returns the substitute for appID when one is configured,
// and appID itself otherwise.
func (evaluator *Evaluator) ResolveAppID(appID uint32) uint32 {
	if substitute, ok := evaluator.FakeAppID(appID); ok {
		evaluator.once.Debug("redirected app id", "app_id", appID, "substitute", substitute)
		return substitute
	}
	return appID
}

// IsFakeOffline reports whether appID's running state is hidden.
func (evaluator *Evaluator) IsFakeOffline(appID uint32) bool {
	return evaluator.store.Load().FakeOffline.Contains(appID)
}

// IdleStatus returns the rich-presence substitute shown while idling.
func (evaluator *Evaluator) IdleStatus() settings.FakeStatus {
	return evaluator.store.Load().IdleStatus
}

// UnownedStatus returns the rich-presence substitute shown while
// playing an app the account does not own.
func (evaluator *Evaluator) UnownedStatus() settings.FakeStatus {
	return evaluator.store.Load().UnownedStatus
}
