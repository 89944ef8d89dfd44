// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/slscore/slscore/lib/diag"
	"github.com/slscore/slscore/lib/settings"
)

func newEvaluator(t *testing.T, document string) (*Evaluator, *settings.Store) {
	t.Helper()
	snapshot, report := settings.Parse([]byte(document))
	if report.Document != nil {
		t.Fatalf("test document does not parse: %v", report.Document)
	}
	store := settings.NewStore(snapshot)
	return New(store, diag.NewOnce(diag.Discard())), store
}

func TestShouldExcludeWhitelistAndBlacklist(t *testing.T) {
	tests := []struct {
		name      string
		whitelist bool
		appID     uint32
		want      bool
	}{
		{"whitelist listed", true, 10, false},
		{"whitelist unlisted", true, 30, true},
		{"blacklist listed", false, 10, true},
		{"blacklist unlisted", false, 30, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			document := "AppIds: [10, 20]\nUseWhitelist: false\n"
			if test.whitelist {
				document = "AppIds: [10, 20]\nUseWhitelist: true\n"
			}
			evaluator, _ := newEvaluator(t, document)
			if got := evaluator.ShouldExclude(test.appID); got != test.want {
				t.Errorf("ShouldExclude(%d) = %v, want %v", test.appID, got, test.want)
			}
		})
	}
}

func TestReservedRangeAlwaysExcluded(t *testing.T) {
	documents := []string{
		"UseWhitelist: true\nAppIds: [1000000000, 4294967295]\n",
		"UseWhitelist: false\n",
		"AdditionalApps: [1000000000]\n",
	}
	ids := []uint32{ReservedRangeStart, ReservedRangeStart + 1, 4294967295}

	for _, document := range documents {
		evaluator, _ := newEvaluator(t, document)
		for _, id := range ids {
			evaluator.Force(id)
			decision := evaluator.Decide(id)
			if !decision.Exclude || decision.Rule != RuleReserved {
				t.Errorf("Decide(%d) = %+v with %q, want reserved exclusion", id, decision, document)
			}
		}
	}

	evaluator, _ := newEvaluator(t, "UseWhitelist: false\n")
	if evaluator.ShouldExclude(ReservedRangeStart - 1) {
		t.Error("the id just below the reserved range should follow normal rules")
	}
}

func TestForceOverridesWhitelist(t *testing.T) {
	evaluator, _ := newEvaluator(t, "UseWhitelist: true\nAppIds: [10]\n")

	if !evaluator.ShouldExclude(99) {
		t.Fatal("unlisted app should be excluded before forcing")
	}
	if !evaluator.Force(99) {
		t.Fatal("first Force should return true")
	}
	decision := evaluator.Decide(99)
	if decision.Exclude || decision.Rule != RuleForced {
		t.Errorf("Decide(99) = %+v, want forced inclusion", decision)
	}
}

func TestForceOverridesBlacklist(t *testing.T) {
	evaluator, _ := newEvaluator(t, "UseWhitelist: false\nAppIds: [10]\n")
	evaluator.Force(10)
	if evaluator.ShouldExclude(10) {
		t.Error("forced app should not be excluded even when blacklisted")
	}
}

func TestForceIsIdempotent(t *testing.T) {
	evaluator, _ := newEvaluator(t, "")

	before := len(evaluator.Forced())
	if !evaluator.Force(42) {
		t.Error("first Force(42) = false, want true")
	}
	if evaluator.Force(42) {
		t.Error("second Force(42) = true, want false")
	}
	if got := len(evaluator.Forced()); got != before+1 {
		t.Errorf("forced set grew by %d, want 1", got-before)
	}
	if !evaluator.IsForced(42) {
		t.Error("IsForced(42) = false after Force")
	}
	if evaluator.IsForced(43) {
		t.Error("IsForced(43) = true, never forced")
	}
}

func TestForcedSurvivesReload(t *testing.T) {
	evaluator, store := newEvaluator(t, "UseWhitelist: true\n")
	evaluator.Force(7)

	next, _ := settings.Parse([]byte("UseWhitelist: true\nAppIds: [1]\n"))
	store.Replace(next)

	if evaluator.ShouldExclude(7) {
		t.Error("forced app excluded after reload")
	}
	if !evaluator.ShouldExclude(8) {
		t.Error("reloaded whitelist not applied")
	}
}

func TestAdditionalAppsIncluded(t *testing.T) {
	evaluator, _ := newEvaluator(t, "UseWhitelist: true\nAdditionalApps: [55]\n")
	decision := evaluator.Decide(55)
	if decision.Exclude || decision.Rule != RuleAdditional {
		t.Errorf("Decide(55) = %+v, want additional inclusion", decision)
	}
	if evaluator.IsForced(55) {
		t.Error("document apps are not part of the runtime forced set")
	}
}

func TestDecisionLoggedOncePerResult(t *testing.T) {
	var output bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&output, &slog.HandlerOptions{Level: slog.LevelDebug}))
	snapshot, _ := settings.Parse([]byte("UseWhitelist: true\nAppIds: [10]\n"))
	evaluator := New(settings.NewStore(snapshot), diag.NewOnce(logger))

	for range 5 {
		evaluator.ShouldExclude(10)
		evaluator.ShouldExclude(11)
	}
	if got := strings.Count(output.String(), "exclusion decided"); got != 2 {
		t.Errorf("logged %d decisions, want 2\n%s", got, output.String())
	}
}

func TestOwnerOf(t *testing.T) {
	evaluator, _ := newEvaluator(t, `
DenuvoGames:
  111:
    - 10
    - 20
  222:
    - 20
    - 30
`)
	tests := []struct {
		appID     uint32
		wantOwner uint32
		wantOK    bool
	}{
		{10, 111, true},
		{20, 111, true},
		{30, 222, true},
		{40, NoOwner, false},
	}
	for _, test := range tests {
		owner, ok := evaluator.OwnerOf(test.appID)
		if owner != test.wantOwner || ok != test.wantOK {
			t.Errorf("OwnerOf(%d) = %d, %v; want %d, %v", test.appID, owner, ok, test.wantOwner, test.wantOK)
		}
	}
}

func TestFakeAppIDsAndStatuses(t *testing.T) {
	evaluator, _ := newEvaluator(t, `
FakeAppIds:
  480: 730
FakeOffline: [570]
IdleStatus:
  AppId: 1
  Title: "Idle"
UnownedStatus:
  AppId: 2
  Title: "Unowned"
`)
	if got := evaluator.ResolveAppID(480); got != 730 {
		t.Errorf("ResolveAppID(480) = %d, want 730", got)
	}
	if got := evaluator.ResolveAppID(10); got != 10 {
		t.Errorf("ResolveAppID(10) = %d, want 10", got)
	}
	if !evaluator.IsFakeOffline(570) || evaluator.IsFakeOffline(571) {
		t.Error("IsFakeOffline mismatch")
	}
	if evaluator.IdleStatus().Title != "Idle" || evaluator.UnownedStatus().AppID != 2 {
		t.Error("fake statuses not exposed")
	}
}
