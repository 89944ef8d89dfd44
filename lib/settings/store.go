// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import "sync/atomic"

// Store publishes the current snapshot. Readers call [Store.Load] and
// keep using the snapshot they received for the rest of their
// operation; [Store.Replace] swaps in a new snapshot without waiting
// for them.
type Store struct {
	current atomic.Pointer[Settings]
}

// NewStore returns a store holding initial, or [Default] when initial
// is nil.
func NewStore(initial *Settings) *Store {
	if initial == nil {
		initial = Default()
	}
	store := &Store{}
	store.current.Store(initial)
	return store
}

// Load returns the current snapshot. Never nil.
func (store *Store) Load() *Settings {
	return store.current.Load()
}

// Replace publishes next and returns the snapshot it replaced.
func (store *Store) Replace(next *Settings) *Settings {
	if next == nil {
		next = Default()
	}
	return store.current.Swap(next)
}

// Value reads one field of store's current snapshot. fallback is
// returned when there is no store, so callers always name the value
// they expect in that case.
//
//	warn := settings.Value(store, func(s *settings.Settings) bool { return s.WarnHashMismatch }, false)
func Value[T any](store *Store, field func(*Settings) T, fallback T) T {
	if store == nil {
		return fallback
	}
	snapshot := store.Load()
	if snapshot == nil {
		return fallback
	}
	return field(snapshot)
}
