// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"slices"
)

// Settings is one immutable snapshot of the configuration document.
// A snapshot is built in full by [Parse] and never modified afterwards;
// reloading produces a new snapshot that replaces this one in a
// [Store].
type Settings struct {
	DisableFamilyShareLock   bool
	UseWhitelist             bool
	AutoFilterList           bool
	PlayNotOwnedGames        bool
	SafeMode                 bool
	Notifications            bool
	WarnHashMismatch         bool
	NotifyInit               bool
	ExtendedLogging          bool
	LogLevel                 uint
	BlockEncryptedAppTickets bool

	// AppIDs is the owned app catalogue evaluated against UseWhitelist.
	AppIDs AppSet

	// AdditionalApps are apps the document pins as included,
	// regardless of whitelist mode and AppIDs.
	AdditionalApps AppSet

	// FakeOffline lists apps whose running state is hidden from
	// friends.
	FakeOffline AppSet

	// FakeAppIDs redirects lookups for a real app id to a substitute.
	FakeAppIDs map[uint32]uint32

	IdleStatus    FakeStatus
	UnownedStatus FakeStatus

	DlcData     *DlcCatalogue
	DenuvoGames *DenuvoOwnership
}

// Default returns a snapshot with every key at its documented default
// and every collection empty.
func Default() *Settings {
	return &Settings{
		DisableFamilyShareLock:   true,
		UseWhitelist:             false,
		AutoFilterList:           true,
		PlayNotOwnedGames:        false,
		SafeMode:                 false,
		Notifications:            true,
		WarnHashMismatch:         false,
		NotifyInit:               true,
		ExtendedLogging:          false,
		LogLevel:                 2,
		BlockEncryptedAppTickets: false,

		AppIDs:         AppSet{},
		AdditionalApps: AppSet{},
		FakeOffline:    AppSet{},
		FakeAppIDs:     map[uint32]uint32{},
		DlcData:        NewDlcCatalogue(),
		DenuvoGames:    NewDenuvoOwnership(),
	}
}

// FakeStatus is a rich-presence substitute: the app id and title shown
// to friends instead of the real one. The zero value means "unset".
type FakeStatus struct {
	AppID uint32 `json:"app_id"`
	Title string `json:"title"`
}

// IsZero reports whether no substitute is configured.
func (status FakeStatus) IsZero() bool {
	return status.AppID == 0 && status.Title == ""
}

// AppSet is a set of app ids.
type AppSet map[uint32]struct{}

// NewAppSet builds a set from the given ids.
func NewAppSet(ids ...uint32) AppSet {
	set := make(AppSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is in the set. A nil set contains
// nothing.
func (set AppSet) Contains(id uint32) bool {
	_, ok := set[id]
	return ok
}

// Sorted returns the members in ascending order.
func (set AppSet) Sorted() []uint32 {
	ids := make([]uint32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Dlc is one downloadable content entry under a parent app.
type Dlc struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// DlcSet holds the DLCs of one parent app in document order.
type DlcSet struct {
	ParentID uint32
	dlcs     []Dlc
	index    map[uint32]int
}

func newDlcSet(parentID uint32) *DlcSet {
	return &DlcSet{ParentID: parentID, index: make(map[uint32]int)}
}

// put adds or renames a DLC. A repeated id keeps its original position.
func (set *DlcSet) put(dlc Dlc) {
	if position, ok := set.index[dlc.ID]; ok {
		set.dlcs[position] = dlc
		return
	}
	set.index[dlc.ID] = len(set.dlcs)
	set.dlcs = append(set.dlcs, dlc)
}

// Len returns the number of DLCs.
func (set *DlcSet) Len() int {
	if set == nil {
		return 0
	}
	return len(set.dlcs)
}

// At returns the DLC at position index. The caller checks bounds.
func (set *DlcSet) At(index int) Dlc {
	return set.dlcs[index]
}

// Lookup returns the DLC with the given id.
func (set *DlcSet) Lookup(id uint32) (Dlc, bool) {
	if set == nil {
		return Dlc{}, false
	}
	position, ok := set.index[id]
	if !ok {
		return Dlc{}, false
	}
	return set.dlcs[position], true
}

// All returns a copy of the DLCs in document order.
func (set *DlcSet) All() []Dlc {
	if set == nil {
		return nil
	}
	return slices.Clone(set.dlcs)
}

// DlcCatalogue maps parent apps to their DLC sets, preserving the order
// in which parents appeared in the document.
type DlcCatalogue struct {
	parents  []uint32
	sets     map[uint32]*DlcSet
	parentOf map[uint32]uint32
}

// NewDlcCatalogue returns an empty catalogue.
func NewDlcCatalogue() *DlcCatalogue {
	return &DlcCatalogue{
		sets:     make(map[uint32]*DlcSet),
		parentOf: make(map[uint32]uint32),
	}
}

// add installs a fully decoded set. A repeated parent replaces the
// earlier set but keeps its position.
func (catalogue *DlcCatalogue) add(set *DlcSet) {
	if previous, ok := catalogue.sets[set.ParentID]; ok {
		for _, dlc := range previous.dlcs {
			delete(catalogue.parentOf, dlc.ID)
		}
	} else {
		catalogue.parents = append(catalogue.parents, set.ParentID)
	}
	catalogue.sets[set.ParentID] = set
	for _, dlc := range set.dlcs {
		catalogue.parentOf[dlc.ID] = set.ParentID
	}
}

// Lookup returns the DLC set of a parent app.
func (catalogue *DlcCatalogue) Lookup(parentID uint32) (*DlcSet, bool) {
	if catalogue == nil {
		return nil, false
	}
	set, ok := catalogue.sets[parentID]
	return set, ok
}

// ParentOf returns the parent app listing dlcID.
func (catalogue *DlcCatalogue) ParentOf(dlcID uint32) (uint32, bool) {
	if catalogue == nil {
		return 0, false
	}
	parent, ok := catalogue.parentOf[dlcID]
	return parent, ok
}

// Parents returns the parent app ids in document order.
func (catalogue *DlcCatalogue) Parents() []uint32 {
	if catalogue == nil {
		return nil
	}
	return slices.Clone(catalogue.parents)
}

// Len returns the number of parent apps.
func (catalogue *DlcCatalogue) Len() int {
	if catalogue == nil {
		return 0
	}
	return len(catalogue.parents)
}

// DenuvoOwnership groups app ids under the account entitled to them.
// Owners are kept in document order so that an app listed under more
// than one owner always resolves to the same (first) owner for a given
// document.
type DenuvoOwnership struct {
	owners []uint32
	apps   map[uint32]AppSet
}

// NewDenuvoOwnership returns an empty ownership map.
func NewDenuvoOwnership() *DenuvoOwnership {
	return &DenuvoOwnership{apps: make(map[uint32]AppSet)}
}

// add installs an owner's full entitlement set. A repeated owner
// replaces the earlier set but keeps its position.
func (ownership *DenuvoOwnership) add(owner uint32, apps AppSet) {
	if _, ok := ownership.apps[owner]; !ok {
		ownership.owners = append(ownership.owners, owner)
	}
	ownership.apps[owner] = apps
}

// OwnerOf scans owners in document order and returns the first one
// whose entitlement set contains appID.
func (ownership *DenuvoOwnership) OwnerOf(appID uint32) (uint32, bool) {
	if ownership == nil {
		return 0, false
	}
	for _, owner := range ownership.owners {
		if ownership.apps[owner].Contains(appID) {
			return owner, true
		}
	}
	return 0, false
}

// Owners returns the owner ids in document order.
func (ownership *DenuvoOwnership) Owners() []uint32 {
	if ownership == nil {
		return nil
	}
	return slices.Clone(ownership.owners)
}

// Apps returns the entitlement set of owner.
func (ownership *DenuvoOwnership) Apps(owner uint32) AppSet {
	if ownership == nil {
		return nil
	}
	return ownership.apps[owner]
}

// Len returns the number of owners.
func (ownership *DenuvoOwnership) Len() int {
	if ownership == nil {
		return 0
	}
	return len(ownership.owners)
}
