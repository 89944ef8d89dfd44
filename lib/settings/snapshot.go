// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package settings

// Snapshot is the serializable form of a [Settings], used for dumps.
// Collections are emitted in a fixed order: sets ascending, DLC groups
// and owners in document order.
type Snapshot struct {
	DisableFamilyShareLock   bool `json:"disable_family_share_lock"`
	UseWhitelist             bool `json:"use_whitelist"`
	AutoFilterList           bool `json:"auto_filter_list"`
	PlayNotOwnedGames        bool `json:"play_not_owned_games"`
	SafeMode                 bool `json:"safe_mode"`
	Notifications            bool `json:"notifications"`
	WarnHashMismatch         bool `json:"warn_hash_mismatch"`
	NotifyInit               bool `json:"notify_init"`
	ExtendedLogging          bool `json:"extended_logging"`
	LogLevel                 uint `json:"log_level"`
	BlockEncryptedAppTickets bool `json:"block_encrypted_app_tickets"`

	AppIDs         []uint32           `json:"app_ids"`
	AdditionalApps []uint32           `json:"additional_apps"`
	FakeOffline    []uint32           `json:"fake_offline"`
	FakeAppIDs     []FakeAppIDMapping `json:"fake_app_ids"`
	IdleStatus     FakeStatus         `json:"idle_status"`
	UnownedStatus  FakeStatus         `json:"unowned_status"`
	DlcData        []DlcGroup         `json:"dlc_data"`
	DenuvoGames    []OwnerGroup       `json:"denuvo_games"`
}

// FakeAppIDMapping is one FakeAppIds entry.
type FakeAppIDMapping struct {
	AppID       uint32 `json:"app_id"`
	Replacement uint32 `json:"replacement"`
}

// DlcGroup is one parent app and its DLCs.
type DlcGroup struct {
	ParentID uint32 `json:"parent_id"`
	Dlcs     []Dlc  `json:"dlcs"`
}

// OwnerGroup is one account and the apps it is entitled to.
type OwnerGroup struct {
	Owner uint32   `json:"owner"`
	Apps  []uint32 `json:"apps"`
}

// Snapshot converts settings to their serializable form.
func (settings *Settings) Snapshot() Snapshot {
	snapshot := Snapshot{
		DisableFamilyShareLock:   settings.DisableFamilyShareLock,
		UseWhitelist:             settings.UseWhitelist,
		AutoFilterList:           settings.AutoFilterList,
		PlayNotOwnedGames:        settings.PlayNotOwnedGames,
		SafeMode:                 settings.SafeMode,
		Notifications:            settings.Notifications,
		WarnHashMismatch:         settings.WarnHashMismatch,
		NotifyInit:               settings.NotifyInit,
		ExtendedLogging:          settings.ExtendedLogging,
		LogLevel:                 settings.LogLevel,
		BlockEncryptedAppTickets: settings.BlockEncryptedAppTickets,

		AppIDs:         settings.AppIDs.Sorted(),
		AdditionalApps: settings.AdditionalApps.Sorted(),
		FakeOffline:    settings.FakeOffline.Sorted(),
		IdleStatus:     settings.IdleStatus,
		UnownedStatus:  settings.UnownedStatus,
	}

	fakeKeys := make(AppSet, len(settings.FakeAppIDs))
	for appID := range settings.FakeAppIDs {
		fakeKeys[appID] = struct{}{}
	}
	for _, appID := range fakeKeys.Sorted() {
		snapshot.FakeAppIDs = append(snapshot.FakeAppIDs, FakeAppIDMapping{
			AppID:       appID,
			Replacement: settings.FakeAppIDs[appID],
		})
	}

	for _, parentID := range settings.DlcData.Parents() {
		set, _ := settings.DlcData.Lookup(parentID)
		snapshot.DlcData = append(snapshot.DlcData, DlcGroup{ParentID: parentID, Dlcs: set.All()})
	}
	for _, owner := range settings.DenuvoGames.Owners() {
		snapshot.DenuvoGames = append(snapshot.DenuvoGames, OwnerGroup{
			Owner: owner,
			Apps:  settings.DenuvoGames.Apps(owner).Sorted(),
		})
	}
	return snapshot
}
