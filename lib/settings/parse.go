// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses the document at path. An unreadable file
// is handled exactly like a document that fails to parse: the returned
// snapshot holds every default and the report records why.
func LoadFile(path string) (*Settings, *Report) {
	data, err := os.ReadFile(path)
	if err != nil {
		report := &Report{
			Path:     path,
			Document: fmt.Errorf("reading %s: %w", path, err),
		}
		return Default(), report
	}
	settings, report := Parse(data)
	report.Path = path
	return settings, report
}

// Parse decodes a configuration document into a fresh snapshot.
//
// Each key is decoded independently and falls back to its default on
// error. Collection sections differ in how they handle a bad entry:
// the id lists skip just that entry, while FakeAppIds, DlcData and
// DenuvoGames stop at the first bad entry and keep what was decoded
// before it. A document that cannot be parsed at all yields the
// default snapshot.
func Parse(data []byte) (*Settings, *Report) {
	report := &Report{}

	document, err := parseDocument(data)
	if err != nil {
		report.Document = err
		document = &mapping{}
	}

	defaults := Default()
	settings := Default()

	settings.DisableFamilyShareLock = scalar(document, report, "DisableFamilyShareLock", defaults.DisableFamilyShareLock)
	settings.UseWhitelist = scalar(document, report, "UseWhitelist", defaults.UseWhitelist)
	settings.AutoFilterList = scalar(document, report, "AutoFilterList", defaults.AutoFilterList)
	settings.PlayNotOwnedGames = scalar(document, report, "PlayNotOwnedGames", defaults.PlayNotOwnedGames)
	settings.SafeMode = scalar(document, report, "SafeMode", defaults.SafeMode)
	settings.Notifications = scalar(document, report, "Notifications", defaults.Notifications)
	settings.WarnHashMismatch = scalar(document, report, "WarnHashMissmatch", defaults.WarnHashMismatch)
	settings.NotifyInit = scalar(document, report, "NotifyInit", defaults.NotifyInit)
	settings.ExtendedLogging = scalar(document, report, "ExtendedLogging", defaults.ExtendedLogging)
	settings.LogLevel = scalar(document, report, "LogLevel", defaults.LogLevel)
	settings.BlockEncryptedAppTickets = scalar(document, report, "BlockEncryptedAppTickets", defaults.BlockEncryptedAppTickets)

	settings.AppIDs = idList(document, report, "AppIds")
	settings.AdditionalApps = idList(document, report, "AdditionalApps")
	settings.FakeOffline = idList(document, report, "FakeOffline")

	settings.FakeAppIDs = fakeAppIDs(document, report)
	settings.IdleStatus = fakeStatus(document, report, "IdleStatus")
	settings.UnownedStatus = fakeStatus(document, report, "UnownedStatus")
	settings.DlcData = dlcCatalogue(document, report)
	settings.DenuvoGames = denuvoOwnership(document, report)

	return settings, report
}

// mapping is the top-level document: key nodes paired with value nodes
// in document order.
type mapping struct {
	keys   []*yaml.Node
	values []*yaml.Node
}

// lookup returns the value node for key. The last occurrence wins,
// matching how yaml decoders treat repeated keys.
func (document *mapping) lookup(key string) (*yaml.Node, bool) {
	for index := len(document.keys) - 1; index >= 0; index-- {
		if document.keys[index].Value == key {
			return document.values[index], true
		}
	}
	return nil, false
}

func parseDocument(data []byte) (*mapping, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	// Empty input produces a zero node: every section is simply missing.
	if root.Kind == 0 || len(root.Content) == 0 {
		return &mapping{}, nil
	}
	top := root.Content[0]
	if top.Kind == yaml.ScalarNode && top.Tag == "!!null" {
		return &mapping{}, nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing document: top level is not a mapping (line %d)", top.Line)
	}
	return pairs(top), nil
}

func pairs(node *yaml.Node) *mapping {
	result := &mapping{}
	for index := 0; index+1 < len(node.Content); index += 2 {
		result.keys = append(result.keys, node.Content[index])
		result.values = append(result.values, node.Content[index+1])
	}
	return result
}

// isNull reports whether a section is present but empty ("AppIds:"
// with nothing after it). Empty sections are valid and hold no entries.
func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// scalar decodes a single value. The fallback is returned when the key
// is absent or its value does not decode as T; a decode failure is
// recorded in the report.
func scalar[T any](document *mapping, report *Report, key string, fallback T) T {
	node, ok := document.lookup(key)
	if !ok {
		report.add(SectionResult{Key: key, Kind: KindScalar, Status: StatusMissing})
		return fallback
	}
	var value T
	if err := node.Decode(&value); err != nil {
		report.add(SectionResult{Key: key, Kind: KindScalar, Status: StatusFailed, Err: decodeError(key, node, err)})
		return fallback
	}
	report.add(SectionResult{Key: key, Kind: KindScalar, Status: StatusLoaded, Entries: 1, Value: value})
	return value
}

// idList decodes a sequence of app ids. Entries are independent: a bad
// entry is skipped and counted, the rest are kept.
func idList(document *mapping, report *Report, key string) AppSet {
	set := AppSet{}
	node, ok := document.lookup(key)
	if !ok {
		report.add(SectionResult{Key: key, Kind: KindList, Status: StatusMissing})
		return set
	}
	if isNull(node) {
		report.add(SectionResult{Key: key, Kind: KindList, Status: StatusLoaded})
		return set
	}
	if node.Kind != yaml.SequenceNode {
		report.add(SectionResult{Key: key, Kind: KindList, Status: StatusFailed,
			Err: fmt.Errorf("%s: expected a list (line %d)", key, node.Line)})
		return set
	}

	result := SectionResult{Key: key, Kind: KindList, Status: StatusLoaded}
	var errs []error
	for _, entry := range node.Content {
		var id uint32
		if err := entry.Decode(&id); err != nil {
			result.Skipped++
			errs = append(errs, decodeError(key, entry, err))
			continue
		}
		set[id] = struct{}{}
	}
	result.Entries = len(set)
	if result.Skipped > 0 {
		result.Status = StatusPartial
		result.Err = errors.Join(errs...)
	}
	report.add(result)
	return set
}

// fakeAppIDs decodes the app id redirection map. The first bad pair
// ends the section; pairs before it are kept.
func fakeAppIDs(document *mapping, report *Report) map[uint32]uint32 {
	const key = "FakeAppIds"
	redirects := map[uint32]uint32{}

	node, ok := document.lookup(key)
	if !ok {
		report.add(SectionResult{Key: key, Kind: KindMap, Status: StatusMissing})
		return redirects
	}
	if isNull(node) {
		report.add(SectionResult{Key: key, Kind: KindMap, Status: StatusLoaded})
		return redirects
	}
	if node.Kind != yaml.MappingNode {
		report.add(SectionResult{Key: key, Kind: KindMap, Status: StatusFailed,
			Err: fmt.Errorf("%s: expected a mapping (line %d)", key, node.Line)})
		return redirects
	}

	result := SectionResult{Key: key, Kind: KindMap, Status: StatusLoaded}
	entries := pairs(node)
	for index := range entries.keys {
		var from, to uint32
		if err := entries.keys[index].Decode(&from); err != nil {
			result.abort(decodeError(key, entries.keys[index], err))
			break
		}
		if err := entries.values[index].Decode(&to); err != nil {
			result.abort(decodeError(key, entries.values[index], err))
			break
		}
		redirects[from] = to
	}
	result.Entries = len(redirects)
	report.add(result)
	return redirects
}

// fakeStatus decodes an {AppId, Title} record. An absent record is not
// worth a warning; a malformed one is.
func fakeStatus(document *mapping, report *Report, key string) FakeStatus {
	node, ok := document.lookup(key)
	if !ok || isNull(node) {
		report.add(SectionResult{Key: key, Kind: KindRecord, Status: StatusMissing, Quiet: true})
		return FakeStatus{}
	}

	var raw struct {
		AppID *uint32 `yaml:"AppId"`
		Title *string `yaml:"Title"`
	}
	err := node.Decode(&raw)
	if err == nil && (raw.AppID == nil || raw.Title == nil) {
		err = fmt.Errorf("%s: AppId and Title are both required (line %d)", key, node.Line)
	}
	if err != nil {
		report.add(SectionResult{Key: key, Kind: KindRecord, Status: StatusFailed, Err: decodeError(key, node, err)})
		return FakeStatus{}
	}

	status := FakeStatus{AppID: *raw.AppID, Title: *raw.Title}
	report.add(SectionResult{Key: key, Kind: KindRecord, Status: StatusLoaded, Entries: 1, Value: status})
	return status
}

// dlcCatalogue decodes parent → {dlc → name}. The first decode error
// anywhere in the section ends it: parents completed before the error
// are kept, the parent being decoded is dropped.
func dlcCatalogue(document *mapping, report *Report) *DlcCatalogue {
	const key = "DlcData"
	catalogue := NewDlcCatalogue()

	node, ok := document.lookup(key)
	if !ok {
		report.add(SectionResult{Key: key, Kind: KindNested, Status: StatusMissing})
		return catalogue
	}
	if isNull(node) {
		report.add(SectionResult{Key: key, Kind: KindNested, Status: StatusLoaded})
		return catalogue
	}
	if node.Kind != yaml.MappingNode {
		report.add(SectionResult{Key: key, Kind: KindNested, Status: StatusFailed,
			Err: fmt.Errorf("%s: expected a mapping (line %d)", key, node.Line)})
		return catalogue
	}

	result := SectionResult{Key: key, Kind: KindNested, Status: StatusLoaded}
	parents := pairs(node)
	for index := range parents.keys {
		set, err := decodeDlcSet(parents.keys[index], parents.values[index])
		if err != nil {
			result.abort(decodeError(key, parents.keys[index], err))
			break
		}
		catalogue.add(set)
	}
	result.Entries = catalogue.Len()
	report.add(result)
	return catalogue
}

func decodeDlcSet(keyNode, valueNode *yaml.Node) (*DlcSet, error) {
	var parentID uint32
	if err := keyNode.Decode(&parentID); err != nil {
		return nil, err
	}
	set := newDlcSet(parentID)
	if isNull(valueNode) {
		return set, nil
	}
	if valueNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("DLC list of %d is not a mapping (line %d)", parentID, valueNode.Line)
	}
	dlcs := pairs(valueNode)
	for index := range dlcs.keys {
		var dlc Dlc
		if err := dlcs.keys[index].Decode(&dlc.ID); err != nil {
			return nil, err
		}
		if err := dlcs.values[index].Decode(&dlc.Name); err != nil {
			return nil, err
		}
		set.put(dlc)
	}
	return set, nil
}

// denuvoOwnership decodes owner → [app ids] with the same abort policy
// as DlcData.
func denuvoOwnership(document *mapping, report *Report) *DenuvoOwnership {
	const key = "DenuvoGames"
	ownership := NewDenuvoOwnership()

	node, ok := document.lookup(key)
	if !ok {
		report.add(SectionResult{Key: key, Kind: KindNested, Status: StatusMissing})
		return ownership
	}
	if isNull(node) {
		report.add(SectionResult{Key: key, Kind: KindNested, Status: StatusLoaded})
		return ownership
	}
	if node.Kind != yaml.MappingNode {
		report.add(SectionResult{Key: key, Kind: KindNested, Status: StatusFailed,
			Err: fmt.Errorf("%s: expected a mapping (line %d)", key, node.Line)})
		return ownership
	}

	result := SectionResult{Key: key, Kind: KindNested, Status: StatusLoaded}
	owners := pairs(node)
	for index := range owners.keys {
		var owner uint32
		if err := owners.keys[index].Decode(&owner); err != nil {
			result.abort(decodeError(key, owners.keys[index], err))
			break
		}
		var apps []uint32
		if !isNull(owners.values[index]) {
			if err := owners.values[index].Decode(&apps); err != nil {
				result.abort(decodeError(key, owners.values[index], err))
				break
			}
		}
		ownership.add(owner, NewAppSet(apps...))
	}
	result.Entries = ownership.Len()
	report.add(result)
	return ownership
}

func decodeError(key string, node *yaml.Node, err error) error {
	return fmt.Errorf("%s (line %d): %w", key, node.Line, err)
}
