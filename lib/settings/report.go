// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"context"
	"log/slog"

	"github.com/slscore/slscore/lib/diag"
)

// Status is the outcome of decoding one key of the document.
type Status int

const (
	// StatusLoaded means the key decoded in full.
	StatusLoaded Status = iota

	// StatusMissing means the key is absent; its default applies.
	StatusMissing

	// StatusPartial means a collection kept some entries and dropped
	// others.
	StatusPartial

	// StatusFailed means the value could not be used at all; its
	// default applies.
	StatusFailed
)

func (status Status) String() string {
	switch status {
	case StatusLoaded:
		return "loaded"
	case StatusMissing:
		return "missing"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Kind is the decode policy a key follows.
type Kind int

const (
	// KindScalar is a single value, independent of every other key.
	KindScalar Kind = iota

	// KindList is a list of ids whose entries are independent.
	KindList

	// KindMap is a flat id → id map that stops at the first bad pair.
	KindMap

	// KindRecord is a small fixed record decoded as a unit.
	KindRecord

	// KindNested is a map of collections that stops at the first bad
	// entry anywhere inside it.
	KindNested
)

// SectionResult records how one key was decoded.
type SectionResult struct {
	Key    string
	Kind   Kind
	Status Status

	// Entries is the number of entries kept (1 for a loaded scalar).
	Entries int

	// Skipped counts list entries dropped individually.
	Skipped int

	// Value is the decoded value of a loaded scalar or record.
	Value any

	// Err describes why the key fell back or lost entries.
	Err error

	// Quiet suppresses the "missing entry" notice for optional keys.
	Quiet bool
}

// abort marks the section as cut short by err, keeping whatever was
// decoded so far.
func (result *SectionResult) abort(err error) {
	result.Status = StatusPartial
	result.Err = err
}

// Report collects per-key results for one load.
type Report struct {
	// Path is the file the document was read from, empty for [Parse].
	Path string

	// Document is set when the whole document was unusable and every
	// key fell back to its default.
	Document error

	Sections []SectionResult
}

func (report *Report) add(result SectionResult) {
	report.Sections = append(report.Sections, result)
}

// Section returns the result for key.
func (report *Report) Section(key string) (SectionResult, bool) {
	for _, result := range report.Sections {
		if result.Key == key {
			return result, true
		}
	}
	return SectionResult{}, false
}

// Fallbacks returns every result that did not load cleanly, excluding
// scalars and optional records that are simply absent.
func (report *Report) Fallbacks() []SectionResult {
	var fallbacks []SectionResult
	for _, result := range report.Sections {
		if result.Status == StatusLoaded {
			continue
		}
		if result.Status == StatusMissing && (result.Kind == KindScalar || result.Quiet) {
			continue
		}
		fallbacks = append(fallbacks, result)
	}
	return fallbacks
}

// OK reports whether the document parsed and every present key
// decoded in full.
func (report *Report) OK() bool {
	if report.Document != nil {
		return false
	}
	for _, result := range report.Sections {
		if result.Status == StatusPartial || result.Status == StatusFailed {
			return false
		}
	}
	return true
}

// Log writes the report: a NOTIFY record when the document fell back
// to defaults, one record per key that fell back or lost entries, and
// the effective value of every scalar at INFO.
func (report *Report) Log(logger *slog.Logger) {
	ctx := context.Background()
	if report.Document != nil {
		logger.Log(ctx, diag.LevelNotify, "cannot use configuration, using defaults",
			"path", report.Path, "error", report.Document)
	}

	for _, result := range report.Sections {
		switch {
		case result.Status == StatusLoaded && (result.Kind == KindScalar || result.Kind == KindRecord):
			logger.Info("setting", "key", result.Key, "value", result.Value)
		case result.Status == StatusLoaded:
			logger.Debug("loaded section", "key", result.Key, "entries", result.Entries)
		case result.Status == StatusMissing:
			if result.Kind == KindScalar || result.Quiet || report.Document != nil {
				continue
			}
			logger.Log(ctx, diag.LevelNotify, "missing entry in config", "key", result.Key)
		case result.Status == StatusPartial:
			logger.Warn("failed to parse section, keeping entries decoded before the error",
				"key", result.Key, "entries", result.Entries, "skipped", result.Skipped, "error", result.Err)
		case result.Status == StatusFailed:
			logger.Warn("failed to parse setting, using default",
				"key", result.Key, "error", result.Err)
		}
	}
}
