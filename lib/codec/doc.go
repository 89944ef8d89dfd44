// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration used for
// binary snapshot dumps.
//
// slscore writes two serialization formats: JSON for people and
// scripts, CBOR for compact machine-readable dumps of the effective
// configuration. Both are produced from the same types, which carry
// `json` struct tags only; fxamacker/cbor v2 falls back to `json` tags
// when `cbor` tags are absent, so one tag controls naming for both.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same configuration therefore always dumps to identical bytes, and two
// dumps can be compared with cmp(1).
//
//	data, err := codec.Marshal(snapshot)
//	err = codec.Unmarshal(data, &snapshot)
package codec
