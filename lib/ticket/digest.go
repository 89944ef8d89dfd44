// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3 hash of a ticket payload, used to notice when the
// client starts presenting a different ticket for an app.
type Digest [32]byte

// Sum hashes a payload. Callers pass the effective bytes, not the
// padded record, so a live ticket and its cached copy hash equal.
func Sum(payload []byte) Digest {
	return Digest(blake3.Sum256(payload))
}

// String returns the hex encoding.
func (digest Digest) String() string {
	return hex.EncodeToString(digest[:])
}

// Short returns the first 12 hex characters, for log lines.
func (digest Digest) Short() string {
	return digest.String()[:12]
}

// MarshalText encodes the digest as hex, for JSON and CBOR dumps.
func (digest Digest) MarshalText() ([]byte, error) {
	return []byte(digest.String()), nil
}

// UnmarshalText decodes a hex digest.
func (digest *Digest) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != len(digest) {
		return fmt.Errorf("digest is %d hex characters, want %d", len(text), hex.EncodedLen(len(digest)))
	}
	_, err := hex.Decode(digest[:], text)
	return err
}
