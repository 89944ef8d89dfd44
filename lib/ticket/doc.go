// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

// Package ticket caches app ownership tickets so that an app whose
// ticket cannot be fetched live can be handed the last one observed.
//
// A ticket is an opaque binary blob of at most [PayloadSize] bytes that
// may contain zero bytes anywhere. It comes with four 32-bit
// [Offsets] supplied by the client; two of them locate, inside the
// blob, the app id (Offsets[0]) and the owning account id
// (Offsets[1]). Their position differs between tickets, so every field
// read goes through the offsets and is bounds-checked.
//
// Each app's ticket is stored as one file, ticketData_<appid>, holding
// exactly [RecordSize] bytes: the zero-padded payload followed by the
// offsets as little-endian uint32. There is no header, version or
// checksum. Because padding and payload zeros are indistinguishable,
// the payload length is recovered as the position of the last non-zero
// byte plus one, and a record that is all zeros counts as absent.
//
// Files are replaced whole via a temporary file and rename. The cache
// never deletes tickets.
package ticket
