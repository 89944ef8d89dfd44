// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// PayloadSize is the largest ticket the cache stores.
	PayloadSize = 1024

	// OffsetCount is the number of auxiliary offsets stored with a
	// ticket.
	OffsetCount = 4

	// RecordSize is the size of a cache file.
	RecordSize = PayloadSize + OffsetCount*4
)

// Positions within Offsets of the fields this package reads.
const (
	AppIDSlot   = 0
	OwnerIDSlot = 1
)

var (
	// ErrTooLarge is returned when a ticket exceeds PayloadSize.
	ErrTooLarge = errors.New("ticket larger than the cache record")

	// ErrOffsetOutOfRange is returned when an offset does not leave
	// room for a 32-bit field inside the payload.
	ErrOffsetOutOfRange = errors.New("ticket field offset out of range")

	// ErrNoCredential is returned when no live ticket was supplied and
	// none is cached.
	ErrNoCredential = errors.New("no ticket available")
)

// Offsets is the auxiliary array passed alongside a ticket.
type Offsets [OffsetCount]uint32

// Record is the cached form of one ticket.
type Record struct {
	Payload [PayloadSize]byte
	Offsets Offsets
}

// NewRecord copies data and offsets into a record.
func NewRecord(data []byte, offsets Offsets) (Record, error) {
	var record Record
	if len(data) > PayloadSize {
		return record, fmt.Errorf("%d bytes, limit %d: %w", len(data), PayloadSize, ErrTooLarge)
	}
	copy(record.Payload[:], data)
	record.Offsets = offsets
	return record, nil
}

// EffectiveLength returns the position of the last non-zero payload
// byte plus one, or zero for an all-zero payload.
func EffectiveLength(record *Record) int {
	for index := PayloadSize - 1; index >= 0; index-- {
		if record.Payload[index] != 0 {
			return index + 1
		}
	}
	return 0
}

// Len is EffectiveLength(record).
func (record *Record) Len() int {
	return EffectiveLength(record)
}

// Empty reports whether the record holds no ticket.
func (record *Record) Empty() bool {
	return EffectiveLength(record) == 0
}

// Bytes returns a copy of the payload up to its effective length.
func (record *Record) Bytes() []byte {
	length := EffectiveLength(record)
	data := make([]byte, length)
	copy(data, record.Payload[:length])
	return data
}

// Field reads the little-endian uint32 at offset within the payload.
func (record *Record) Field(offset uint32) (uint32, error) {
	if uint64(offset)+4 > PayloadSize {
		return 0, fmt.Errorf("offset %d: %w", offset, ErrOffsetOutOfRange)
	}
	return binary.LittleEndian.Uint32(record.Payload[offset : offset+4]), nil
}

// FieldAt reads the field whose offset is stored in Offsets[slot].
func (record *Record) FieldAt(slot int) (uint32, error) {
	if slot < 0 || slot >= OffsetCount {
		return 0, fmt.Errorf("offset slot %d: %w", slot, ErrOffsetOutOfRange)
	}
	return record.Field(record.Offsets[slot])
}

// AppID reads the app id embedded in the ticket.
func (record *Record) AppID() (uint32, error) {
	return record.FieldAt(AppIDSlot)
}

// OwnerID reads the owning account id embedded in the ticket.
func (record *Record) OwnerID() (uint32, error) {
	return record.FieldAt(OwnerIDSlot)
}

// MarshalBinary encodes the record in the cache file layout.
func (record *Record) MarshalBinary() ([]byte, error) {
	return record.encode(), nil
}

func (record *Record) encode() []byte {
	data := make([]byte, RecordSize)
	copy(data, record.Payload[:])
	for slot, offset := range record.Offsets {
		binary.LittleEndian.PutUint32(data[PayloadSize+slot*4:], offset)
	}
	return data
}

// UnmarshalBinary decodes a cache file. data must be exactly
// RecordSize bytes.
func (record *Record) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return fmt.Errorf("ticket record is %d bytes, want %d", len(data), RecordSize)
	}
	copy(record.Payload[:], data[:PayloadSize])
	for slot := range record.Offsets {
		record.Offsets[slot] = binary.LittleEndian.Uint32(data[PayloadSize+slot*4:])
	}
	return nil
}
