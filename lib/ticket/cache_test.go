// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/slscore/slscore/lib/diag"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	logger := diag.Discard()
	return New(filepath.Join(t.TempDir(), "cache"), logger, diag.NewOnce(logger))
}

// ticketBytes builds a payload of the given length with the owner id
// at byte 8 and a non-zero final byte.
func ticketBytes(length int, owner uint32) []byte {
	data := make([]byte, length)
	binary.LittleEndian.PutUint32(data[8:], owner)
	data[length-1] = 0xEE
	return data
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	data := ticketBytes(200, 424242)
	data[50] = 0 // embedded zero
	offsets := Offsets{4, 8, 16, 32}

	if err := cache.Save(5, data, offsets); err != nil {
		t.Fatalf("Save: %v", err)
	}
	record, ok, err := cache.Load(5)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if !bytes.Equal(record.Bytes(), data) {
		t.Error("payload differs after round trip")
	}
	if record.Len() != len(data) {
		t.Errorf("Len = %d, want %d", record.Len(), len(data))
	}
	if record.Offsets != offsets {
		t.Errorf("Offsets = %v, want %v", record.Offsets, offsets)
	}

	info, err := os.Stat(filepath.Join(cache.Dir(), "ticketData_5"))
	if err != nil {
		t.Fatalf("cache file: %v", err)
	}
	if info.Size() != RecordSize {
		t.Errorf("cache file is %d bytes, want %d", info.Size(), RecordSize)
	}
}

func TestSaveReplacesWholeRecord(t *testing.T) {
	cache := newTestCache(t)
	if err := cache.Save(7, ticketBytes(500, 1), Offsets{0, 8, 0, 0}); err != nil {
		t.Fatal(err)
	}
	shorter := ticketBytes(20, 2)
	if err := cache.Save(7, shorter, Offsets{0, 8, 0, 0}); err != nil {
		t.Fatal(err)
	}
	record, ok, err := cache.Load(7)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if !bytes.Equal(record.Bytes(), shorter) {
		t.Errorf("payload length %d, want %d: old bytes leaked", record.Len(), len(shorter))
	}
}

func TestSaveRejectsOversizedTicket(t *testing.T) {
	cache := newTestCache(t)
	err := cache.Save(9, make([]byte, PayloadSize+1), Offsets{})
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Save error = %v, want ErrTooLarge", err)
	}
	if _, ok, _ := cache.Load(9); ok {
		t.Error("oversized ticket was cached")
	}
}

func TestLoadAbsentCases(t *testing.T) {
	cache := newTestCache(t)
	if _, ok, err := cache.Load(1); ok || err != nil {
		t.Errorf("missing file: ok=%v err=%v", ok, err)
	}

	if err := os.MkdirAll(cache.Dir(), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cache.Dir(), "ticketData_2"), make([]byte, RecordSize), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := cache.Load(2); ok || err != nil {
		t.Errorf("all-zero file: ok=%v err=%v", ok, err)
	}

	if err := os.WriteFile(filepath.Join(cache.Dir(), "ticketData_3"), []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := cache.Load(3); ok || err != nil {
		t.Errorf("truncated file: ok=%v err=%v", ok, err)
	}
}

func TestResolveIdentityLiveTicket(t *testing.T) {
	cache := newTestCache(t)
	if err := cache.Save(11, ticketBytes(64, 1111), Offsets{0, 8, 0, 0}); err != nil {
		t.Fatal(err)
	}

	live := ticketBytes(128, 2222)
	live = append(live, 0, 0)
	identity, err := cache.ResolveIdentity(11, live, Offsets{0, 8, 0, 0})
	if err != nil {
		t.Fatalf("ResolveIdentity: %v", err)
	}
	if !bytes.Equal(identity.Payload, live) {
		t.Error("live ticket was not returned unchanged")
	}
	if identity.Spoofed || identity.OwnerID != 0 {
		t.Errorf("live identity = %+v, want authentic", identity)
	}

	record, ok, err := cache.Load(11)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if owner, _ := record.OwnerID(); owner != 2222 {
		t.Errorf("cached owner = %d, want the live ticket to replace the old one", owner)
	}
	if Sum(record.Bytes()) != identity.Digest {
		t.Error("digest of the live ticket differs from its cached copy")
	}
}

func TestResolveIdentityOversizedLiveTicket(t *testing.T) {
	cache := newTestCache(t)
	live := bytes.Repeat([]byte{1}, PayloadSize+10)
	identity, err := cache.ResolveIdentity(12, live, Offsets{})
	if err != nil {
		t.Fatalf("ResolveIdentity: %v", err)
	}
	if !bytes.Equal(identity.Payload, live) {
		t.Error("oversized live ticket should still be returned unchanged")
	}
	if _, ok, _ := cache.Load(12); ok {
		t.Error("oversized live ticket was cached")
	}
}

func TestResolveIdentityFromCache(t *testing.T) {
	cache := newTestCache(t)
	data := ticketBytes(300, 87654321)
	offsets := Offsets{0, 8, 0, 0}
	if err := cache.Save(13, data, offsets); err != nil {
		t.Fatal(err)
	}

	identity, err := cache.ResolveIdentity(13, nil, Offsets{})
	if err != nil {
		t.Fatalf("ResolveIdentity: %v", err)
	}
	if !identity.Spoofed {
		t.Error("cached identity should be marked spoofed")
	}
	if identity.OwnerID != 87654321 {
		t.Errorf("OwnerID = %d, want 87654321", identity.OwnerID)
	}
	if !bytes.Equal(identity.Payload, data) || identity.Offsets != offsets {
		t.Error("cached payload or offsets differ")
	}
}

func TestResolveIdentityNoCredential(t *testing.T) {
	cache := newTestCache(t)
	_, err := cache.ResolveIdentity(14, nil, Offsets{})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("error = %v, want ErrNoCredential", err)
	}
}

func TestResolveIdentityInvalidOwnerOffset(t *testing.T) {
	cache := newTestCache(t)
	if err := cache.Save(15, ticketBytes(32, 1), Offsets{0, PayloadSize, 0, 0}); err != nil {
		t.Fatal(err)
	}
	_, err := cache.ResolveIdentity(15, nil, Offsets{})
	if !errors.Is(err, ErrOffsetOutOfRange) {
		t.Fatalf("error = %v, want ErrOffsetOutOfRange", err)
	}
}

func TestList(t *testing.T) {
	cache := newTestCache(t)
	if ids, err := cache.List(); err != nil || ids != nil {
		t.Fatalf("List on missing dir = %v, %v", ids, err)
	}
	for _, appID := range []uint32{30, 10, 20} {
		if err := cache.Save(appID, ticketBytes(16, appID), Offsets{}); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(cache.Dir(), "unrelated"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	ids, err := cache.List()
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []uint32{10, 20, 30}) {
		t.Errorf("List = %v, want [10 20 30]", ids)
	}
}

func TestPathFailsWhenDirectoryCannotBeCreated(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	logger := diag.Discard()
	cache := New(filepath.Join(blocker, "cache"), logger, diag.NewOnce(logger))
	if _, err := cache.Path(1); err == nil {
		t.Fatal("expected an error when a file blocks the cache directory")
	}
	if err := cache.Save(1, []byte{1}, Offsets{}); err == nil {
		t.Error("Save should fail when the directory cannot be created")
	}
}

func TestExportImport(t *testing.T) {
	source := newTestCache(t)
	tickets := map[uint32][]byte{
		100: ticketBytes(40, 1),
		200: ticketBytes(900, 2),
	}
	for appID, data := range tickets {
		if err := source.Save(appID, data, Offsets{0, 8, uint32(appID), 0}); err != nil {
			t.Fatal(err)
		}
	}

	var archive bytes.Buffer
	written, err := source.Export(&archive)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if written != 2 {
		t.Errorf("Export wrote %d tickets, want 2", written)
	}

	destination := newTestCache(t)
	imported, err := destination.Import(&archive)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !slices.Equal(imported, []uint32{100, 200}) {
		t.Errorf("imported = %v, want [100 200]", imported)
	}
	for appID, data := range tickets {
		record, ok, err := destination.Load(appID)
		if err != nil || !ok {
			t.Fatalf("Load(%d) = %v, %v", appID, ok, err)
		}
		if !bytes.Equal(record.Bytes(), data) || record.Offsets[2] != appID {
			t.Errorf("ticket %d differs after import", appID)
		}
	}
}

func TestImportRejectsForeignInput(t *testing.T) {
	cache := newTestCache(t)
	_, err := cache.Import(bytes.NewReader([]byte("this is not a ticket archive")))
	if !errors.Is(err, ErrBadArchive) {
		t.Fatalf("Import error = %v, want ErrBadArchive", err)
	}
	if ids, _ := cache.List(); len(ids) != 0 {
		t.Errorf("cache holds %v after a failed import", ids)
	}
}
