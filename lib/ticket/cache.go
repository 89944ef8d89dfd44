// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/slscore/slscore/lib/diag"
)

// filePrefix starts every cache file name; the app id follows.
const filePrefix = "ticketData_"

// Cache stores one ticket record per app id under a directory. The
// directory is created on first use.
//
// Cache holds no locks. Callers must not save the same app id from two
// goroutines at once; different app ids are independent.
type Cache struct {
	directory string
	logger    *slog.Logger
	once      *diag.Once
}

// New creates a cache rooted at directory. once deduplicates the
// "saved ticket" notice; nil gives the cache its own.
func New(directory string, logger *slog.Logger, once *diag.Once) *Cache {
	if once == nil {
		once = diag.NewOnce(logger)
	}
	return &Cache{
		directory: directory,
		logger:    logger,
		once:      once,
	}
}

// Dir returns the cache directory.
func (cache *Cache) Dir() string {
	return cache.directory
}

// Path returns the file holding appID's ticket, creating the cache
// directory if it does not exist yet.
func (cache *Cache) Path(appID uint32) (string, error) {
	if err := os.MkdirAll(cache.directory, 0o700); err != nil {
		return "", fmt.Errorf("creating ticket cache directory: %w", err)
	}
	return cache.path(appID), nil
}

func (cache *Cache) path(appID uint32) string {
	return filepath.Join(cache.directory, fileName(appID))
}

func fileName(appID uint32) string {
	return filePrefix + strconv.FormatUint(uint64(appID), 10)
}

// Save stores data and offsets as appID's ticket, replacing any
// earlier one in full. Fails with ErrTooLarge when data does not fit.
func (cache *Cache) Save(appID uint32, data []byte, offsets Offsets) error {
	record, err := NewRecord(data, offsets)
	if err != nil {
		return fmt.Errorf("saving ticket for %d: %w", appID, err)
	}
	path, err := cache.Path(appID)
	if err != nil {
		return err
	}

	cache.logger.Debug("saving ticket", "app_id", appID, "bytes", len(data))
	encoded := record.encode()
	if err := writeFileAtomic(path, encoded); err != nil {
		return fmt.Errorf("saving ticket for %d: %w", appID, err)
	}
	cache.once.Info("saved ticket", "app_id", appID)
	return nil
}

// Load reads appID's ticket. Returns false when no usable ticket is
// cached: the file is missing, shorter than a record, or all zeros.
// Other I/O failures are returned as errors.
func (cache *Cache) Load(appID uint32) (Record, bool, error) {
	var record Record

	file, err := os.Open(cache.path(appID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return record, false, nil
		}
		return record, false, fmt.Errorf("opening ticket for %d: %w", appID, err)
	}
	defer file.Close()

	cache.logger.Debug("reading ticket", "app_id", appID)
	data := make([]byte, RecordSize)
	if _, err := io.ReadFull(file, data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			cache.logger.Warn("ignoring truncated ticket", "app_id", appID)
			return Record{}, false, nil
		}
		return record, false, fmt.Errorf("reading ticket for %d: %w", appID, err)
	}
	if err := record.UnmarshalBinary(data); err != nil {
		return Record{}, false, err
	}
	if record.Empty() {
		return Record{}, false, nil
	}
	return record, true, nil
}

// Identity is the ticket handed back to the client.
type Identity struct {
	// Payload is the ticket, trimmed to its effective length for
	// cached tickets and unchanged for live ones.
	Payload []byte
	Offsets Offsets

	// OwnerID is the account id embedded in a cached ticket. Zero for
	// live tickets, which need no substitution.
	OwnerID uint32

	// Spoofed is true when the ticket came from the cache.
	Spoofed bool

	// Digest identifies the payload.
	Digest Digest
}

// ResolveIdentity picks the ticket to present for appID.
//
// A non-empty live ticket is authentic: it is cached and returned
// unchanged. A failure to cache it is logged and does not affect the
// result. With no live ticket, the cached one is returned together
// with the owner id read at Offsets[1]; ErrNoCredential when nothing
// usable is cached.
func (cache *Cache) ResolveIdentity(appID uint32, live []byte, offsets Offsets) (Identity, error) {
	if len(live) > 0 {
		return cache.observe(appID, live, offsets), nil
	}

	record, ok, err := cache.Load(appID)
	if err != nil {
		cache.logger.Warn("cannot read cached ticket", "app_id", appID, "error", err)
		return Identity{}, fmt.Errorf("app %d: %w", appID, ErrNoCredential)
	}
	if !ok {
		return Identity{}, fmt.Errorf("app %d: %w", appID, ErrNoCredential)
	}

	owner, err := record.OwnerID()
	if err != nil {
		cache.logger.Warn("cached ticket has an invalid owner offset", "app_id", appID, "error", err)
		return Identity{}, fmt.Errorf("app %d: %w", appID, err)
	}

	payload := record.Bytes()
	return Identity{
		Payload: payload,
		Offsets: record.Offsets,
		OwnerID: owner,
		Spoofed: true,
		Digest:  Sum(payload),
	}, nil
}

func (cache *Cache) observe(appID uint32, live []byte, offsets Offsets) Identity {
	identity := Identity{
		Payload: live,
		Offsets: offsets,
	}

	incoming, err := NewRecord(live, offsets)
	if err != nil {
		cache.logger.Warn("not caching ticket", "app_id", appID, "error", err)
		identity.Digest = Sum(live)
		return identity
	}
	identity.Digest = Sum(incoming.Bytes())

	if err := cache.Save(appID, live, offsets); err != nil {
		cache.logger.Warn("cannot cache ticket", "app_id", appID, "error", err)
	}
	return identity
}

// List returns the app ids with a cache file, in ascending order.
// A missing directory is an empty cache.
func (cache *Cache) List() ([]uint32, error) {
	entries, err := os.ReadDir(cache.directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing ticket cache: %w", err)
	}

	var ids []uint32
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		appID, ok := parseFileName(entry.Name())
		if ok {
			ids = append(ids, appID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func parseFileName(name string) (uint32, bool) {
	suffix, ok := strings.CutPrefix(name, filePrefix)
	if !ok {
		return 0, false
	}
	appID, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(appID), true
}

// writeFileAtomic writes data to a temporary file next to path, syncs
// it, and renames it over path. Readers see either the old file or the
// new one.
func writeFileAtomic(path string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	temporaryPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
