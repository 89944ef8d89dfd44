// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package ticket

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ErrBadArchive is returned by [Cache.Import] for input that is not a
// ticket archive or is damaged.
var ErrBadArchive = errors.New("not a valid ticket archive")

// Export writes every usable cached ticket to w as a zstd-compressed
// tar archive whose entries carry the cache file names. Empty and
// truncated files are skipped. Returns the number of tickets written.
func (cache *Cache) Export(w io.Writer) (int, error) {
	ids, err := cache.List()
	if err != nil {
		return 0, err
	}

	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, fmt.Errorf("creating zstd encoder: %w", err)
	}
	archive := tar.NewWriter(encoder)

	written := 0
	for _, appID := range ids {
		record, ok, err := cache.Load(appID)
		if err != nil {
			encoder.Close()
			return written, err
		}
		if !ok {
			continue
		}
		data := record.encode()
		header := &tar.Header{
			Name:     fileName(appID),
			Mode:     0o600,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}
		if err := archive.WriteHeader(header); err != nil {
			encoder.Close()
			return written, fmt.Errorf("writing archive header for %d: %w", appID, err)
		}
		if _, err := archive.Write(data); err != nil {
			encoder.Close()
			return written, fmt.Errorf("writing archive entry for %d: %w", appID, err)
		}
		written++
	}

	if err := archive.Close(); err != nil {
		encoder.Close()
		return written, fmt.Errorf("finishing archive: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return written, fmt.Errorf("finishing zstd stream: %w", err)
	}
	cache.logger.Info("exported tickets", "count", written)
	return written, nil
}

// Import reads an archive produced by [Cache.Export] and saves each
// ticket it holds, replacing any cached ticket for the same app.
// Entries with foreign names are skipped. Returns the imported app ids
// in archive order. Input that is not such an archive fails with
// ErrBadArchive.
func (cache *Cache) Import(r io.Reader) ([]uint32, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadArchive, err)
	}
	defer decoder.Close()

	archive := tar.NewReader(decoder)
	var imported []uint32
	for {
		header, err := archive.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("%w: %w", ErrBadArchive, err)
		}

		appID, ok := parseFileName(header.Name)
		if !ok || header.Typeflag != tar.TypeReg {
			cache.logger.Debug("skipping archive entry", "name", header.Name)
			continue
		}
		if header.Size != RecordSize {
			return imported, fmt.Errorf("%w: entry %s is %d bytes, want %d", ErrBadArchive, header.Name, header.Size, RecordSize)
		}

		data := make([]byte, RecordSize)
		if _, err := io.ReadFull(archive, data); err != nil {
			return imported, fmt.Errorf("%w: entry %s: %w", ErrBadArchive, header.Name, err)
		}
		var record Record
		if err := record.UnmarshalBinary(data); err != nil {
			return imported, fmt.Errorf("%w: %w", ErrBadArchive, err)
		}
		if err := cache.Save(appID, record.Bytes(), record.Offsets); err != nil {
			return imported, err
		}
		imported = append(imported, appID)
	}
	return imported, nil
}
