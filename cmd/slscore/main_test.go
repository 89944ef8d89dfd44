// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slscore/slscore/cmd/slscore/cli"
	"github.com/slscore/slscore/lib/codec"
	"github.com/slscore/slscore/lib/diag"
	"github.com/slscore/slscore/lib/settings"
	"github.com/slscore/slscore/lib/ticket"
)

const testDocument = `
UseWhitelist: true
AppIds: [10, 100]
AdditionalApps: [20]
DlcData:
  100:
    101: "First"
    102: "Second"
DenuvoGames:
  5555: [10]
`

type harness struct {
	t        *testing.T
	config   string
	cacheDir string
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	ctx      context.Context
}

func newHarness(t *testing.T, document string) *harness {
	t.Helper()
	directory := t.TempDir()
	h := &harness{
		t:        t,
		config:   filepath.Join(directory, "config.yaml"),
		cacheDir: filepath.Join(directory, "cache"),
		ctx:      context.Background(),
	}
	if document != "" {
		if err := os.WriteFile(h.config, []byte(document), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return h
}

// run executes the CLI with the harness paths appended after the
// command words.
func (h *harness) run(words []string, args ...string) error {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	application := newApp(h.ctx, &h.stdout, &h.stderr)
	full := append([]string{}, words...)
	full = append(full, "--config", h.config, "--cache-dir", h.cacheDir)
	full = append(full, args...)
	return application.root().Execute(full)
}

func TestInitWritesDefaultDocument(t *testing.T) {
	h := newHarness(t, "")
	if err := h.run([]string{"init"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "created") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
	data, err := os.ReadFile(h.config)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, settings.DefaultDocument()) {
		t.Error("init did not write the default document")
	}

	if err := h.run([]string{"init"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.stdout.String(), "already exists") {
		t.Errorf("second init stdout = %q", h.stdout.String())
	}
}

func TestCheck(t *testing.T) {
	h := newHarness(t, testDocument)
	if err := h.run([]string{"check"}, "--json", "10", "20", "30"); err != nil {
		t.Fatalf("check: %v", err)
	}
	var results []checkResult
	if err := json.Unmarshal(h.stdout.Bytes(), &results); err != nil {
		t.Fatalf("decoding %q: %v", h.stdout.String(), err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Exclude || results[0].Rule != "whitelist" || !results[0].Listed {
		t.Errorf("app 10 = %+v", results[0])
	}
	if results[1].Exclude || results[1].Rule != "additional" {
		t.Errorf("app 20 = %+v", results[1])
	}
	if !results[2].Exclude {
		t.Errorf("app 30 = %+v, want excluded", results[2])
	}

	if err := h.run([]string{"check"}, "10"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.stdout.String(), "include") {
		t.Errorf("table output = %q", h.stdout.String())
	}
}

func TestCheckRejectsBadAppID(t *testing.T) {
	h := newHarness(t, testDocument)
	err := h.run([]string{"check"}, "not-a-number")
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) || toolError.Category != cli.CategoryValidation {
		t.Fatalf("error = %v, want a validation error", err)
	}
}

func TestOwner(t *testing.T) {
	h := newHarness(t, testDocument)
	if err := h.run([]string{"owner"}, "10", "11"); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "5555") {
		t.Errorf("stdout = %q", h.stdout.String())
	}

	err := h.run([]string{"owner"}, "11")
	var exit *cli.ExitError
	if !errors.As(err, &exit) || exit.Code != 3 {
		t.Errorf("error = %v, want exit 3 when no app has an owner", err)
	}
}

func TestDlc(t *testing.T) {
	h := newHarness(t, testDocument)
	if err := h.run([]string{"dlc"}, "--json", "100"); err != nil {
		t.Fatalf("dlc: %v", err)
	}
	var entries []dlcEntry
	if err := json.Unmarshal(h.stdout.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Name != "First" || !entries[0].Available {
		t.Errorf("entries = %+v", entries)
	}

	err := h.run([]string{"dlc"}, "999")
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) || toolError.Category != cli.CategoryNotFound {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestTicketImportShowExportRestore(t *testing.T) {
	h := newHarness(t, testDocument)

	raw := make([]byte, 40)
	binary.LittleEndian.PutUint32(raw[4:], 440)
	binary.LittleEndian.PutUint32(raw[12:], 87654321)
	raw[39] = 1
	rawPath := filepath.Join(t.TempDir(), "ticket.bin")
	if err := os.WriteFile(rawPath, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := h.run([]string{"ticket", "import"}, "--app-offset", "4", "--owner-offset", "12", "440", rawPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := h.run([]string{"ticket", "show"}, "--json", "440"); err != nil {
		t.Fatalf("show: %v", err)
	}
	var summary struct {
		Length   int    `json:"length"`
		Embedded uint32 `json:"embedded_app_id"`
		Owner    uint32 `json:"owner_id"`
		Digest   string `json:"digest"`
	}
	if err := json.Unmarshal(h.stdout.Bytes(), &summary); err != nil {
		t.Fatalf("decoding %q: %v", h.stdout.String(), err)
	}
	if summary.Length != 40 || summary.Embedded != 440 || summary.Owner != 87654321 || len(summary.Digest) != 64 {
		t.Errorf("summary = %+v", summary)
	}

	if err := h.run([]string{"ticket", "list"}); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(h.stdout.String()) != "440" {
		t.Errorf("list = %q", h.stdout.String())
	}

	archive := filepath.Join(t.TempDir(), "tickets.tar.zst")
	if err := h.run([]string{"ticket", "export"}, "--output", archive); err != nil {
		t.Fatalf("export: %v", err)
	}

	restored := newHarness(t, testDocument)
	if err := restored.run([]string{"ticket", "restore"}, archive); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := restored.run([]string{"ticket", "show"}, "440"); err != nil {
		t.Fatalf("show after restore: %v", err)
	}
}

func TestTicketRestoreRejectsForeignArchive(t *testing.T) {
	h := newHarness(t, testDocument)
	bogus := filepath.Join(t.TempDir(), "bogus.tar.zst")
	if err := os.WriteFile(bogus, []byte("definitely not zstd"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := h.run([]string{"ticket", "restore"}, bogus)
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) || toolError.Category != cli.CategoryValidation {
		t.Fatalf("error = %v, want a validation error", err)
	}
	if toolError.ExitCode() != 2 {
		t.Errorf("exit code = %d, want 2", toolError.ExitCode())
	}
}

func TestTicketExportReportsWriteFailure(t *testing.T) {
	h := newHarness(t, testDocument)
	missing := filepath.Join(t.TempDir(), "no-such-dir", "tickets.tar.zst")
	err := h.run([]string{"ticket", "export"}, "--output", missing)
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) || toolError.Category != cli.CategoryInternal {
		t.Fatalf("error = %v, want an internal error", err)
	}
	if strings.Contains(h.stdout.String(), "exported") {
		t.Errorf("export reported success: %q", h.stdout.String())
	}
}

func TestExportToFileWritesCompleteArchive(t *testing.T) {
	directory := t.TempDir()
	source := ticket.New(filepath.Join(directory, "source"), diag.Discard(), nil)
	if err := source.Save(440, []byte{1, 2, 3}, ticket.Offsets{}); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(directory, "tickets.tar.zst")
	count, err := exportToFile(source, archive)
	if err != nil || count != 1 {
		t.Fatalf("exportToFile = %d, %v", count, err)
	}

	file, err := os.Open(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	destination := ticket.New(filepath.Join(directory, "destination"), diag.Discard(), nil)
	if ids, err := destination.Import(file); err != nil || len(ids) != 1 || ids[0] != 440 {
		t.Errorf("Import = %v, %v", ids, err)
	}
}

func TestTicketShowMissing(t *testing.T) {
	h := newHarness(t, testDocument)
	err := h.run([]string{"ticket", "show"}, "1")
	var toolError *cli.ToolError
	if !errors.As(err, &toolError) || toolError.Category != cli.CategoryNotFound {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestTicketImportTooLarge(t *testing.T) {
	h := newHarness(t, testDocument)
	rawPath := filepath.Join(t.TempDir(), "big.bin")
	if err := os.WriteFile(rawPath, make([]byte, 2000), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.run([]string{"ticket", "import"}, "5", rawPath); err == nil {
		t.Error("oversized ticket accepted")
	}
}

func TestDumpFormats(t *testing.T) {
	h := newHarness(t, testDocument)

	if err := h.run([]string{"dump"}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	var snapshot settings.Snapshot
	if err := json.Unmarshal(h.stdout.Bytes(), &snapshot); err != nil {
		t.Fatal(err)
	}
	if !snapshot.UseWhitelist || len(snapshot.DlcData) != 1 {
		t.Errorf("snapshot = %+v", snapshot)
	}

	if err := h.run([]string{"dump"}, "--format", "cbor"); err != nil {
		t.Fatalf("dump cbor: %v", err)
	}
	first := bytes.Clone(h.stdout.Bytes())
	var decoded settings.Snapshot
	if err := codec.Unmarshal(first, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.AppIDs[1] != 100 {
		t.Errorf("decoded AppIDs = %v", decoded.AppIDs)
	}
	if err := h.run([]string{"dump"}, "--format", "cbor"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, h.stdout.Bytes()) {
		t.Error("CBOR dump is not deterministic")
	}

	if err := h.run([]string{"dump"}, "--format", "yaml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	h := newHarness(t, testDocument)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.ctx = ctx
	if err := h.run([]string{"watch"}); err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	application := newApp(context.Background(), &stdout, &stderr)
	if err := application.root().Execute([]string{"version"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout.String(), "slscore ") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
