// Copyright 2026 The slscore Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestStoreReplace(t *testing.T) {
	store := NewStore(nil)
	initial := store.Load()
	if initial == nil || !initial.DisableFamilyShareLock {
		t.Fatal("new store should hold the default snapshot")
	}

	next, _ := Parse([]byte("UseWhitelist: true\n"))
	previous := store.Replace(next)
	if previous != initial {
		t.Error("Replace should return the previous snapshot")
	}
	if !store.Load().UseWhitelist {
		t.Error("Load should observe the new snapshot")
	}
	if initial.UseWhitelist {
		t.Error("the previous snapshot must not change")
	}
}

func TestStoreConcurrentReaders(t *testing.T) {
	store := NewStore(nil)
	whitelist, _ := Parse([]byte("UseWhitelist: true\nAppIds: [1]\n"))
	blacklist, _ := Parse([]byte("UseWhitelist: false\nAppIds: [2]\n"))

	var workers sync.WaitGroup
	for range 8 {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for range 1000 {
				snapshot := store.Load()
				// Each snapshot is internally consistent.
				if snapshot.UseWhitelist && snapshot.AppIDs.Contains(2) {
					t.Error("observed a mixed snapshot")
					return
				}
			}
		}()
	}
	for index := range 1000 {
		if index%2 == 0 {
			store.Replace(whitelist)
		} else {
			store.Replace(blacklist)
		}
	}
	workers.Wait()
}

func TestEnsureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	created, err := EnsureFile(path)
	if err != nil {
		t.Fatalf("EnsureFile: %v", err)
	}
	if !created {
		t.Error("first call should create the file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(DefaultDocument()) {
		t.Error("file content should be the default document")
	}

	if err := os.WriteFile(path, []byte("SafeMode: yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	created, err = EnsureFile(path)
	if err != nil {
		t.Fatalf("EnsureFile second call: %v", err)
	}
	if created {
		t.Error("existing file should be left alone")
	}
	data, _ = os.ReadFile(path)
	if string(data) != "SafeMode: yes\n" {
		t.Error("existing file was overwritten")
	}
}

func TestDirHonorsXDGConfigHome(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)
	if got, want := Dir(), filepath.Join(root, DirName); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
	if got, want := Path(), filepath.Join(root, DirName, FileName); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestDirFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)
	if got, want := Dir(), filepath.Join(home, ".config", DirName); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestValueFallsBackWithoutStore(t *testing.T) {
	level := func(s *Settings) uint { return s.LogLevel }
	if got := Value(nil, level, 6); got != 6 {
		t.Errorf("Value(nil) = %d, want the fallback", got)
	}

	configured, _ := Parse([]byte("LogLevel: 4\n"))
	if got := Value(NewStore(configured), level, 6); got != 4 {
		t.Errorf("Value = %d, want the snapshot value", got)
	}
}
