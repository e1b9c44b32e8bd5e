// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReplacesContents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Write(path, []byte("new contents"), 0600); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "new contents" {
		t.Errorf("contents = %q, want %q", data, "new contents")
	}

	if _, err := os.Stat(path + TemporarySuffix); !os.IsNotExist(err) {
		t.Errorf("staging file should not exist after Write, stat error: %v", err)
	}
}

func TestWriteCreatesWithMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh")
	if err := Write(path, []byte("x"), 0600); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "target")
	if err := Write(path, []byte("x"), 0600); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestCleanup(t *testing.T) {
	directory := t.TempDir()
	path := filepath.Join(directory, "target")
	for _, name := range []string{path, path + TemporarySuffix} {
		if err := os.WriteFile(name, []byte("x"), 0600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	if err := Cleanup(path); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("directory has %d entries after Cleanup, want 0", len(entries))
	}

	// A second cleanup finds nothing and still succeeds.
	if err := Cleanup(path); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
}
