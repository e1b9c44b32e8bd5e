// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// TemporarySuffix is appended to the target path to name the staging
// file. A crashed writer can leave this file behind; Cleanup removes it.
const TemporarySuffix = ".tmp"

// Write stages data in path+TemporarySuffix, fsyncs it, and renames it
// over path. The parent directory must already exist.
func Write(path string, data []byte, mode os.FileMode) error {
	temporaryPath := path + TemporarySuffix

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", temporaryPath, err)
	}

	// Write, sync, close, in that order. Any failure removes the
	// staging file and reports the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing %s: %w", temporaryPath, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing %s: %w", temporaryPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing %s: %w", temporaryPath, err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming %s into place: %w", filepath.Base(path), err)
	}

	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}

// Cleanup removes path and any staging file left next to it. Files
// that do not exist are not an error.
func Cleanup(path string) error {
	var firstErr error
	for _, candidate := range []string{path, path + TemporarySuffix} {
		if err := os.Remove(candidate); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
