// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/safeupload/lib/atomicfile"
)

// Magic is the content that marks a token as signaled. A token matches
// only when its leading len(Magic) bytes equal Magic exactly.
const Magic = "TIME_TO_DIE"

// filePattern names tokens inside the shared directory. The "*" is
// replaced by os.CreateTemp with a random string.
const filePattern = "token-*"

// ErrTokenIO classifies failures to create, signal, read, or remove a
// termination token.
var ErrTokenIO = errors.New("termination token I/O")

// Create allocates a new token in directory, creating the directory if
// needed, and returns the token's absolute path. The file is created
// with O_EXCL, so concurrent callers sharing a directory never receive
// the same path.
func Create(directory string) (string, error) {
	absolute, err := filepath.Abs(directory)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %w", ErrTokenIO, directory, err)
	}
	if err := os.MkdirAll(absolute, 0755); err != nil {
		return "", fmt.Errorf("%w: creating token directory: %w", ErrTokenIO, err)
	}

	file, err := os.CreateTemp(absolute, filePattern)
	if err != nil {
		return "", fmt.Errorf("%w: creating token: %w", ErrTokenIO, err)
	}
	path := file.Name()
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: closing new token: %w", ErrTokenIO, err)
	}
	return path, nil
}

// Poll reports whether the token at path has been signaled. It never
// blocks: a missing token is simply not signaled.
func Poll(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: opening %s: %w", ErrTokenIO, path, err)
	}
	defer file.Close()

	contents := make([]byte, len(Magic))
	count, err := io.ReadFull(file, contents)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, fmt.Errorf("%w: reading %s: %w", ErrTokenIO, path, err)
	}
	return count == len(Magic) && bytes.Equal(contents, []byte(Magic)), nil
}

// Signal writes Magic into the token. Once this returns nil the relay
// reading the token will let its downstream finish: there is no way to
// take it back.
func Signal(path string) error {
	if err := atomicfile.Write(path, []byte(Magic), 0644); err != nil {
		return fmt.Errorf("%w: signaling: %w", ErrTokenIO, err)
	}
	return nil
}

// Remove deletes the token and any staging file a Signal left behind.
// A token that is already gone is not an error.
func Remove(path string) error {
	if err := atomicfile.Cleanup(path); err != nil {
		return fmt.Errorf("%w: removing: %w", ErrTokenIO, err)
	}
	return nil
}
