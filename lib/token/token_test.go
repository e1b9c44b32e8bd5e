// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/safeupload/lib/testutil"
)

func TestCreateMakesDirectoryAndEmptyToken(t *testing.T) {
	directory := filepath.Join(t.TempDir(), "repeater_lock_dir")

	path, err := Create(directory)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if filepath.Dir(path) != directory {
		t.Errorf("token %s is not inside %s", path, directory)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("token path %q is not absolute", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("new token has %d bytes, want 0", info.Size())
	}

	signaled, err := Poll(path)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if signaled {
		t.Error("a freshly created token must not read as signaled")
	}
}

func TestCreateConcurrentTokensAreUnique(t *testing.T) {
	directory := t.TempDir()
	const workers = 64

	paths := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			paths[i], errs[i] = Create(directory)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	for i := range paths {
		if errs[i] != nil {
			t.Fatalf("Create[%d]: %v", i, errs[i])
		}
		if seen[paths[i]] {
			t.Fatalf("token %s allocated twice", paths[i])
		}
		seen[paths[i]] = true
	}
}

func TestCreateFailsWhenDirectoryIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Create(blocker)
	if !errors.Is(err, ErrTokenIO) {
		t.Fatalf("Create error = %v, want ErrTokenIO", err)
	}
}

func TestPoll(t *testing.T) {
	tests := []struct {
		name     string
		contents *string
		want     bool
	}{
		{name: "missing token", contents: nil, want: false},
		{name: "empty token", contents: ptr(""), want: false},
		{name: "truncated magic", contents: ptr("TIME_TO_DI"), want: false},
		{name: "exact magic", contents: ptr("TIME_TO_DIE"), want: true},
		{name: "magic with trailing bytes", contents: ptr("TIME_TO_DIE\n"), want: true},
		{name: "shifted magic", contents: ptr("xTIME_TO_DIE"), want: false},
		{name: "wrong case", contents: ptr("time_to_die"), want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token")
			if test.contents != nil {
				if err := os.WriteFile(path, []byte(*test.contents), 0644); err != nil {
					t.Fatalf("WriteFile: %v", err)
				}
			}

			got, err := Poll(path)
			if err != nil {
				t.Fatalf("Poll: %v", err)
			}
			if got != test.want {
				t.Errorf("Poll() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestPollUnreadableToken(t *testing.T) {
	// A directory where the token should be is an I/O failure, not
	// "not yet signaled".
	path := filepath.Join(t.TempDir(), "token")
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	_, err := Poll(path)
	if !errors.Is(err, ErrTokenIO) {
		t.Fatalf("Poll error = %v, want ErrTokenIO", err)
	}
}

func TestSignalThenRemove(t *testing.T) {
	path, err := Create(t.TempDir())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := Signal(path); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	signaled, err := Poll(path)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !signaled {
		t.Fatal("token should read as signaled after Signal")
	}

	if err := Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("token still exists after Remove (stat error: %v)", err)
	}

	// Removing twice is harmless.
	if err := Remove(path); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestSignalIntoMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone", "token")
	if err := Signal(path); !errors.Is(err, ErrTokenIO) {
		t.Fatalf("Signal error = %v, want ErrTokenIO", err)
	}
}

func TestWatchFiresOnSignal(t *testing.T) {
	path, err := Create(t.TempDir())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed, cleanup, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cleanup()

	if err := Signal(path); err != nil {
		t.Fatalf("Signal: %v", err)
	}

	testutil.RequireClosed(t, changed, 5*time.Second, "waiting for token watch to fire")
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	directory := t.TempDir()
	path, err := Create(directory)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed, cleanup, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer cleanup()

	other, err := Create(directory)
	if err != nil {
		t.Fatalf("Create other: %v", err)
	}
	if err := Signal(other); err != nil {
		t.Fatalf("Signal other: %v", err)
	}

	select {
	case <-changed:
		t.Fatal("watch fired for a different token")
	case <-time.After(300 * time.Millisecond): //nolint:realclock negative check window
	}

	cleanup()
	cleanup()
}

func TestEventsName(t *testing.T) {
	// One event for "other" followed by one for "token-abc", each with
	// a null-padded name as the kernel writes them.
	buffer := append(rawEvent("other", 16), rawEvent("token-abc", 16)...)

	if !eventsName(buffer, "token-abc") {
		t.Error("eventsName did not find token-abc")
	}
	if eventsName(buffer, "token") {
		t.Error("eventsName matched a prefix of a name")
	}
	if eventsName(buffer[:10], "other") {
		t.Error("eventsName matched inside a truncated event")
	}
}

func rawEvent(name string, padded int) []byte {
	event := make([]byte, 16+padded)
	event[12] = byte(padded)
	copy(event[16:], name)
	return event
}

func ptr(s string) *string { return &s }
