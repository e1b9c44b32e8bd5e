// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"
)

// RequireReceive returns the next value sent on ch, failing the test if
// none arrives within timeout or ch is closed first. what names the
// awaited event in the failure message.
//
//	result := testutil.RequireReceive(t, results, 5*time.Second, "relay exit")
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed without a value", what)
		}
		return value
	case <-timer.C:
		t.Fatalf("%s: nothing received after %v", what, timeout)
		panic("unreachable")
	}
}

// RequireClosed waits for ch to be closed, as procgroup.Handle.Done is
// when the process has been reaped, failing the test after timeout.
//
//	testutil.RequireClosed(t, handle.Done(), 5*time.Second, "uploader exit")
func RequireClosed(t testing.TB, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("%s: still open after %v", what, timeout)
	}
}
