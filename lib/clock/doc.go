// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by every poll
// loop in safeupload.
//
// The relay and the orchestrator never call time.Sleep or time.After
// directly. They take a Clock, which is Real() in production and
// Fake() in tests, so that a test can drive a poll loop one interval
// at a time:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop(c)
//	c.WaitForTimers(1)          // loop is parked on its interval
//	c.Advance(250 * time.Millisecond)
//
// WaitForTimers removes the race between a goroutine registering its
// wait and the test advancing time.
package clock
