// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package procgroup observes and tears down named sets of OS processes.
//
// A [Group] maps a logical name ("tar", "relay", "uploader") to a
// [Process]. The package never blocks on a process: [Handle] reaps its
// command in a background goroutine and [Handle.Status] reports the
// last known state, so a single poll loop can watch several groups at
// once.
//
// [CheckAllSucceeded] is the health check. It returns true once every
// member has exited successfully and returns an [*ExitError] as soon as
// any member has exited with a non-zero status; callers treat that
// error as fatal and stop polling.
//
// [Kill] is the fail-safe teardown. It signals every member that is
// still running, swallows every error (a process can exit between the
// liveness check and the kill), and is safe to call any number of
// times. The upload orchestrator uses it on its own relay and uploader;
// callers use it on their producers.
//
// [SharedOutput] gives several children and a log handler one stderr
// without a data race on the destination.
package procgroup
