// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for safeupload packages.
//
// [RequireReceive] and [RequireClosed] bound every wait on a relay
// result or a process exit, so a stuck child fails the test instead of
// hanging it.
//
// [WriteScript] writes an executable /bin/sh script into a test's
// temporary directory. Tests use scripts as stand-ins for the upload
// tool and for producers whose exit status they control.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
