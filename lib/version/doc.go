// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which safeupload build is running, so that an
// operator reading a failed upload's log can tell which relay and CLI
// produced it.
//
// Release builds inject the commit and time with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/safeupload/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Without them [Current] uses the VCS stamp recorded by the Go
// toolchain, and reports "unknown" in test binaries, which carry none.
package version
