// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay implements the byte relay that sits between the
// producers of an upload and the upload tool.
//
// The relay copies its input to its output verbatim. It does not stop
// when its input reaches end of file: producers can be slow, and the
// upload tool must not see end of input until the orchestrator has
// decided the upload may complete. The decision arrives out of band,
// through a termination token (see lib/token). Each time a read comes
// back empty the relay waits one poll interval, probes its downstream,
// and polls the token. Only a token holding the magic string lets
// [Relay.Run] return successfully; the relay process then exits 0,
// closing the upload tool's input.
//
// The downstream probe is a zero-length write followed, for file
// outputs, by a zero-timeout poll(2) for POLLERR/POLLHUP. Linux treats
// a zero-length write to a pipe as a no-op even when the reader is
// gone, so the poll is what actually reports a closed upload tool on
// that platform. Either way a closed downstream becomes
// [ErrBrokenPipe] and a non-zero exit, which the orchestrator sees on
// its next health check instead of hanging.
//
// Every forwarded byte is counted and hashed with BLAKE3. When
// configured, the relay writes that [Receipt] to disk just before it
// exits successfully.
package relay
