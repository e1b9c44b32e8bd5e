// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package token implements the termination token: a one-shot,
// file-based signal that tells a relay it may finish.
//
// The relay and the orchestrator are siblings joined only by the data
// pipe that carries the upload payload. That pipe cannot carry a
// control message without corrupting the payload, so the "you may
// finish" message travels through a file in a shared directory
// instead.
//
// A token moves through created -> (unsignaled, polled) -> signaled ->
// removed. [Create] allocates a uniquely named empty file, [Poll]
// reports whether it holds exactly [Magic], [Signal] writes [Magic]
// (the commit point of an upload), and [Remove] deletes it. [Watch]
// lets a poller wake as soon as the token is signaled instead of
// waiting out its poll interval.
package token
