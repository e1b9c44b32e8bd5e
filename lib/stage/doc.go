// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stage implements the streaming filter that can sit at the end
// of a producer pipeline: it compresses with zstd or LZ4 and optionally
// encrypts to age X25519 recipients before the bytes reach the relay.
//
// Compression runs before encryption, since ciphertext does not
// compress. [Filter] applies both in one pass and [Reverse] undoes them,
// so an uploaded object can be restored with the same package.
//
// The filter runs as its own process ("safeupload stage") so that its
// failure is a producer failure like any other and blocks the commit.
package stage
