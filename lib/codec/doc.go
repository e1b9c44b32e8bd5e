// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration for the small
// state files safeupload leaves on disk, such as the relay receipt.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items. The
// same receipt always produces identical bytes.
//
//	data, err := codec.Marshal(receipt)
//	err = codec.Unmarshal(data, &receipt)
package codec
