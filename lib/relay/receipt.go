// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/bureau-foundation/safeupload/lib/atomicfile"
	"github.com/bureau-foundation/safeupload/lib/codec"
)

// Receipt summarizes what a relay forwarded: the byte count and the
// BLAKE3-256 digest of the bytes, in order.
type Receipt struct {
	Bytes  int64    `cbor:"bytes"`
	Digest [32]byte `cbor:"digest"`
}

// DigestHex returns the digest as lowercase hex.
func (r Receipt) DigestHex() string {
	return hex.EncodeToString(r.Digest[:])
}

// Diagnostic returns the receipt's on-disk CBOR in diagnostic notation,
// for example {"bytes": 5, "digest": h'...'}.
func (r Receipt) Diagnostic() (string, error) {
	data, err := codec.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding receipt: %w", err)
	}
	return codec.Diagnose(data)
}

// WriteReceipt atomically writes receipt to path as CBOR.
func WriteReceipt(path string, receipt Receipt) error {
	data, err := codec.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encoding receipt: %w", err)
	}
	return atomicfile.Write(path, data, 0644)
}

// ReadReceipt reads a receipt written by WriteReceipt. A missing file
// returns an error wrapping os.ErrNotExist.
func ReadReceipt(path string) (Receipt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Receipt{}, err
	}
	var receipt Receipt
	if err := codec.Unmarshal(data, &receipt); err != nil {
		return Receipt{}, fmt.Errorf("decoding receipt %s: %w", path, err)
	}
	return receipt, nil
}
