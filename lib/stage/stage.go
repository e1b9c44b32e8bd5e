// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names a stream compression algorithm. The values are the
// names accepted on command lines and in job files.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// ParseCompression parses a compression name. The empty string is
// CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch Compression(strings.ToLower(name)) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd:
		return CompressionZstd, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, zstd, or lz4)", name)
	}
}

// Extension returns the conventional file suffix for the compression,
// or "" for none.
func (c Compression) Extension() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseRecipients parses age public keys (age1...). An empty list means
// no encryption.
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// ParseIdentities reads age identity lines (AGE-SECRET-KEY-1...) from
// r, ignoring blank lines and # comments.
func ParseIdentities(r io.Reader) ([]age.Identity, error) {
	identities, err := age.ParseIdentities(r)
	if err != nil {
		return nil, fmt.Errorf("parsing identities: %w", err)
	}
	return identities, nil
}

// Options selects what Filter applies.
type Options struct {
	Compression Compression
	Recipients  []age.Recipient
}

// Active reports whether the options change the stream at all.
func (o Options) Active() bool {
	return (o.Compression != "" && o.Compression != CompressionNone) || len(o.Recipients) > 0
}

// Filter copies src to dst through the configured compression and
// encryption, and returns the number of bytes read from src. dst
// receives a complete, finalized stream only if Filter returns nil.
func Filter(dst io.Writer, src io.Reader, options Options) (int64, error) {
	var closers []io.Closer
	sink := dst

	if len(options.Recipients) > 0 {
		encryptor, err := age.Encrypt(sink, options.Recipients...)
		if err != nil {
			return 0, fmt.Errorf("creating age encryptor: %w", err)
		}
		sink = encryptor
		closers = append(closers, encryptor)
	}

	switch options.Compression {
	case "", CompressionNone:
	case CompressionZstd:
		encoder, err := zstd.NewWriter(sink, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return 0, fmt.Errorf("creating zstd encoder: %w", err)
		}
		sink = encoder
		closers = append(closers, encoder)
	case CompressionLZ4:
		encoder := lz4.NewWriter(sink)
		sink = encoder
		closers = append(closers, encoder)
	default:
		return 0, fmt.Errorf("unsupported compression %q", options.Compression)
	}

	copied, err := io.Copy(sink, src)
	if err != nil {
		return copied, fmt.Errorf("filtering stream: %w", err)
	}

	// Innermost writer first: the compressor flushes into the
	// encryptor, which then writes its final chunk.
	for index := len(closers) - 1; index >= 0; index-- {
		if err := closers[index].Close(); err != nil {
			return copied, fmt.Errorf("finalizing stream: %w", err)
		}
	}
	return copied, nil
}

// ReverseOptions selects what Reverse undoes.
type ReverseOptions struct {
	Compression Compression
	Identities  []age.Identity
}

// Reverse copies src to dst, decrypting with the identities (when any
// are given) and then decompressing. It returns the number of bytes
// written to dst.
func Reverse(dst io.Writer, src io.Reader, options ReverseOptions) (int64, error) {
	source := src

	if len(options.Identities) > 0 {
		decrypted, err := age.Decrypt(source, options.Identities...)
		if err != nil {
			return 0, fmt.Errorf("decrypting: %w", err)
		}
		source = decrypted
	}

	switch options.Compression {
	case "", CompressionNone:
	case CompressionZstd:
		decoder, err := zstd.NewReader(source)
		if err != nil {
			return 0, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer decoder.Close()
		source = decoder
	case CompressionLZ4:
		source = lz4.NewReader(source)
	default:
		return 0, fmt.Errorf("unsupported compression %q", options.Compression)
	}

	written, err := io.Copy(dst, source)
	if err != nil {
		return written, fmt.Errorf("reversing stream: %w", err)
	}
	return written, nil
}
