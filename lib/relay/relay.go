// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/safeupload/lib/clock"
	"github.com/bureau-foundation/safeupload/lib/token"
)

const (
	// DefaultPollInterval is how long the relay waits after an empty
	// read before probing downstream and polling the token.
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultBlockSize is the largest chunk read from input at once.
	DefaultBlockSize = 262144
)

// ErrBrokenPipe reports that the relay's downstream reader has gone
// away.
var ErrBrokenPipe = errors.New("downstream closed")

// Config configures a Relay.
type Config struct {
	// TokenPath is the termination token to poll. Required.
	TokenPath string

	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration

	// BlockSize defaults to DefaultBlockSize.
	BlockSize int

	// ReceiptPath, when set, receives the CBOR receipt just before Run
	// returns successfully.
	ReceiptPath string

	// Watch wakes the relay as soon as the token changes instead of at
	// the end of its current poll interval.
	Watch bool

	Clock  clock.Clock
	Logger *slog.Logger
}

// Relay forwards bytes until its termination token is signaled.
type Relay struct {
	tokenPath    string
	pollInterval time.Duration
	blockSize    int
	receiptPath  string
	watch        bool
	clock        clock.Clock
	logger       *slog.Logger
}

// New validates config and applies defaults.
func New(config Config) (*Relay, error) {
	if config.TokenPath == "" {
		return nil, fmt.Errorf("relay: token path is required")
	}
	if config.PollInterval < 0 {
		return nil, fmt.Errorf("relay: negative poll interval %v", config.PollInterval)
	}
	if config.BlockSize < 0 {
		return nil, fmt.Errorf("relay: negative block size %d", config.BlockSize)
	}

	relay := &Relay{
		tokenPath:    config.TokenPath,
		pollInterval: config.PollInterval,
		blockSize:    config.BlockSize,
		receiptPath:  config.ReceiptPath,
		watch:        config.Watch,
		clock:        config.Clock,
		logger:       config.Logger,
	}
	if relay.pollInterval == 0 {
		relay.pollInterval = DefaultPollInterval
	}
	if relay.blockSize == 0 {
		relay.blockSize = DefaultBlockSize
	}
	if relay.clock == nil {
		relay.clock = clock.Real()
	}
	if relay.logger == nil {
		relay.logger = slog.New(slog.DiscardHandler)
	}
	return relay, nil
}

// Run copies input to output until the token is signaled, then returns
// the receipt of everything forwarded. It returns an error wrapping
// ErrBrokenPipe if the downstream goes away, any other read, write, or
// token error as is, and ctx.Err() if ctx ends first.
func (r *Relay) Run(ctx context.Context, input io.Reader, output io.Writer) (Receipt, error) {
	hasher := blake3.New()
	var forwarded int64
	receipt := func() Receipt {
		result := Receipt{Bytes: forwarded}
		hasher.Sum(result.Digest[:0])
		return result
	}

	var wake <-chan struct{}
	if r.watch {
		changed, stop, err := token.Watch(r.tokenPath)
		if err != nil {
			r.logger.Debug("token watch unavailable, polling only", "token", r.tokenPath, "error", err)
		} else {
			defer stop()
			wake = changed
		}
	}

	buffer := make([]byte, r.blockSize)
	for {
		if err := ctx.Err(); err != nil {
			return receipt(), err
		}

		count, readErr := input.Read(buffer)
		if count > 0 {
			if err := writeChunk(output, buffer[:count]); err != nil {
				return receipt(), err
			}
			hasher.Write(buffer[:count])
			forwarded += int64(count)
			continue
		}
		if readErr != nil && readErr != io.EOF {
			return receipt(), fmt.Errorf("reading input: %w", readErr)
		}

		// Empty read: the producers are slow or finished. Wait, make
		// sure someone is still listening, and ask whether we may stop.
		select {
		case <-ctx.Done():
			return receipt(), ctx.Err()
		case <-wake:
			wake = nil
		case <-r.clock.After(r.pollInterval):
		}

		if err := probe(output); err != nil {
			return receipt(), err
		}

		signaled, err := token.Poll(r.tokenPath)
		if err != nil {
			return receipt(), err
		}
		if signaled {
			result := receipt()
			r.logger.Info("termination token confirmed",
				"token", r.tokenPath,
				"bytes", result.Bytes,
				"digest", result.DigestHex(),
			)
			r.writeReceipt(result)
			return result, nil
		}
	}
}

// writeReceipt records the receipt when configured. A failure here is
// logged and ignored: the token is already signaled, so the upload is
// committed no matter what the receipt says.
func (r *Relay) writeReceipt(receipt Receipt) {
	if r.receiptPath == "" {
		return
	}
	if err := WriteReceipt(r.receiptPath, receipt); err != nil {
		r.logger.Warn("writing receipt failed", "path", r.receiptPath, "error", err)
	}
}

// writeChunk writes data in full. io.Writer already requires a short
// write to return an error, but a misbehaving writer is still caught
// here rather than silently dropping bytes.
func writeChunk(output io.Writer, data []byte) error {
	written, err := output.Write(data)
	if err != nil {
		return classifyWriteError(err)
	}
	if written != len(data) {
		return fmt.Errorf("writing output: %w", io.ErrShortWrite)
	}
	return nil
}
