// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safeupload/lib/logging"
	"github.com/bureau-foundation/safeupload/lib/version"
)

// Exit codes of the relay binary.
const (
	ExitTerminated = 0
	ExitIOFault    = 1
	ExitUsage      = 2
)

// commandConfig is the parsed command line.
type commandConfig struct {
	tokenPath    string
	pollInterval time.Duration
	blockSize    int
	receiptPath  string
	logLevel     string
	noWatch      bool
	showVersion  bool
}

// Main runs the relay binary: it forwards stdin to stdout until the
// termination token named by its single positional argument is
// signaled. The return value is the process exit code.
//
//	safeupload-relay [--interval 250ms] [--receipt PATH] <token-path>
func Main(args []string, stdin, stdout *os.File, stderr io.Writer) int {
	config, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "safeupload-relay: %v\n", err)
		return ExitUsage
	}
	if config.showVersion {
		fmt.Fprintf(stderr, "safeupload-relay %s\n", version.Current())
		return ExitTerminated
	}

	logger, err := logging.New(logging.Options{Level: config.logLevel, Output: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "safeupload-relay: %v\n", err)
		return ExitUsage
	}
	logger = logger.With("component", "relay", "token", config.tokenPath)

	// A closed upload tool must surface as EPIPE from write rather
	// than as a silent death by SIGPIPE.
	signal.Ignore(syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	relay, err := New(Config{
		TokenPath:    config.tokenPath,
		PollInterval: config.pollInterval,
		BlockSize:    config.blockSize,
		ReceiptPath:  config.receiptPath,
		Watch:        !config.noWatch,
		Logger:       logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "safeupload-relay: %v\n", err)
		return ExitUsage
	}

	if _, err := relay.Run(ctx, stdin, stdout); err != nil {
		if errors.Is(err, ErrBrokenPipe) {
			logger.Error("downstream closed before termination", "error", err)
		} else {
			logger.Error("relay failed", "error", err)
		}
		return ExitIOFault
	}
	return ExitTerminated
}

// parseArgs parses the relay command line. Exactly one positional
// argument, the token path, is required.
func parseArgs(args []string) (commandConfig, error) {
	var config commandConfig

	flagSet := pflag.NewFlagSet("safeupload-relay", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.DurationVar(&config.pollInterval, "interval", DefaultPollInterval, "wait between token polls after an empty read")
	flagSet.IntVar(&config.blockSize, "block-size", DefaultBlockSize, "largest chunk read from stdin at once")
	flagSet.StringVar(&config.receiptPath, "receipt", "", "write a CBOR receipt (byte count and BLAKE3 digest) here on success")
	flagSet.StringVar(&config.logLevel, "log-level", "info", "debug, info, warn, or error")
	flagSet.BoolVar(&config.noWatch, "no-watch", false, "poll the token only on the interval, without inotify")
	flagSet.BoolVar(&config.showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		return config, err
	}
	if config.showVersion {
		return config, nil
	}

	positional := flagSet.Args()
	switch len(positional) {
	case 0:
		return config, fmt.Errorf("usage: safeupload-relay [flags] <token-path>\n\n" +
			"This binary is spawned by the upload orchestrator. It is not intended for direct use.")
	case 1:
		if positional[0] == "" {
			return config, fmt.Errorf("token path is empty")
		}
		config.tokenPath = positional[0]
	default:
		return config, fmt.Errorf("expected one token path, got %d arguments", len(positional))
	}

	if config.pollInterval <= 0 {
		return config, fmt.Errorf("--interval must be positive, got %v", config.pollInterval)
	}
	if config.blockSize <= 0 {
		return config, fmt.Errorf("--block-size must be positive, got %d", config.blockSize)
	}
	return config, nil
}
