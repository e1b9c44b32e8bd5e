// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safeupload/lib/stage"
)

// stageFlags is the parsed "stage" command line.
type stageFlags struct {
	compression  stage.Compression
	recipients   []string
	reverse      bool
	identityPath string
}

func parseStage(args []string) (stageFlags, error) {
	var flags stageFlags
	var compression string

	flagSet := pflag.NewFlagSet("stage", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&compression, "compress", "", "none, zstd, or lz4")
	flagSet.StringArrayVar(&flags.recipients, "encrypt-to", nil, "age recipient (repeatable)")
	flagSet.BoolVar(&flags.reverse, "reverse", false, "decrypt and decompress instead")
	flagSet.StringVar(&flags.identityPath, "identity", "", "age identity file for --reverse")

	if err := flagSet.Parse(args); err != nil {
		return flags, usagef("stage: %v", err)
	}
	if flagSet.NArg() != 0 {
		return flags, usagef("stage: unexpected arguments %q", flagSet.Args())
	}

	parsed, err := stage.ParseCompression(compression)
	if err != nil {
		return flags, usagef("stage: %v", err)
	}
	flags.compression = parsed

	if flags.reverse && len(flags.recipients) > 0 {
		return flags, usagef("stage: --encrypt-to cannot be used with --reverse")
	}
	if !flags.reverse && flags.identityPath != "" {
		return flags, usagef("stage: --identity requires --reverse")
	}
	return flags, nil
}

func runStage(args []string, stdin io.Reader, stdout io.Writer) error {
	flags, err := parseStage(args)
	if err != nil {
		return err
	}

	if flags.reverse {
		options := stage.ReverseOptions{Compression: flags.compression}
		if flags.identityPath != "" {
			file, err := os.Open(flags.identityPath)
			if err != nil {
				return fmt.Errorf("opening identity: %w", err)
			}
			defer file.Close()
			options.Identities, err = stage.ParseIdentities(file)
			if err != nil {
				return err
			}
		}
		_, err := stage.Reverse(stdout, stdin, options)
		return err
	}

	recipients, err := stage.ParseRecipients(flags.recipients)
	if err != nil {
		return usagef("stage: %v", err)
	}
	_, err = stage.Filter(stdout, stdin, stage.Options{Compression: flags.compression, Recipients: recipients})
	return err
}
