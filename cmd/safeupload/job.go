// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safeupload/lib/jobdef"
)

// jobFlags is the parsed "run" command line.
type jobFlags struct {
	configPath string
	jobPath    string
	verbose    bool
	variables  map[string]string
}

func parseJob(args []string, environment []string) (jobFlags, error) {
	var flags jobFlags
	var assignments []string

	flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&flags.configPath, "config", "", "config file (default: $SAFEUPLOAD_CONFIG)")
	flagSet.BoolVarP(&flags.verbose, "verbose", "v", false, "also print the relay receipt in CBOR diagnostic notation")
	flagSet.StringArrayVar(&assignments, "var", nil, "NAME=VALUE for ${NAME} in the job file (repeatable)")

	if err := flagSet.Parse(args); err != nil {
		return flags, usagef("run: %v", err)
	}
	positional := flagSet.Args()
	if len(positional) != 1 {
		return flags, usagef("run: expected one job file, got %d arguments", len(positional))
	}
	flags.jobPath = positional[0]

	// The environment first, so --var wins.
	flags.variables = make(map[string]string)
	for _, entry := range environment {
		if name, value, ok := strings.Cut(entry, "="); ok {
			flags.variables[name] = value
		}
	}
	for _, assignment := range assignments {
		name, value, ok := strings.Cut(assignment, "=")
		if !ok || name == "" {
			return flags, usagef("run: --var %q is not NAME=VALUE", assignment)
		}
		flags.variables[name] = value
	}
	return flags, nil
}

func runJob(args []string, stdout, stderr io.Writer) error {
	flags, err := parseJob(args, os.Environ())
	if err != nil {
		return err
	}
	job, err := jobdef.ReadFile(flags.jobPath)
	if err != nil {
		return usagef("%v", err)
	}
	if err := jobdef.Expand(job, flags.variables); err != nil {
		return usagef("%s: %v", flags.jobPath, err)
	}
	return execute(flags.configPath, job, flags.verbose, stdout, stderr)
}
