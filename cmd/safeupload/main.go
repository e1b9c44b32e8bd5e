// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/safeupload/lib/process"
	"github.com/bureau-foundation/safeupload/lib/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// usageError marks errors caused by the command line rather than by
// the upload. They exit 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

const usage = `usage: safeupload <command> [flags]

commands:
  put      upload the output of a producer pipeline
  run      upload as described by a JSONC job file
  stage    compress and encrypt stdin to stdout
  version  print version information
`

// run dispatches the subcommand and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "put":
		err = runPut(args[1:], stdout, stderr)
	case "run":
		err = runJob(args[1:], stdout, stderr)
	case "stage":
		err = runStage(args[1:], stdin, stdout)
	case "version", "--version":
		err = version.Print(stdout, "safeupload")
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
	default:
		err = usagef("unknown command %q", args[0])
	}

	if err == nil {
		return 0
	}
	process.Report(stderr, err)
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprint(stderr, "\n"+usage)
		return 2
	}
	return 1
}
