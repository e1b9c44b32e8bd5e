// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procgroup

import (
	"fmt"
	"os"
	"os/exec"
)

// Stage is one command of a producer pipeline.
type Stage struct {
	Name    string
	Command *exec.Cmd
}

// StartPipeline starts stages as a shell-style pipeline: each stage's
// stdout feeds the next stage's stdin through an os.Pipe, and every
// stage leads its own process group. The first stage keeps whatever
// Stdin the caller set. It returns the group and the read end of the
// last stage's stdout, which the caller owns and must close.
//
// The parent's copies of the intermediate pipe ends are closed once
// the stages holding them have started, so a stage sees end of input
// exactly when the stage before it exits.
//
// If a stage fails to start, the stages already started are killed and
// the error is returned.
func StartPipeline(stages []Stage) (Group, *os.File, error) {
	if len(stages) == 0 {
		return nil, nil, fmt.Errorf("pipeline has no stages")
	}

	group := make(Group, len(stages))
	var previous *os.File
	fail := func(err error) (Group, *os.File, error) {
		if previous != nil {
			previous.Close()
		}
		Kill(group, nil)
		return nil, nil, err
	}

	for index, stage := range stages {
		if stage.Name == "" {
			return fail(fmt.Errorf("stage %d has no name", index))
		}
		if _, duplicate := group[stage.Name]; duplicate {
			return fail(fmt.Errorf("duplicate stage name %q", stage.Name))
		}

		if previous != nil {
			stage.Command.Stdin = previous
		}
		reader, writer, err := os.Pipe()
		if err != nil {
			return fail(fmt.Errorf("creating pipe for %s: %w", stage.Name, err))
		}
		stage.Command.Stdout = writer

		handle, err := Start(stage.Name, stage.Command, WithProcessGroup())
		writer.Close()
		if previous != nil {
			previous.Close()
		}
		previous = reader
		if err != nil {
			return fail(err)
		}
		group[handle.Name()] = handle
	}

	return group, previous, nil
}
