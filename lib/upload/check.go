// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/bureau-foundation/safeupload/lib/procgroup"
)

// CheckProcess names the validation command in errors.
const CheckProcess = "check"

// ShellCheck returns a Validate function that runs command with sh -c.
// The command runs in its own process group with env added to the
// inherited environment, and its stdout and stderr go to output (nil
// discards them). A non-zero exit is returned as a
// *procgroup.ExitError. When ctx ends the whole group is killed.
func ShellCheck(command string, env map[string]string, output io.Writer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Stdout = output
		cmd.Stderr = output
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		cmd.Cancel = func() error {
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		if len(env) > 0 {
			cmd.Env = os.Environ()
			for name, value := range env {
				cmd.Env = append(cmd.Env, name+"="+value)
			}
		}

		err := cmd.Run()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("running %s: %w", CheckProcess, ctxErr)
		}
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return &procgroup.ExitError{
				Name: CheckProcess,
				Pid:  exitError.Pid(),
				Code: exitError.ExitCode(),
			}
		}
		return fmt.Errorf("running %s: %w", CheckProcess, err)
	}
}
