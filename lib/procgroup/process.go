// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procgroup

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// State is the lifecycle position of a process.
type State int

const (
	// Running means the process has not been observed to exit.
	Running State = iota
	// Succeeded means the process exited with code 0.
	Succeeded
	// Failed means the process exited non-zero or was killed by a
	// signal.
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a point-in-time observation of a process. Code is the exit
// code for exited processes and -1 for processes killed by a signal.
type Status struct {
	State State
	Code  int
}

// Exited reports whether the process is no longer running.
func (s Status) Exited() bool {
	return s.State != Running
}

// Process is the view of a running program that the monitor and the
// teardown need. Status must not block.
type Process interface {
	Pid() int
	Status() Status
	Kill() error
}

// Handle is a Process backed by a started *exec.Cmd.
type Handle struct {
	name         string
	cmd          *exec.Cmd
	processGroup bool
	done         chan struct{}

	mu     sync.Mutex
	status Status
}

// StartOption configures Start.
type StartOption func(*startSettings)

type startSettings struct {
	processGroup bool
}

// WithProcessGroup starts the command as the leader of a new process
// group. Kill then signals the whole group, so children spawned by a
// shell wrapper die with it.
func WithProcessGroup() StartOption {
	return func(settings *startSettings) {
		settings.processGroup = true
	}
}

// Start starts cmd and returns a Handle that reaps it in the
// background. name is used only in errors and logs.
func Start(name string, cmd *exec.Cmd, options ...StartOption) (*Handle, error) {
	var settings startSettings
	for _, option := range options {
		option(&settings)
	}

	if settings.processGroup {
		if cmd.SysProcAttr == nil {
			cmd.SysProcAttr = &syscall.SysProcAttr{}
		}
		cmd.SysProcAttr.Setpgid = true
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}

	handle := &Handle{
		name:         name,
		cmd:          cmd,
		processGroup: settings.processGroup,
		done:         make(chan struct{}),
		status:       Status{State: Running},
	}
	go handle.wait()
	return handle, nil
}

func (h *Handle) wait() {
	status := statusFromWait(h.cmd.Wait())

	h.mu.Lock()
	h.status = status
	h.mu.Unlock()

	close(h.done)
}

// statusFromWait converts the result of exec.Cmd.Wait into a Status.
// Errors that are not exit errors (a failed copy goroutine, for
// example) count as failures with code -1.
func statusFromWait(err error) Status {
	if err == nil {
		return Status{State: Succeeded, Code: 0}
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return Status{State: Failed, Code: exitError.ExitCode()}
	}
	return Status{State: Failed, Code: -1}
}

// Name returns the name the handle was started with.
func (h *Handle) Name() string { return h.name }

// Pid returns the process ID.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// Status returns the last observed status without blocking.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Done returns a channel that is closed once the process has exited and
// its status is available.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Kill sends SIGKILL to the process, or to its process group when it
// was started WithProcessGroup. Killing a process that has already been
// reaped returns os.ErrProcessDone.
func (h *Handle) Kill() error {
	select {
	case <-h.done:
		return os.ErrProcessDone
	default:
	}

	if h.processGroup {
		err := unix.Kill(-h.cmd.Process.Pid, unix.SIGKILL)
		if err == nil {
			return nil
		}
		if err != unix.ESRCH {
			return fmt.Errorf("killing process group %d: %w", h.cmd.Process.Pid, err)
		}
		// The group is gone but the leader may not be reaped yet.
	}
	return h.cmd.Process.Kill()
}

// Exists reports whether a process with the given pid is present,
// including zombies that have exited but have not been reaped.
func Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
