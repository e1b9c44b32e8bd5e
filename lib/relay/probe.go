// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// probe checks that the downstream reader is still present. The
// zero-length write faults on sinks that report a closed peer on any
// write; the poll covers Linux pipes, where a zero-length write always
// succeeds but poll(2) reports POLLERR once the last reader closes.
func probe(output io.Writer) error {
	if _, err := output.Write(nil); err != nil {
		return classifyWriteError(err)
	}

	conn, ok := output.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		// Not backed by a descriptor we can poll.
		return nil
	}

	var revents int16
	var pollErr error
	controlErr := raw.Control(func(fd uintptr) {
		descriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
		for {
			_, pollErr = unix.Poll(descriptors, 0)
			if pollErr != unix.EINTR {
				break
			}
		}
		revents = descriptors[0].Revents
	})
	if controlErr != nil {
		return classifyWriteError(controlErr)
	}
	if pollErr != nil {
		return fmt.Errorf("polling output: %w", pollErr)
	}
	if revents&(unix.POLLERR|unix.POLLHUP) != 0 {
		return fmt.Errorf("%w: output reported poll events %#x", ErrBrokenPipe, revents)
	}
	return nil
}

// classifyWriteError wraps errors that mean "nobody is reading any
// more" in ErrBrokenPipe.
func classifyWriteError(err error) error {
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrBrokenPipe, err)
	}
	return fmt.Errorf("writing output: %w", err)
}
