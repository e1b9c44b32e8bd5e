// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procgroup

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DefaultDrainTimeout bounds how long [SharedOutput.Close] keeps
// copying after the parent's descriptor is closed, in case a detached
// descendant still holds the pipe open.
const DefaultDrainTimeout = time.Second

// SharedOutput is one diagnostic destination shared by child processes
// and in-process writers such as a log handler.
//
// Children must be given File. It is a real descriptor, so os/exec
// starts no copy goroutine for it and [Handle] status never waits on a
// descendant that keeps the descriptor open. In-process code must write
// through Writer, which serializes with the copy of the children's
// output.
type SharedOutput struct {
	// File is the descriptor to hand to exec.Cmd Stdout or Stderr.
	File *os.File

	// Writer writes to the destination, safe for concurrent use.
	Writer io.Writer

	reader       *os.File
	copied       chan struct{}
	drainTimeout time.Duration
	closeOnce    sync.Once
}

// NewSharedOutput returns a SharedOutput writing to destination. When
// destination is already an *os.File it is used directly. Otherwise a
// pipe is created and a goroutine copies from it into destination until
// Close. A nil destination discards.
func NewSharedOutput(destination io.Writer) (*SharedOutput, error) {
	if destination == nil {
		destination = io.Discard
	}
	locked := &lockedWriter{writer: destination}
	if file, ok := destination.(*os.File); ok {
		return &SharedOutput{File: file, Writer: locked}, nil
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("creating output pipe: %w", err)
	}
	output := &SharedOutput{
		File:         writer,
		Writer:       locked,
		reader:       reader,
		copied:       make(chan struct{}),
		drainTimeout: DefaultDrainTimeout,
	}
	go func() {
		defer close(output.copied)
		io.Copy(locked, reader)
	}()
	return output, nil
}

// Close releases the pipe, if one was created, after copying what the
// children wrote. When a descendant still holds the pipe open after the
// drain timeout, its remaining output is dropped. Once Close returns
// nothing more is written to the destination by the copy.
func (s *SharedOutput) Close() error {
	if s.reader == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		err = s.File.Close()
		select {
		case <-s.copied:
		case <-time.After(s.drainTimeout):
		}
		s.reader.Close()
		<-s.copied
	})
	return err
}

type lockedWriter struct {
	mutex  sync.Mutex
	writer io.Writer
}

func (w *lockedWriter) Write(data []byte) (int, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.writer.Write(data)
}
