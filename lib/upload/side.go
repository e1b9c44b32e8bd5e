// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"

	"github.com/bureau-foundation/safeupload/lib/procgroup"
)

// uploadSide is the relay and the upload tool of one job, joined by a
// pipe the orchestrator no longer holds either end of.
type uploadSide struct {
	relay    *procgroup.Handle
	uploader *procgroup.Handle
}

func (s *uploadSide) group() procgroup.Group {
	return procgroup.Group{
		s.relay.Name():    s.relay,
		s.uploader.Name(): s.uploader,
	}
}

// teardown kills the upload tool before the relay. Killing the relay
// first would close the tool's input, which the tool reads as EOF and
// may finalize as a complete object.
func (s *uploadSide) teardown(logger *slog.Logger) {
	procgroup.Kill(procgroup.Group{s.uploader.Name(): s.uploader}, logger)
	procgroup.Kill(procgroup.Group{s.relay.Name(): s.relay}, logger)
}

// relayArguments builds the relay command line.
func (o *Orchestrator) relayArguments(tokenPath, receiptPath string) []string {
	arguments := append([]string(nil), o.relayArgs...)
	if o.relayPollInterval > 0 {
		arguments = append(arguments, "--interval", o.relayPollInterval.String())
	}
	return append(arguments, "--receipt", receiptPath, tokenPath)
}

// uploaderArguments builds the upload tool command line. The key is
// query-escaped (spaces become "+") so that any object name survives
// as a single argument the tool will not reinterpret.
func (o *Orchestrator) uploaderArguments(bucket, key string) []string {
	return []string{o.uploaderVerb, "-k", url.QueryEscape(key), "-b", bucket}
}

// startUploadSide starts the relay reading job.Input and the upload
// tool reading the relay, each in its own process group. If the upload
// tool cannot be started the relay is killed before returning.
func (o *Orchestrator) startUploadSide(job Job, tokenPath, receiptPath string) (*uploadSide, error) {
	pipeReader, pipeWriter, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: creating relay pipe: %w", ErrUploadFailed, err)
	}
	// The children hold their own copies. Keeping ours would stop the
	// tool from ever seeing EOF and the relay from seeing a broken pipe.
	defer pipeReader.Close()
	defer pipeWriter.Close()

	relayCommand := exec.Command(o.relayBinary, o.relayArguments(tokenPath, receiptPath)...)
	relayCommand.Stdin = job.Input
	relayCommand.Stdout = pipeWriter
	relayCommand.Stderr = o.relayStderr
	relayHandle, err := procgroup.Start(RelayProcess, relayCommand, procgroup.WithProcessGroup())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	uploaderCommand := exec.Command(o.uploaderBinary, o.uploaderArguments(job.Bucket, job.Key)...)
	uploaderCommand.Stdin = pipeReader
	uploaderHandle, err := procgroup.Start(UploaderProcess, uploaderCommand, procgroup.WithProcessGroup())
	if err != nil {
		procgroup.Kill(procgroup.Group{RelayProcess: relayHandle}, o.logger)
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	return &uploadSide{relay: relayHandle, uploader: uploaderHandle}, nil
}
