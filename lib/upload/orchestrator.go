// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/safeupload/lib/atomicfile"
	"github.com/bureau-foundation/safeupload/lib/clock"
	"github.com/bureau-foundation/safeupload/lib/procgroup"
	"github.com/bureau-foundation/safeupload/lib/relay"
	"github.com/bureau-foundation/safeupload/lib/token"
)

const (
	// DefaultPollInterval is the pause between process group checks.
	DefaultPollInterval = 250 * time.Millisecond

	// DefaultUploaderVerb is the first argument passed to the upload
	// tool.
	DefaultUploaderVerb = "put"

	// receiptSuffix is appended to the token path to name the file the
	// relay writes its receipt to.
	receiptSuffix = ".receipt"
)

// Process names used in the upload-side group and in errors.
const (
	RelayProcess    = "relay"
	UploaderProcess = "uploader"
)

// Config is the fixed configuration of an Orchestrator.
type Config struct {
	// TokenDirectory hosts termination tokens. It may be shared by
	// concurrent jobs and is created if missing. Required.
	TokenDirectory string

	// RelayBinary is the relay executable, invoked as
	// "RelayBinary RelayArgs... [--interval D] --receipt R <token>".
	// Required.
	RelayBinary string
	RelayArgs   []string

	// RelayPollInterval is passed to the relay as --interval when
	// positive. Otherwise the relay uses its default.
	RelayPollInterval time.Duration

	// RelayStderr receives the relay's log output. Nil discards it. An
	// *os.File, such as procgroup.SharedOutput.File, is handed to the
	// relay directly; other writers are fed by an os/exec copy goroutine.
	RelayStderr io.Writer

	// UploaderBinary is the upload tool, invoked as
	// "UploaderBinary UploaderVerb -k <escaped key> -b <bucket>".
	// Required.
	UploaderBinary string

	// UploaderVerb defaults to DefaultUploaderVerb.
	UploaderVerb string

	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Job describes one upload.
type Job struct {
	// Producers are the caller's running processes writing the bytes
	// to upload. An empty group counts as already succeeded.
	Producers procgroup.Group

	// Input is the read end of the producers' output. It becomes the
	// relay's stdin. The caller keeps ownership and closes it after
	// SafeUpload returns.
	Input *os.File

	Bucket string
	Key    string

	// Validate, when set, runs after every producer succeeded and
	// before the commit. Any error aborts the upload.
	Validate func(ctx context.Context) error
}

// Result describes a committed upload.
type Result struct {
	Bucket string
	Key    string

	// Receipt is what the relay forwarded to the upload tool, or nil
	// if the relay's receipt could not be read.
	Receipt *relay.Receipt

	// Committed is when the termination token was signaled.
	Committed time.Time
}

// Orchestrator runs safe uploads. It holds no per-job state, so one
// Orchestrator may run many SafeUpload calls concurrently.
type Orchestrator struct {
	tokenDirectory    string
	relayBinary       string
	relayArgs         []string
	relayPollInterval time.Duration
	relayStderr       io.Writer
	uploaderBinary    string
	uploaderVerb      string
	pollInterval      time.Duration
	clock             clock.Clock
	logger            *slog.Logger
}

// New validates config and applies defaults.
func New(config Config) (*Orchestrator, error) {
	var problems []error
	if config.TokenDirectory == "" {
		problems = append(problems, errors.New("token directory is required"))
	}
	if config.RelayBinary == "" {
		problems = append(problems, errors.New("relay binary is required"))
	}
	if config.UploaderBinary == "" {
		problems = append(problems, errors.New("uploader binary is required"))
	}
	if config.PollInterval < 0 {
		problems = append(problems, fmt.Errorf("poll interval must not be negative, got %v", config.PollInterval))
	}
	if config.RelayPollInterval < 0 {
		problems = append(problems, fmt.Errorf("relay poll interval must not be negative, got %v", config.RelayPollInterval))
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid upload config: %w", errors.Join(problems...))
	}

	orchestrator := &Orchestrator{
		tokenDirectory:    config.TokenDirectory,
		relayBinary:       config.RelayBinary,
		relayArgs:         append([]string(nil), config.RelayArgs...),
		relayPollInterval: config.RelayPollInterval,
		relayStderr:       config.RelayStderr,
		uploaderBinary:    config.UploaderBinary,
		uploaderVerb:      config.UploaderVerb,
		pollInterval:      config.PollInterval,
		clock:             config.Clock,
		logger:            config.Logger,
	}
	if orchestrator.uploaderVerb == "" {
		orchestrator.uploaderVerb = DefaultUploaderVerb
	}
	if orchestrator.pollInterval == 0 {
		orchestrator.pollInterval = DefaultPollInterval
	}
	if orchestrator.clock == nil {
		orchestrator.clock = clock.Real()
	}
	if orchestrator.logger == nil {
		orchestrator.logger = slog.New(slog.DiscardHandler)
	}
	return orchestrator, nil
}

// SafeUpload uploads the producers' output to bucket/key, committing
// only when every producer succeeded and Validate passed.
//
// On any failure the upload tool and then the relay are killed before
// SafeUpload returns. The termination token and the relay's receipt
// file are removed on every path. A removal failure after a failed
// upload is logged only. After a committed upload it is returned
// wrapping token.ErrTokenIO, alongside the Result.
func (o *Orchestrator) SafeUpload(ctx context.Context, job Job) (result *Result, err error) {
	if err := job.check(); err != nil {
		return nil, err
	}
	logger := o.logger.With("bucket", job.Bucket, "key", job.Key)

	tokenPath, err := token.Create(o.tokenDirectory)
	if err != nil {
		return nil, err
	}
	receiptPath := tokenPath + receiptSuffix
	logger = logger.With("token", tokenPath)

	defer func() {
		o.release(logger, tokenPath, receiptPath, &err)
	}()

	side, err := o.startUploadSide(job, tokenPath, receiptPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			logger.Warn("aborting upload", "error", err)
			side.teardown(logger)
		}
	}()
	logger.Info("upload started",
		"relay_pid", side.relay.Pid(),
		"uploader_pid", side.uploader.Pid(),
	)

	if err := o.waitForProducers(ctx, job.Producers, side); err != nil {
		return nil, err
	}
	logger.Debug("producers succeeded")

	if job.Validate != nil {
		if err := job.Validate(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		logger.Debug("validation passed")
	}

	if err := token.Signal(tokenPath); err != nil {
		return nil, err
	}
	committed := o.clock.Now()
	logger.Info("upload committed")

	if err := o.waitForUploadSide(ctx, side); err != nil {
		return nil, err
	}

	result = &Result{Bucket: job.Bucket, Key: job.Key, Committed: committed}
	receipt, readErr := relay.ReadReceipt(receiptPath)
	if readErr != nil {
		logger.Warn("relay receipt unavailable", "error", readErr)
	} else {
		result.Receipt = &receipt
		logger.Info("upload complete", "bytes", receipt.Bytes, "digest", receipt.DigestHex())
	}
	return result, nil
}

func (j Job) check() error {
	var problems []error
	if j.Input == nil {
		problems = append(problems, errors.New("input is required"))
	}
	if j.Bucket == "" {
		problems = append(problems, errors.New("bucket is required"))
	}
	if j.Key == "" {
		problems = append(problems, errors.New("key is required"))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid upload job: %w", errors.Join(problems...))
	}
	return nil
}

// waitForProducers polls until every producer succeeded. The upload
// side is checked on every iteration so that a dead relay or upload
// tool aborts the job without waiting on slow producers.
func (o *Orchestrator) waitForProducers(ctx context.Context, producers procgroup.Group, side *uploadSide) error {
	for {
		done, err := procgroup.CheckAllSucceeded(producers)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProducerFailed, err)
		}
		if done {
			return nil
		}
		if _, err := procgroup.CheckAllSucceeded(side.group()); err != nil {
			return fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		if err := o.sleep(ctx); err != nil {
			return err
		}
	}
}

// waitForUploadSide polls until the relay and the upload tool both
// exited 0.
func (o *Orchestrator) waitForUploadSide(ctx context.Context, side *uploadSide) error {
	for {
		done, err := procgroup.CheckAllSucceeded(side.group())
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		if done {
			return nil
		}
		if err := o.sleep(ctx); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-o.clock.After(o.pollInterval):
		return nil
	}
}

// release removes the token and the receipt. It runs after teardown,
// so the relay can no longer be reading either file.
func (o *Orchestrator) release(logger *slog.Logger, tokenPath, receiptPath string, err *error) {
	removeErr := token.Remove(tokenPath)
	if cleanupErr := atomicfile.Cleanup(receiptPath); cleanupErr != nil {
		logger.Warn("removing relay receipt failed", "path", receiptPath, "error", cleanupErr)
	}
	if removeErr == nil {
		return
	}
	if *err != nil {
		logger.Warn("removing termination token failed", "error", removeErr)
		return
	}
	*err = fmt.Errorf("upload committed but removing token: %w", removeErr)
}
