// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safeupload/lib/config"
	"github.com/bureau-foundation/safeupload/lib/jobdef"
	"github.com/bureau-foundation/safeupload/lib/logging"
	"github.com/bureau-foundation/safeupload/lib/procgroup"
	"github.com/bureau-foundation/safeupload/lib/stage"
	"github.com/bureau-foundation/safeupload/lib/upload"
)

// filterStageName names the appended "safeupload stage" process.
const filterStageName = "safeupload-stage"

// selfExecutable locates this binary for the appended filter stage.
var selfExecutable = os.Executable

// putFlags is the parsed "put" command line.
type putFlags struct {
	configPath string
	verbose    bool
	job        jobdef.Job
}

func parsePut(args []string) (putFlags, error) {
	var flags putFlags

	flagSet := pflag.NewFlagSet("put", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&flags.configPath, "config", "", "config file (default: $SAFEUPLOAD_CONFIG)")
	flagSet.StringVar(&flags.job.Bucket, "bucket", "", "destination bucket")
	flagSet.StringVar(&flags.job.Key, "key", "", "destination object key")
	flagSet.StringVar(&flags.job.Check, "check", "", "shell command that must succeed before the upload commits")
	flagSet.StringToStringVar(&flags.job.CheckEnv, "check-env", nil, "NAME=VALUE pairs added to the check's environment")
	flagSet.StringVar(&flags.job.Compress, "compress", "", "none, zstd, or lz4")
	flagSet.StringArrayVar(&flags.job.EncryptTo, "encrypt-to", nil, "age recipient (repeatable)")
	flagSet.BoolVarP(&flags.verbose, "verbose", "v", false, "also print the relay receipt in CBOR diagnostic notation")

	if err := flagSet.Parse(args); err != nil {
		return flags, usagef("put: %v", err)
	}

	commands := flagSet.Args()
	if len(commands) == 0 {
		return flags, usagef("put: at least one producer command is required after --")
	}
	for index, command := range commands {
		flags.job.Producers = append(flags.job.Producers, jobdef.Producer{
			Name: fmt.Sprintf("producer-%d", index+1),
			Run:  command,
		})
	}
	return flags, nil
}

func runPut(args []string, stdout, stderr io.Writer) error {
	flags, err := parsePut(args)
	if err != nil {
		return err
	}
	return execute(flags.configPath, &flags.job, flags.verbose, stdout, stderr)
}

// loadConfig loads path, or $SAFEUPLOAD_CONFIG when path is empty, and
// prepares its directories.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildStages turns the job's producers into pipeline stages, adding
// the filter stage when the job compresses or encrypts. Every stage
// writes diagnostics to stderr; nil discards them.
func buildStages(job *jobdef.Job, stderr *os.File) ([]procgroup.Stage, error) {
	stages := make([]procgroup.Stage, 0, len(job.Producers)+1)
	for _, producer := range job.Producers {
		command := exec.Command("sh", "-c", producer.Run)
		setStderr(command, stderr)
		stages = append(stages, procgroup.Stage{Name: producer.Name, Command: command})
	}

	compression, err := stage.ParseCompression(job.Compress)
	if err != nil {
		return nil, err
	}
	if compression == stage.CompressionNone && len(job.EncryptTo) == 0 {
		return stages, nil
	}

	self, err := selfExecutable()
	if err != nil {
		return nil, fmt.Errorf("locating safeupload for the filter stage: %w", err)
	}
	arguments := []string{"stage", "--compress", string(compression)}
	for _, recipient := range job.EncryptTo {
		arguments = append(arguments, "--encrypt-to", recipient)
	}
	command := exec.Command(self, arguments...)
	setStderr(command, stderr)
	return append(stages, procgroup.Stage{Name: filterStageName, Command: command}), nil
}

// setStderr avoids storing a typed nil *os.File, which os/exec would
// pass to the child as a closed descriptor.
func setStderr(command *exec.Cmd, stderr *os.File) {
	if stderr != nil {
		command.Stderr = stderr
	}
}

// execute validates job, starts its producers, and uploads their
// output. When the upload fails the producers are killed. With verbose
// the receipt is also printed in diagnostic notation.
func execute(configPath string, job *jobdef.Job, verbose bool, stdout, stderr io.Writer) error {
	if issues := jobdef.Validate(job); len(issues) > 0 {
		return usagef("invalid job:\n  %s", strings.Join(issues, "\n  "))
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Producers, the relay, the check and the logger all report to
	// stderr. Children get one real descriptor; the logger writes
	// through the serialized side of the same output.
	diagnostics, err := procgroup.NewSharedOutput(stderr)
	if err != nil {
		return err
	}
	defer diagnostics.Close()

	loggingOptions := cfg.LoggingOptions()
	loggingOptions.Format = logging.ResolveFormat(loggingOptions.Format, stderr)
	loggingOptions.Output = diagnostics.Writer
	logger, err := logging.New(loggingOptions)
	if err != nil {
		return err
	}

	orchestratorConfig, err := cfg.OrchestratorConfig()
	if err != nil {
		return err
	}
	orchestratorConfig.Logger = logger
	orchestratorConfig.RelayStderr = diagnostics.File
	orchestrator, err := upload.New(orchestratorConfig)
	if err != nil {
		return err
	}

	stages, err := buildStages(job, diagnostics.File)
	if err != nil {
		return err
	}
	producers, output, err := procgroup.StartPipeline(stages)
	if err != nil {
		return fmt.Errorf("starting producers: %w", err)
	}
	defer output.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploadJob := upload.Job{
		Producers: producers,
		Input:     output,
		Bucket:    job.Bucket,
		Key:       job.Key,
	}
	if job.Check != "" {
		uploadJob.Validate = upload.ShellCheck(job.Check, job.CheckEnv, diagnostics.File)
	}

	result, err := orchestrator.SafeUpload(ctx, uploadJob)
	if result != nil {
		printResult(stdout, result, verbose)
	}
	if err != nil {
		if killed := procgroup.Kill(producers, logger); len(killed) > 0 {
			logger.Warn("killed producers after failed upload", "processes", killed)
		}
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("interrupted: %w", err)
		}
		return err
	}
	return nil
}

func printResult(w io.Writer, result *upload.Result, verbose bool) {
	if result.Receipt == nil {
		fmt.Fprintf(w, "committed %s/%s\n", result.Bucket, result.Key)
		return
	}
	fmt.Fprintf(w, "committed %s/%s (%d bytes, blake3 %s)\n",
		result.Bucket, result.Key, result.Receipt.Bytes, result.Receipt.DigestHex())
	if !verbose {
		return
	}
	notation, err := result.Receipt.Diagnostic()
	if err != nil {
		fmt.Fprintf(w, "receipt: %v\n", err)
		return
	}
	fmt.Fprintf(w, "receipt: %s\n", notation)
}
