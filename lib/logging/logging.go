// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Output formats accepted by Options.Format.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects the level, format, and destination of a logger.
// Zero values mean info level, automatic format, and stderr.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New creates a logger. With FormatAuto the handler is text when the
// output is a terminal and JSON otherwise, so that a human at a shell
// gets readable lines while the orchestrator's captured stderr stays
// machine-parseable.
func New(options Options) (*slog.Logger, error) {
	level, err := ParseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	output := options.Output
	if output == nil {
		output = os.Stderr
	}

	handlerOptions := &slog.HandlerOptions{Level: level}
	switch ResolveFormat(options.Format, output) {
	case FormatText:
		return slog.New(slog.NewTextHandler(output, handlerOptions)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(output, handlerOptions)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want auto, text, or json)", options.Format)
	}
}

// ParseLevel converts "debug", "info", "warn", or "error" (any case)
// to a slog.Level. The empty string is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// ResolveFormat replaces FormatAuto (or the empty string) with
// FormatText when output is a terminal and FormatJSON otherwise. Other
// formats are returned lower-cased and unchecked. Callers that wrap a
// terminal in another writer resolve the format against the terminal
// first.
func ResolveFormat(format string, output io.Writer) string {
	format = strings.ToLower(format)
	if format != "" && format != FormatAuto {
		return format
	}
	if isTerminal(output) {
		return FormatText
	}
	return FormatJSON
}

func isTerminal(output io.Writer) bool {
	file, ok := output.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
