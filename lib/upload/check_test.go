// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/safeupload/lib/procgroup"
)

func TestShellCheck(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		env      map[string]string
		wantCode int
	}{
		{name: "success", command: "exit 0"},
		{name: "failure", command: "exit 5", wantCode: 5},
		{name: "env", command: `test "$ARCHIVE" = db.tar`, env: map[string]string{"ARCHIVE": "db.tar"}},
		{name: "env missing", command: `test "$ARCHIVE" = db.tar`, wantCode: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := ShellCheck(test.command, test.env, nil)(context.Background())
			if test.wantCode == 0 {
				if err != nil {
					t.Fatalf("check failed: %v", err)
				}
				return
			}
			var exitError *procgroup.ExitError
			if !errors.As(err, &exitError) {
				t.Fatalf("error %v is not an ExitError", err)
			}
			if exitError.Code != test.wantCode || exitError.Name != CheckProcess {
				t.Errorf("ExitError = %+v, want %s with code %d", exitError, CheckProcess, test.wantCode)
			}
		})
	}
}

func TestShellCheckOutput(t *testing.T) {
	var output bytes.Buffer
	if err := ShellCheck("echo verified; echo warning >&2", nil, &output)(context.Background()); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if got := output.String(); got != "verified\nwarning\n" {
		t.Errorf("output = %q", got)
	}
}

func TestShellCheckCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	err := ShellCheck("sleep 60 & wait", nil, nil)(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(started); elapsed > 10*time.Second {
		t.Errorf("cancelled check took %v", elapsed)
	}
}
