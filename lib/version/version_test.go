// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestBuildString(t *testing.T) {
	tests := []struct {
		name  string
		build Build
		want  string
	}{
		{"clean", Build{Version: "1.2.0", Commit: "abc1234", Time: "2026-10-17"}, "1.2.0 (abc1234, 2026-10-17)"},
		{"dirty", Build{Version: "1.2.0", Commit: "abc1234", Dirty: true, Time: "unknown"}, "1.2.0 (abc1234-dirty, unknown)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.build.String(); got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestFillFromSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "3f2a9c1d5e7b0a1122334455"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-10-17T08:00:00Z"},
	}

	var build Build
	build.fillFromSettings(settings)
	if build.Commit != "3f2a9c1d5e7b" || !build.Dirty || build.Time != "2026-10-17T08:00:00Z" {
		t.Errorf("filled build = %+v", build)
	}

	savedDirty := GitDirty
	t.Cleanup(func() { GitDirty = savedDirty })
	GitDirty = "false"
	stamped := Build{Commit: "release1", Time: "2026-01-01"}
	stamped.fillFromSettings(settings)
	if stamped.Commit != "release1" || stamped.Dirty || stamped.Time != "2026-01-01" {
		t.Errorf("linker values overridden: %+v", stamped)
	}
}

func TestPrint(t *testing.T) {
	var buffer bytes.Buffer
	if err := Print(&buffer, "safeupload"); err != nil {
		t.Fatalf("Print: %v", err)
	}
	output := buffer.String()
	if !strings.HasPrefix(output, "safeupload "+Version+" (") {
		t.Errorf("output %q does not start with program and version", output)
	}
	if !strings.Contains(output, "platform: "+runtime.GOOS+"/"+runtime.GOARCH+"\n") {
		t.Errorf("output %q missing platform", output)
	}
}
