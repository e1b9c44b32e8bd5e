// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags -X. Empty values fall back to the VCS stamp the Go
// toolchain embeds in module builds.
var (
	GitCommit = ""
	GitDirty  = ""
	BuildTime = ""
	Version   = "0.1.0-dev"
)

// Build identifies the running safeupload binary.
type Build struct {
	Version  string
	Commit   string
	Dirty    bool
	Time     string
	Go       string
	Platform string
}

// Current returns the build information of the running binary.
func Current() Build {
	build := Build{
		Version:  Version,
		Commit:   GitCommit,
		Dirty:    GitDirty == "true",
		Time:     BuildTime,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		build.fillFromSettings(info.Settings)
	}
	if build.Commit == "" {
		build.Commit = "unknown"
	}
	if build.Time == "" {
		build.Time = "unknown"
	}
	return build
}

// fillFromSettings copies vcs.* build settings into fields the linker
// flags left empty.
func (b *Build) fillFromSettings(settings []debug.BuildSetting) {
	dirtySet := GitDirty != ""
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = shortRevision(setting.Value)
			}
		case "vcs.modified":
			if !dirtySet {
				b.Dirty = setting.Value == "true"
			}
		case "vcs.time":
			if b.Time == "" {
				b.Time = setting.Value
			}
		}
	}
}

func shortRevision(revision string) string {
	if len(revision) > 12 {
		return revision[:12]
	}
	return revision
}

// String is the one-line form, for example "0.1.0-dev (3f2a9c1-dirty, 2026-10-17T08:00:00Z)".
func (b Build) String() string {
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", b.Version, commit, b.Time)
}

// Print writes the version block for program to w: the one-line form
// followed by the Go version and platform.
func Print(w io.Writer, program string) error {
	build := Current()
	_, err := fmt.Fprintf(w, "%s %s\n  go: %s\n  platform: %s\n", program, build, build.Go, build.Platform)
	return err
}
