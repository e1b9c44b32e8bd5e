// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procgroup

import (
	"fmt"
	"sort"
)

// Group maps a logical name to a process. Iteration order is
// irrelevant to callers; Names gives a stable order for reporting.
type Group map[string]Process

// Names returns the group's names in sorted order.
func (g Group) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExitError reports a group member that exited unsuccessfully.
type ExitError struct {
	Name string
	Pid  int
	Code int
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("process %s (pid %d) was killed by a signal", e.Name, e.Pid)
	}
	return fmt.Sprintf("process %s (pid %d) exited with code %d", e.Name, e.Pid, e.Code)
}

// ExitCode returns the member's exit code, or -1 if it was killed by a
// signal.
func (e *ExitError) ExitCode() int { return e.Code }

// CheckAllSucceeded polls every member of group without blocking. It
// returns true only when every member has exited with code 0. If any
// member has failed it returns an *ExitError naming it; the caller must
// stop polling and treat the error as fatal. Nil members are skipped
// and an empty group has trivially succeeded.
func CheckAllSucceeded(group Group) (bool, error) {
	allSucceeded := true
	for _, name := range group.Names() {
		process := group[name]
		if process == nil {
			continue
		}
		status := process.Status()
		switch status.State {
		case Failed:
			return false, &ExitError{Name: name, Pid: process.Pid(), Code: status.Code}
		case Running:
			allSucceeded = false
		}
	}
	return allSucceeded, nil
}
