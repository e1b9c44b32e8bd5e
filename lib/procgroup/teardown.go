// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package procgroup

import (
	"log/slog"
)

// Kill is a best-effort teardown of every member of group that is still
// running. It never fails: errors from the kill itself are logged at
// debug level and dropped, because a member may exit between the
// liveness check and the signal. Members that have already exited are
// skipped, so calling Kill again on the same group is harmless.
//
// The returned slice names the members that were signalled.
func Kill(group Group, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var killed []string
	for _, name := range group.Names() {
		process := group[name]
		if process == nil {
			continue
		}
		if process.Status().Exited() || !Exists(process.Pid()) {
			continue
		}
		if err := process.Kill(); err != nil {
			logger.Debug("kill failed, process likely already exited",
				"process", name,
				"pid", process.Pid(),
				"error", err,
			)
			continue
		}
		logger.Info("killed process", "process", name, "pid", process.Pid())
		killed = append(killed, name)
	}
	return killed
}
