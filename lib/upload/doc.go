// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package upload streams the output of caller-owned producer processes
// to an external upload tool and makes the upload visible only when
// every producer succeeded.
//
// The upload tool finalizes an object when its input reaches EOF, so
// the byte stream must not end merely because the producers stopped
// writing. [Orchestrator.SafeUpload] places a relay (see lib/relay)
// between the producers and the tool. The relay keeps the tool's input
// open until a termination token (see lib/token) is signaled, and the
// orchestrator signals it only after:
//
//   - every producer in [Job.Producers] has exited 0, and
//   - the optional [Job.Validate] check has passed.
//
// Signaling the token is the commit point. Before it, any failure
// kills the upload tool and then the relay, so the tool dies without
// seeing EOF and the object is never created. After it, the orchestrator
// only waits for the tool to finish.
//
// Producers are never killed here: their lifecycle belongs to the
// caller, which can use procgroup.Kill after a failed upload.
//
// There is no overall timeout. A producer or upload tool that never
// exits keeps SafeUpload waiting until ctx is cancelled.
package upload
