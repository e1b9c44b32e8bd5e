// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// safeupload-relay sits between a backup's producer processes and the
// upload tool, forwarding stdin to stdout byte for byte. It keeps stdout
// open after stdin reaches EOF, so the upload tool never sees end of
// input until the orchestrator has decided the upload may complete.
//
// The single positional argument is a termination token file. After
// each empty read the relay waits --interval (or until the token
// changes, via inotify), checks that its downstream is still reading,
// and reads the token. It exits 0 once the token begins with the bytes
// TIME_TO_DIE. If the downstream closes first, it exits 1, which the
// orchestrator treats as an upload failure.
//
// Process tree:
//
//	producers → safeupload-relay → gof3r put
//
// With --receipt, the relay writes a CBOR record of the forwarded byte
// count and BLAKE3 digest just before exiting successfully.
//
// The relay is spawned by the safeupload orchestrator and is not
// intended for direct use.
package main
