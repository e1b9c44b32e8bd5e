// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"os"
	"testing"

	"github.com/bureau-foundation/safeupload/lib/relay"
)

// relayModeVariable turns the test binary into the relay, so the
// orchestrator tests spawn the real relay code as a real process.
const relayModeVariable = "SAFEUPLOAD_TEST_RELAY"

func TestMain(m *testing.M) {
	if os.Getenv(relayModeVariable) == "1" {
		os.Exit(relay.Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(m.Run())
}
