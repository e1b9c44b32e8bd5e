// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/bureau-foundation/safeupload/lib/relay"
)

func main() {
	os.Exit(relay.Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
