// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
)

// Report writes "error: err" to w. Binaries call it for errors from
// run() where the structured logger may not be initialized.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
