// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteScript writes body as an executable /bin/sh script named name in
// a fresh temporary directory and returns its absolute path. The
// directory is removed when the test completes.
//
//	uploader := testutil.WriteScript(t, "uploader", `cat > "$OUT"`)
func WriteScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	contents := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(contents), 0755); err != nil {
		t.Fatalf("writing script %s: %v", name, err)
	}
	return path
}
