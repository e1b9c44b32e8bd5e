// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package atomicfile replaces a file's contents so that readers see
// either the old contents or the new contents, never a prefix of the
// new ones. The termination token and the relay receipt are both
// written this way.
package atomicfile
