// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the slog loggers used by the safeupload
// binaries. Libraries never construct their own handlers; they accept
// a *slog.Logger and fall back to slog.DiscardHandler.
package logging
