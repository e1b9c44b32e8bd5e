// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package upload

import "errors"

// Failure classes returned by SafeUpload. Process failures also wrap a
// *procgroup.ExitError naming the process and its exit code. Token
// failures wrap token.ErrTokenIO instead.
var (
	// ErrProducerFailed means a producer exited non-zero. Nothing was
	// committed.
	ErrProducerFailed = errors.New("producer failed")

	// ErrUploadFailed means the relay or the upload tool exited
	// non-zero, including a relay that lost its downstream.
	ErrUploadFailed = errors.New("upload failed")

	// ErrValidationFailed means the validation check rejected the
	// output. Nothing was committed.
	ErrValidationFailed = errors.New("validation failed")
)
