// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jobdef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Job is an upload job definition.
type Job struct {
	// Bucket and Key name the uploaded object.
	Bucket string `json:"bucket"`
	Key    string `json:"key"`

	// Producers form a pipeline whose final stdout is uploaded.
	Producers []Producer `json:"producers"`

	// Check is a shell command run after every producer succeeded
	// and before the upload is committed. A non-zero exit aborts it.
	Check string `json:"check,omitempty"`

	// CheckEnv is added to the check command's environment.
	CheckEnv map[string]string `json:"check_env,omitempty"`

	// Compress is none, zstd, or lz4.
	Compress string `json:"compress,omitempty"`

	// EncryptTo lists age X25519 recipients (age1...).
	EncryptTo []string `json:"encrypt_to,omitempty"`
}

// Producer is one pipeline stage, run with sh -c.
type Producer struct {
	Name string `json:"name"`
	Run  string `json:"run"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Job. Unknown fields are rejected so that
// a misspelled "check" cannot silently disable validation.
func Parse(data []byte) (*Job, error) {
	stripped := jsonc.ToJSON(data)

	decoder := json.NewDecoder(bytes.NewReader(stripped))
	decoder.DisallowUnknownFields()

	var job Job
	if err := decoder.Decode(&job); err != nil {
		return nil, fmt.Errorf("parsing job: %w", err)
	}
	return &job, nil
}

// ReadFile reads a JSONC job file from disk and parses it.
func ReadFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return job, nil
}
