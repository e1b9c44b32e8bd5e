// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jobdef

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bureau-foundation/safeupload/lib/stage"
)

// producerNamePattern matches valid producer names. Names appear in
// error messages and log keys, so they are kept to identifier-like
// strings.
var producerNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Validate checks a Job for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the job is
// valid.
//
// Structural checks include:
//   - Bucket and Key must be non-empty
//   - At least one producer is required
//   - Each producer needs a unique, identifier-like Name and a non-empty Run
//   - Compress must be none, zstd, or lz4
//   - Every EncryptTo entry must be an age X25519 recipient
//   - No ${NAME} reference may remain (Expand first)
func Validate(job *Job) []string {
	var issues []string

	if job.Bucket == "" {
		issues = append(issues, "bucket is required")
	}
	if job.Key == "" {
		issues = append(issues, "key is required")
	}

	if len(job.Producers) == 0 {
		issues = append(issues, "job has no producers (at least one is required)")
	}
	names := make(map[string]int, len(job.Producers))
	for index, producer := range job.Producers {
		prefix := fmt.Sprintf("producers[%d]", index)
		if producer.Name == "" {
			issues = append(issues, prefix+": name is required")
		} else if !producerNamePattern.MatchString(producer.Name) {
			issues = append(issues, fmt.Sprintf("%s %q: name must match %s", prefix, producer.Name, producerNamePattern))
		} else if firstIndex, exists := names[producer.Name]; exists {
			issues = append(issues, fmt.Sprintf("%s %q: duplicate producer name (first used at producers[%d])",
				prefix, producer.Name, firstIndex))
		} else {
			names[producer.Name] = index
		}
		if strings.TrimSpace(producer.Run) == "" {
			issues = append(issues, fmt.Sprintf("%s %q: run is required", prefix, producer.Name))
		}
	}

	if _, err := stage.ParseCompression(job.Compress); err != nil {
		issues = append(issues, fmt.Sprintf("compress: %v", err))
	}
	for index, recipient := range job.EncryptTo {
		if _, err := stage.ParseRecipients([]string{recipient}); err != nil {
			issues = append(issues, fmt.Sprintf("encrypt_to[%d]: %v", index, err))
		}
	}

	expandable := []struct{ field, value string }{
		{"bucket", job.Bucket},
		{"key", job.Key},
		{"check", job.Check},
	}
	for _, entry := range expandable {
		if match := variablePattern.FindString(entry.value); match != "" {
			issues = append(issues, fmt.Sprintf("%s: unexpanded reference %s", entry.field, match))
		}
	}

	return issues
}
