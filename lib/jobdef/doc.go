// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobdef parses and validates upload job files. Jobs are
// authored as JSONC (JSON extended with comments and trailing commas):
//
//	{
//	  "bucket": "db-backups",
//	  "key": "${HOST}/base.tar.zst",
//	  // Run in order, each stage's stdout feeding the next stage's stdin.
//	  "producers": [
//	    {"name": "dump", "run": "pg_basebackup -D - -Ft"},
//	  ],
//	  "check": "test -s /var/lib/backup/manifest",
//	  "compress": "zstd",
//	  "encrypt_to": ["age1..."],
//	}
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes to a Job
//  2. Expand: substitute ${NAME} references in bucket, key, and check
//  3. Validate: structural checks, returned as a list of issues
package jobdef
