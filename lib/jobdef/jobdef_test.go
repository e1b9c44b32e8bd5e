// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jobdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"
)

const sampleJob = `{
  // Nightly base backup.
  "bucket": "db-backups",
  "key": "${HOST}/base.tar",
  "producers": [
    {"name": "dump", "run": "pg_basebackup -D - -Ft"},
    {"name": "filter", "run": "cat"}, /* trailing comma below */
  ],
  "check": "test -s ${MANIFEST}",
  "check_env": {"PGHOST": "localhost"},
  "compress": "zstd",
}
`

func TestParse(t *testing.T) {
	job, err := Parse([]byte(sampleJob))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if job.Bucket != "db-backups" || job.Key != "${HOST}/base.tar" {
		t.Errorf("bucket/key = %q/%q", job.Bucket, job.Key)
	}
	if len(job.Producers) != 2 || job.Producers[0].Name != "dump" || job.Producers[1].Run != "cat" {
		t.Errorf("producers = %+v", job.Producers)
	}
	if job.CheckEnv["PGHOST"] != "localhost" {
		t.Errorf("check_env = %v", job.CheckEnv)
	}
	if job.Compress != "zstd" {
		t.Errorf("compress = %q", job.Compress)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"malformed", `{"bucket": `, "parsing job"},
		{"unknown field", `{"bucket": "b", "chek": "true"}`, "chek"},
		{"wrong type", `{"producers": "dump"}`, "parsing job"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.input))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("Parse error = %v, want one containing %q", err, test.want)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nightly.jsonc")
	if err := os.WriteFile(path, []byte(sampleJob), 0644); err != nil {
		t.Fatal(err)
	}
	job, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if job.Bucket != "db-backups" {
		t.Errorf("bucket = %q", job.Bucket)
	}

	broken := filepath.Join(t.TempDir(), "broken.jsonc")
	if err := os.WriteFile(broken, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(broken); err == nil || !strings.Contains(err.Error(), broken) {
		t.Errorf("ReadFile error = %v, want it to name the file", err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Error("ReadFile of a missing file succeeded")
	}
}

func TestExpand(t *testing.T) {
	job, err := Parse([]byte(sampleJob))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Expand(job, map[string]string{"HOST": "db1", "MANIFEST": "/backup/manifest"}); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if job.Key != "db1/base.tar" {
		t.Errorf("key = %q", job.Key)
	}
	if job.Check != "test -s /backup/manifest" {
		t.Errorf("check = %q", job.Check)
	}
	if job.Producers[0].Run != "pg_basebackup -D - -Ft" {
		t.Errorf("producer command changed: %q", job.Producers[0].Run)
	}
	if issues := Validate(job); len(issues) != 0 {
		t.Errorf("expanded job has issues: %v", issues)
	}
}

func TestExpandMissing(t *testing.T) {
	job := &Job{Bucket: "${BUCKET}", Key: "${HOST}/${DATE}"}
	err := Expand(job, map[string]string{"DATE": "2026-10-17"})
	if err == nil {
		t.Fatal("Expand succeeded with undefined variables")
	}
	if !strings.Contains(err.Error(), "[BUCKET HOST]") {
		t.Errorf("error %q does not list the missing variables", err)
	}
	if job.Key != "${HOST}/2026-10-17" {
		t.Errorf("key = %q, want defined references expanded", job.Key)
	}
}

func TestValidate(t *testing.T) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	valid := func() *Job {
		return &Job{
			Bucket:    "b",
			Key:       "k",
			Producers: []Producer{{Name: "dump", Run: "true"}},
			Compress:  "lz4",
			EncryptTo: []string{identity.Recipient().String()},
		}
	}

	tests := []struct {
		name   string
		modify func(*Job)
		want   string
	}{
		{"valid", func(*Job) {}, ""},
		{"no bucket", func(j *Job) { j.Bucket = "" }, "bucket is required"},
		{"no key", func(j *Job) { j.Key = "" }, "key is required"},
		{"no producers", func(j *Job) { j.Producers = nil }, "no producers"},
		{"unnamed producer", func(j *Job) { j.Producers[0].Name = "" }, "name is required"},
		{"bad producer name", func(j *Job) { j.Producers[0].Name = "dump db" }, "name must match"},
		{"empty run", func(j *Job) { j.Producers[0].Run = "  " }, "run is required"},
		{"duplicate producer", func(j *Job) { j.Producers = append(j.Producers, Producer{Name: "dump", Run: "true"}) }, "duplicate producer name"},
		{"bad compression", func(j *Job) { j.Compress = "gzip" }, "compress"},
		{"bad recipient", func(j *Job) { j.EncryptTo = []string{"ssh-ed25519 AAAA"} }, "encrypt_to[0]"},
		{"unexpanded key", func(j *Job) { j.Key = "${HOST}/x" }, "unexpanded reference ${HOST}"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			job := valid()
			test.modify(job)
			issues := Validate(job)
			if test.want == "" {
				if len(issues) != 0 {
					t.Fatalf("Validate = %v, want no issues", issues)
				}
				return
			}
			if len(issues) == 0 || !strings.Contains(strings.Join(issues, "\n"), test.want) {
				t.Fatalf("Validate = %v, want an issue containing %q", issues, test.want)
			}
		})
	}
}
