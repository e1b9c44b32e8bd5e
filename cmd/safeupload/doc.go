// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// safeupload streams the output of a pipeline of producer commands to
// an object store through an external upload tool, and lets the object
// appear only if every producer succeeded.
//
// Usage:
//
//	safeupload put --bucket B --key K [--check CMD] [--compress zstd|lz4]
//	               [--encrypt-to age1...] [--config F] -- CMD [CMD...]
//	safeupload run JOB.jsonc [--var NAME=VALUE] [--config F]
//	safeupload stage [--compress zstd|lz4] [--encrypt-to age1...]
//	safeupload stage --reverse [--compress zstd|lz4] [--identity FILE]
//	safeupload version
//
// put runs each CMD with sh -c as one stage of a shell-style pipeline.
// run reads the same job from a JSONC file (see lib/jobdef), expanding
// ${NAME} in the bucket, key, and check from the environment and --var.
// When compression or encryption is requested, "safeupload stage" is
// appended as the final pipeline stage, so a failure there is a
// producer failure like any other.
//
// Configuration comes from --config or SAFEUPLOAD_CONFIG (see
// lib/config): the token directory, the relay binary, the upload tool,
// and poll intervals.
//
// Exit codes: 0 on a committed upload, 1 on any failure (the producers
// are killed and nothing is committed unless the failure came after the
// commit), 2 on usage errors.
package main
