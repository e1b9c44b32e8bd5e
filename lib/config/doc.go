// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the safeupload
// binaries.
//
// Configuration is loaded from a single file specified by either the
// SAFEUPLOAD_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. Files are YAML, or JSON
// with comments when the name ends in .json or .jsonc.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production without an explicit section
// logs at warn level in JSON.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SAFEUPLOAD_ROOT}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// [Config.OrchestratorConfig] turns a loaded configuration into the
// upload.Config the orchestrator is constructed with, so that the token
// directory, the relay, and the upload tool are never looked up
// ambiently.
package config
