// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/safeupload/lib/logging"
	"github.com/bureau-foundation/safeupload/lib/relay"
	"github.com/bureau-foundation/safeupload/lib/upload"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "SAFEUPLOAD_CONFIG"

// RelayBinaryName is the relay executable looked up by BinaryPath when
// relay.binary is not set.
const RelayBinaryName = "safeupload-relay"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for safeupload.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Upload configures the upload tool and the orchestrator loop.
	Upload UploadConfig `yaml:"upload"`

	// Relay configures the relay process.
	Relay RelayConfig `yaml:"relay"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Upload  *UploadConfig  `yaml:"upload,omitempty"`
	Relay   *RelayConfig   `yaml:"relay,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for safeupload data.
	Root string `yaml:"root"`

	// Bin is where safeupload binaries are installed. Binaries are
	// looked up here before PATH.
	Bin string `yaml:"bin"`

	// Tokens hosts termination tokens. Every relay and orchestrator
	// sharing a machine may share this directory.
	Tokens string `yaml:"tokens"`
}

// UploadConfig configures the upload tool.
type UploadConfig struct {
	// Tool is the upload executable, a path or a name resolved with
	// BinaryPath.
	// Default: gof3r
	Tool string `yaml:"tool"`

	// Verb is the tool's first argument.
	// Default: put
	Verb string `yaml:"verb"`

	// PollInterval is the pause between process group checks.
	// Default: 250ms
	PollInterval time.Duration `yaml:"poll_interval"`
}

// RelayConfig configures the relay process.
type RelayConfig struct {
	// Binary is the relay executable. Empty resolves RelayBinaryName
	// with BinaryPath.
	Binary string `yaml:"binary"`

	// PollInterval is the relay's wait after an empty read.
	// Default: 250ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// BlockSize is the relay's largest read.
	// Default: 262144
	BlockSize int `yaml:"block_size"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info (development), warn (production)
	Level string `yaml:"level"`

	// Format is auto, text, or json.
	// Default: auto
	Format string `yaml:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "safeupload")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:   defaultRoot,
			Bin:    filepath.Join(defaultRoot, "bin"),
			Tokens: filepath.Join(defaultRoot, "tokens"),
		},
		Upload: UploadConfig{
			Tool:         "gof3r",
			Verb:         upload.DefaultUploaderVerb,
			PollInterval: upload.DefaultPollInterval,
		},
		Relay: RelayConfig{
			PollInterval: relay.DefaultPollInterval,
			BlockSize:    relay.DefaultBlockSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatAuto,
		},
	}
}

// Load loads configuration from the SAFEUPLOAD_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if SAFEUPLOAD_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your safeupload.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Files ending
// in .json or .jsonc are read as JSON with comments; anything else is
// YAML.
//
// The config file is the single source of truth. Environment variables do not
// override config values. The only expansion performed is ${HOME} and
// similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so the stripped document decodes
		// with the same struct tags.
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: quieter logs, machine-readable.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Logging: &LoggingConfig{
					Level:  "warn",
					Format: logging.FormatJSON,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Bin != "" {
			c.Paths.Bin = overrides.Paths.Bin
		}
		if overrides.Paths.Tokens != "" {
			c.Paths.Tokens = overrides.Paths.Tokens
		}
	}

	if overrides.Upload != nil {
		if overrides.Upload.Tool != "" {
			c.Upload.Tool = overrides.Upload.Tool
		}
		if overrides.Upload.Verb != "" {
			c.Upload.Verb = overrides.Upload.Verb
		}
		if overrides.Upload.PollInterval != 0 {
			c.Upload.PollInterval = overrides.Upload.PollInterval
		}
	}

	if overrides.Relay != nil {
		if overrides.Relay.Binary != "" {
			c.Relay.Binary = overrides.Relay.Binary
		}
		if overrides.Relay.PollInterval != 0 {
			c.Relay.PollInterval = overrides.Relay.PollInterval
		}
		if overrides.Relay.BlockSize != 0 {
			c.Relay.BlockSize = overrides.Relay.BlockSize
		}
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"SAFEUPLOAD_ROOT": c.Paths.Root,
		"HOME":            os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["SAFEUPLOAD_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Bin = expandVars(c.Paths.Bin, vars)
	c.Paths.Tokens = expandVars(c.Paths.Tokens, vars)
	c.Upload.Tool = expandVars(c.Upload.Tool, vars)
	c.Relay.Binary = expandVars(c.Relay.Binary, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Tokens == "" {
		errs = append(errs, fmt.Errorf("paths.tokens is required"))
	}

	if c.Upload.Tool == "" {
		errs = append(errs, fmt.Errorf("upload.tool is required"))
	}
	if c.Upload.Verb == "" {
		errs = append(errs, fmt.Errorf("upload.verb is required"))
	}
	if c.Upload.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("upload.poll_interval must be positive, got %v", c.Upload.PollInterval))
	}

	if c.Relay.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("relay.poll_interval must be positive, got %v", c.Relay.PollInterval))
	}
	if c.Relay.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("relay.block_size must be positive, got %d", c.Relay.BlockSize))
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	formats := []string{logging.FormatAuto, logging.FormatText, logging.FormatJSON}
	if !contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Bin,
		c.Paths.Tokens,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// BinaryPath returns the full path to an executable. Names containing
// a slash are returned as is. Otherwise it looks in Paths.Bin first,
// then falls back to exec.LookPath.
func (c *Config) BinaryPath(name string) (string, error) {
	if strings.Contains(name, "/") {
		return name, nil
	}

	// If Bin is configured, look there first.
	if c.Paths.Bin != "" {
		binPath := filepath.Join(c.Paths.Bin, name)
		if _, err := os.Stat(binPath); err == nil {
			return binPath, nil
		}
	}

	// Fall back to PATH lookup.
	path, err := exec.LookPath(name)
	if err != nil {
		if c.Paths.Bin != "" {
			return "", fmt.Errorf("%s not found in %s or PATH", name, c.Paths.Bin)
		}
		return "", fmt.Errorf("%s not found in PATH", name)
	}
	return path, nil
}

// LoggingOptions returns the logger settings for lib/logging.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Logging.Level, Format: c.Logging.Format}
}

// OrchestratorConfig resolves the relay and upload tool binaries and
// returns the upload.Config for this configuration. Clock, logger, and
// relay stderr are left for the caller.
func (c *Config) OrchestratorConfig() (upload.Config, error) {
	relayName := c.Relay.Binary
	if relayName == "" {
		relayName = RelayBinaryName
	}
	relayBinary, err := c.BinaryPath(relayName)
	if err != nil {
		return upload.Config{}, fmt.Errorf("resolving relay: %w", err)
	}
	uploaderBinary, err := c.BinaryPath(c.Upload.Tool)
	if err != nil {
		return upload.Config{}, fmt.Errorf("resolving upload tool: %w", err)
	}

	var relayArgs []string
	if c.Relay.BlockSize > 0 && c.Relay.BlockSize != relay.DefaultBlockSize {
		relayArgs = append(relayArgs, "--block-size", fmt.Sprint(c.Relay.BlockSize))
	}
	if c.Logging.Level != "" {
		relayArgs = append(relayArgs, "--log-level", c.Logging.Level)
	}

	return upload.Config{
		TokenDirectory:    c.Paths.Tokens,
		RelayBinary:       relayBinary,
		RelayArgs:         relayArgs,
		RelayPollInterval: c.Relay.PollInterval,
		UploaderBinary:    uploaderBinary,
		UploaderVerb:      c.Upload.Verb,
		PollInterval:      c.Upload.PollInterval,
	}, nil
}
