// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local experiments and tests.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for long-lived nodes.
	Production Environment = "production"
)

// Config is the master configuration for a node.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment" toml:"environment" json:"environment"`

	Paths    PathsConfig    `yaml:"paths" toml:"paths" json:"paths"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage" json:"storage"`
	Identity IdentityConfig `yaml:"identity" toml:"identity" json:"identity"`
	Escrow   EscrowConfig   `yaml:"escrow" toml:"escrow" json:"escrow"`
	Network  NetworkConfig  `yaml:"network" toml:"network" json:"network"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging" json:"logging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty" toml:"development,omitempty" json:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty" toml:"staging,omitempty" json:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty" toml:"production,omitempty" json:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
// Empty strings and zero numbers leave the base value in place.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty" toml:"paths,omitempty" json:"paths,omitempty"`
	Storage *StorageConfig `yaml:"storage,omitempty" toml:"storage,omitempty" json:"storage,omitempty"`
	Escrow  *EscrowConfig  `yaml:"escrow,omitempty" toml:"escrow,omitempty" json:"escrow,omitempty"`
	Network *NetworkConfig `yaml:"network,omitempty" toml:"network,omitempty" json:"network,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty" toml:"logging,omitempty" json:"logging,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for node data.
	Root string `yaml:"root" toml:"root" json:"root"`

	// State holds the event database when Storage.Path is relative.
	State string `yaml:"state" toml:"state" json:"state"`

	// Keystore is the age-encrypted file holding the current and
	// next keypairs.
	Keystore string `yaml:"keystore" toml:"keystore" json:"keystore"`
}

// StorageConfig selects and tunes the storage engine.
type StorageConfig struct {
	// Engine is a registered engine name: memory, sqlite, bolt,
	// leveldb, or badger.
	Engine string `yaml:"engine" toml:"engine" json:"engine"`

	// Path is the engine's file or directory. A relative path is
	// resolved against Paths.State.
	Path string `yaml:"path" toml:"path" json:"path"`

	// Compression applies to stored values: none, lz4, or zstd.
	Compression string `yaml:"compression" toml:"compression" json:"compression"`

	// SyncWrites forces each commit to stable storage.
	SyncWrites bool `yaml:"sync_writes" toml:"sync_writes" json:"sync_writes"`
}

// IdentityConfig controls how the node's own identifier is incepted.
// It has no effect once an identifier exists.
type IdentityConfig struct {
	// KeyCode is the derivation code of signing keys ("D" for
	// Ed25519, "1AAB" for secp256k1).
	KeyCode string `yaml:"key_code" toml:"key_code" json:"key_code"`

	// DigestCode is the derivation code of digests ("E" for Blake3-256).
	DigestCode string `yaml:"digest_code" toml:"digest_code" json:"digest_code"`

	// Format is the serialization of emitted events: json or cbor.
	Format string `yaml:"format" toml:"format" json:"format"`

	// Derivation picks the prefix kind: basic, self-addressing, or
	// self-signing.
	Derivation string `yaml:"derivation" toml:"derivation" json:"derivation"`

	// Witnesses are identifier prefixes in text form.
	Witnesses []string `yaml:"witnesses" toml:"witnesses" json:"witnesses"`

	// Threshold is the witness tally. Zero with no witnesses.
	Threshold uint64 `yaml:"threshold" toml:"threshold" json:"threshold"`
}

// EscrowConfig bounds receipts held for validators whose state is not
// known yet.
type EscrowConfig struct {
	// MaxPerValidator caps entries per validator; the oldest are
	// dropped first.
	MaxPerValidator int `yaml:"max_per_validator" toml:"max_per_validator" json:"max_per_validator"`

	// MaxAge is a duration ("24h"); older entries are purged.
	MaxAge string `yaml:"max_age" toml:"max_age" json:"max_age"`
}

// NetworkConfig configures the direct-mode transport.
type NetworkConfig struct {
	// Listen is the TCP address to accept peers on.
	Listen string `yaml:"listen" toml:"listen" json:"listen"`

	// DialTimeout is a duration ("10s") for outbound connections.
	DialTimeout string `yaml:"dial_timeout" toml:"dial_timeout" json:"dial_timeout"`

	// MaxMessageSize bounds a single signed message in bytes.
	MaxMessageSize int `yaml:"max_message_size" toml:"max_message_size" json:"max_message_size"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" toml:"level" json:"level"`

	// Format is json, text, or auto (text on a terminal).
	Format string `yaml:"format" toml:"format" json:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "keri")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:     defaultRoot,
			State:    filepath.Join(defaultRoot, "state"),
			Keystore: filepath.Join(defaultRoot, "keystore.age"),
		},
		Storage: StorageConfig{
			Engine:      "sqlite",
			Path:        "events.db",
			Compression: "none",
		},
		Identity: IdentityConfig{
			KeyCode:    "D",
			DigestCode: "E",
			Format:     "json",
			Derivation: "self-addressing",
		},
		Escrow: EscrowConfig{
			MaxPerValidator: 1024,
			MaxAge:          "24h",
		},
		Network: NetworkConfig{
			Listen:         "127.0.0.1:5621",
			DialTimeout:    "10s",
			MaxMessageSize: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the KERI_CONFIG environment variable.
//
// There are no fallbacks or defaults - if KERI_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("KERI_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("KERI_CONFIG environment variable not set; " +
			"set it to the path of your config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The format
// follows the extension: .yaml/.yml, .toml, or .json/.jsonc (comments
// and trailing commas allowed).
//
// The config file is the single source of truth. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, c)
	case ".toml":
		return toml.Unmarshal(data, c)
	case ".json", ".jsonc":
		return json.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return fmt.Errorf("unsupported config extension %q (expected .yaml, .toml, or .json)", extension)
	}
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
		// Production defaults: durable writes and machine-readable logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Storage: &StorageConfig{SyncWrites: true},
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		override(&c.Paths.Root, overrides.Paths.Root)
		override(&c.Paths.State, overrides.Paths.State)
		override(&c.Paths.Keystore, overrides.Paths.Keystore)
	}

	if overrides.Storage != nil {
		override(&c.Storage.Engine, overrides.Storage.Engine)
		override(&c.Storage.Path, overrides.Storage.Path)
		override(&c.Storage.Compression, overrides.Storage.Compression)
		// SyncWrites is a bool, so we always apply it from overrides.
		c.Storage.SyncWrites = overrides.Storage.SyncWrites
	}

	if overrides.Escrow != nil {
		override(&c.Escrow.MaxPerValidator, overrides.Escrow.MaxPerValidator)
		override(&c.Escrow.MaxAge, overrides.Escrow.MaxAge)
	}

	if overrides.Network != nil {
		override(&c.Network.Listen, overrides.Network.Listen)
		override(&c.Network.DialTimeout, overrides.Network.DialTimeout)
		override(&c.Network.MaxMessageSize, overrides.Network.MaxMessageSize)
	}

	if overrides.Logging != nil {
		override(&c.Logging.Level, overrides.Logging.Level)
		override(&c.Logging.Format, overrides.Logging.Format)
	}
}

func override[T comparable](target *T, value T) {
	var zero T
	if value != zero {
		*target = value
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"KERI_ROOT": c.Paths.Root,
		"HOME":      os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["KERI_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.State = expandVars(c.Paths.State, vars)
	c.Paths.Keystore = expandVars(c.Paths.Keystore, vars)
	c.Storage.Path = expandVars(c.Storage.Path, vars)
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

// Validate checks the configuration for errors that do not depend on
// other packages. Codes and engine names are checked where they are
// parsed.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Storage.Engine == "" {
		errs = append(errs, fmt.Errorf("storage.engine is required"))
	}

	derivations := []string{"basic", "self-addressing", "self-signing"}
	if !slices.Contains(derivations, c.Identity.Derivation) {
		errs = append(errs, fmt.Errorf("identity.derivation must be one of: %v", derivations))
	}
	if c.Identity.Threshold > uint64(len(c.Identity.Witnesses)) {
		errs = append(errs, fmt.Errorf("identity.threshold %d exceeds the %d configured witnesses",
			c.Identity.Threshold, len(c.Identity.Witnesses)))
	}

	if c.Escrow.MaxPerValidator < 0 {
		errs = append(errs, fmt.Errorf("escrow.max_per_validator must not be negative"))
	}
	if _, err := c.EscrowMaxAge(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.DialTimeout(); err != nil {
		errs = append(errs, err)
	}
	if c.Network.MaxMessageSize < 0 {
		errs = append(errs, fmt.Errorf("network.max_message_size must not be negative"))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}
	formats := []string{"auto", "json", "text"}
	if !slices.Contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EscrowMaxAge parses Escrow.MaxAge. An empty value disables purging
// and returns zero.
func (c *Config) EscrowMaxAge() (time.Duration, error) {
	return parseDuration("escrow.max_age", c.Escrow.MaxAge)
}

// DialTimeout parses Network.DialTimeout. An empty value returns zero.
func (c *Config) DialTimeout() (time.Duration, error) {
	return parseDuration("network.dial_timeout", c.Network.DialTimeout)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return duration, nil
}

// StoragePath returns Storage.Path resolved against Paths.State.
func (c *Config) StoragePath() string {
	if c.Storage.Path == "" || filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(c.Paths.State, c.Storage.Path)
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.State,
	}
	if c.Paths.Keystore != "" {
		paths = append(paths, filepath.Dir(c.Paths.Keystore))
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
