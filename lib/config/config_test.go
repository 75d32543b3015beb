// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Storage.Engine != "sqlite" {
		t.Errorf("expected engine=sqlite, got %s", cfg.Storage.Engine)
	}
	if cfg.Identity.KeyCode != "D" || cfg.Identity.DigestCode != "E" {
		t.Errorf("expected Ed25519 keys with Blake3-256 digests, got key=%s digest=%s",
			cfg.Identity.KeyCode, cfg.Identity.DigestCode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresConfigVariable(t *testing.T) {
	t.Setenv("KERI_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when KERI_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "KERI_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestLoad_WithConfigVariable(t *testing.T) {
	path := writeConfig(t, "keri.yaml", `
environment: staging
paths:
  root: /test/root
`)
	t.Setenv("KERI_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}
	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}
}

// Each format describes the same settings.
func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "keri.yaml",
			content: `
environment: staging
storage:
  engine: bolt
  path: /data/events.bolt
  compression: zstd
identity:
  format: cbor
  witnesses: [BWitnessOne, BWitnessTwo]
  threshold: 2
escrow:
  max_per_validator: 16
  max_age: 90m
network:
  listen: 0.0.0.0:7000
  dial_timeout: 3s
`,
		},
		{
			name: "toml",
			file: "keri.toml",
			content: `
environment = "staging"

[storage]
engine = "bolt"
path = "/data/events.bolt"
compression = "zstd"

[identity]
format = "cbor"
witnesses = ["BWitnessOne", "BWitnessTwo"]
threshold = 2

[escrow]
max_per_validator = 16
max_age = "90m"

[network]
listen = "0.0.0.0:7000"
dial_timeout = "3s"
`,
		},
		{
			name: "jsonc",
			file: "keri.jsonc",
			content: `{
  // Comments and trailing commas are accepted.
  "environment": "staging",
  "storage": {"engine": "bolt", "path": "/data/events.bolt", "compression": "zstd"},
  "identity": {"format": "cbor", "witnesses": ["BWitnessOne", "BWitnessTwo"], "threshold": 2},
  "escrow": {"max_per_validator": 16, "max_age": "90m"},
  "network": {"listen": "0.0.0.0:7000", "dial_timeout": "3s",},
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFile(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}

			if cfg.Environment != Staging {
				t.Errorf("expected environment=staging, got %s", cfg.Environment)
			}
			if cfg.Storage.Engine != "bolt" || cfg.Storage.Compression != "zstd" {
				t.Errorf("storage = %+v", cfg.Storage)
			}
			if cfg.StoragePath() != "/data/events.bolt" {
				t.Errorf("StoragePath() = %s, want the absolute path unchanged", cfg.StoragePath())
			}
			if cfg.Identity.Format != "cbor" || len(cfg.Identity.Witnesses) != 2 || cfg.Identity.Threshold != 2 {
				t.Errorf("identity = %+v", cfg.Identity)
			}
			// Fields the file leaves out keep their defaults.
			if cfg.Identity.KeyCode != "D" {
				t.Errorf("expected default key_code=D, got %s", cfg.Identity.KeyCode)
			}
			if cfg.Escrow.MaxPerValidator != 16 {
				t.Errorf("expected max_per_validator=16, got %d", cfg.Escrow.MaxPerValidator)
			}
			if maxAge, _ := cfg.EscrowMaxAge(); maxAge != 90*time.Minute {
				t.Errorf("EscrowMaxAge() = %v, want 90m", maxAge)
			}
			if timeout, _ := cfg.DialTimeout(); timeout != 3*time.Second {
				t.Errorf("DialTimeout() = %v, want 3s", timeout)
			}
			if cfg.Network.Listen != "0.0.0.0:7000" {
				t.Errorf("expected listen=0.0.0.0:7000, got %s", cfg.Network.Listen)
			}
		})
	}
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "keri.ini", "environment=development\n"))
	if err == nil || !strings.Contains(err.Error(), "unsupported config extension") {
		t.Errorf("LoadFile() error = %v, want unsupported extension", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "keri.yaml", `
environment: production

paths:
  root: /default/root

storage:
  engine: sqlite
  compression: none

production:
  paths:
    root: /prod/root
  storage:
    engine: badger
    compression: lz4
    sync_writes: true
  logging:
    level: warn
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}
	if cfg.Storage.Engine != "badger" || cfg.Storage.Compression != "lz4" || !cfg.Storage.SyncWrites {
		t.Errorf("storage = %+v, want production override", cfg.Storage)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level=warn, got %s", cfg.Logging.Level)
	}
	// Overrides leave unmentioned fields alone.
	if cfg.Logging.Format != "auto" {
		t.Errorf("expected format=auto, got %s", cfg.Logging.Format)
	}
}

func TestProductionDefaults(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "keri.yaml", "environment: production\n"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.Storage.SyncWrites {
		t.Error("expected sync_writes=true in production")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected format=json in production, got %s", cfg.Logging.Format)
	}
}

func TestDevelopmentIgnoresOtherSections(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "keri.yaml", `
environment: development
production:
  storage:
    engine: badger
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Storage.Engine != "sqlite" {
		t.Errorf("expected engine=sqlite, got %s", cfg.Storage.Engine)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// Environment variables other than path expansion are ignored.
	t.Setenv("KERI_ROOT", "/env/root")
	t.Setenv("KERI_ENVIRONMENT", "staging")

	cfg, err := LoadFile(writeConfig(t, "keri.yaml", `
environment: development
paths:
  root: /file/root
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s", cfg.Environment)
	}
	if cfg.Paths.Root != "/file/root" {
		t.Errorf("expected root=/file/root from file, got %s", cfg.Paths.Root)
	}
}

func TestPathExpansion(t *testing.T) {
	t.Setenv("HOME", "/home/node")

	cfg, err := LoadFile(writeConfig(t, "keri.yaml", `
paths:
  root: ${HOME}/keri
  state: ${KERI_ROOT}/state
  keystore: ${KERI_ROOT}/keys.age
storage:
  path: events.db
`))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/home/node/keri" {
		t.Errorf("root = %s", cfg.Paths.Root)
	}
	if cfg.Paths.Keystore != "/home/node/keri/keys.age" {
		t.Errorf("keystore = %s", cfg.Paths.Keystore)
	}
	if cfg.StoragePath() != "/home/node/keri/state/events.db" {
		t.Errorf("StoragePath() = %s", cfg.StoragePath())
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/keri",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/keri",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid environment",
			modify:  func(c *Config) { c.Environment = "invalid" },
			wantErr: true,
		},
		{
			name:    "empty root path",
			modify:  func(c *Config) { c.Paths.Root = "" },
			wantErr: true,
		},
		{
			name:    "empty engine",
			modify:  func(c *Config) { c.Storage.Engine = "" },
			wantErr: true,
		},
		{
			name:    "unknown derivation",
			modify:  func(c *Config) { c.Identity.Derivation = "delegated" },
			wantErr: true,
		},
		{
			name: "threshold above witness count",
			modify: func(c *Config) {
				c.Identity.Witnesses = []string{"BWitness"}
				c.Identity.Threshold = 2
			},
			wantErr: true,
		},
		{
			name:    "malformed escrow age",
			modify:  func(c *Config) { c.Escrow.MaxAge = "a while" },
			wantErr: true,
		},
		{
			name:    "negative dial timeout",
			modify:  func(c *Config) { c.Network.DialTimeout = "-1s" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "empty escrow age disables purging",
			modify:  func(c *Config) { c.Escrow.MaxAge = "" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "keri")
	cfg.Paths.State = filepath.Join(cfg.Paths.Root, "state")
	cfg.Paths.Keystore = filepath.Join(cfg.Paths.Root, "keys", "keystore.age")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.Root, cfg.Paths.State, filepath.Dir(cfg.Paths.Keystore)} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
