// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for keri nodes.
//
// Configuration is loaded from a single file specified by either the
// KERI_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. The file's extension picks the
// format: YAML, TOML, or JSON with comments.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production without an explicit
// section turns on synchronous writes and JSON logs.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${KERI_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Values that name derivation codes, serialization formats, or storage
// engines stay strings here; the command parses them with the owning
// package so this package depends on no other keri packages.
package config
