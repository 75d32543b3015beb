// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Options configures an engine. Path is a file or directory depending
// on the engine; engines that need one reject an empty Path.
type Options struct {
	Path   string
	Logger *slog.Logger

	// SyncWrites forces every commit to stable storage where the
	// engine supports the distinction.
	SyncWrites bool
}

// Log returns the configured logger or a discarding one.
func (o Options) Log() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Opener creates a Backend for an engine.
type Opener func(ctx context.Context, options Options) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register makes an engine available to Open. It panics on a
// duplicate name; engines call it from init.
func Register(name string, opener Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic("store: engine registered twice: " + name)
	}
	registry[name] = opener
}

// Open creates a backend using the named engine.
func Open(ctx context.Context, name string, options Options) (Backend, error) {
	registryMu.RLock()
	opener, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown engine %q (registered: %v)", name, Engines())
	}
	options.Logger = options.Log()
	backend, err := opener(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", name, err)
	}
	options.Logger.Info("storage opened", "engine", name, "path", options.Path)
	return backend, nil
}

// Engines lists registered engine names in sorted order.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
