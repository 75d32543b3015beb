// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/keri/lib/store"
	"github.com/bureau-foundation/keri/lib/store/boltstore"
	"github.com/bureau-foundation/keri/lib/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		backend, err := boltstore.Open(store.Options{Path: filepath.Join(t.TempDir(), "kv.bolt")})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return backend
	})
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := boltstore.Open(store.Options{}); err == nil {
		t.Fatal("Open without a path succeeded")
	}
}
