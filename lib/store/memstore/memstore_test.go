// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/keri/lib/store"
	"github.com/bureau-foundation/keri/lib/store/memstore"
	"github.com/bureau-foundation/keri/lib/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend { return memstore.New() })
}

func TestRegistered(t *testing.T) {
	backend, err := store.Open(context.Background(), memstore.EngineName, store.Options{})
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	defer backend.Close()
}

func TestClosed(t *testing.T) {
	backend := memstore.New()
	backend.Close()
	err := backend.View(context.Background(), func(store.Tx) error { return nil })
	if !errors.Is(err, store.ErrClosed) {
		t.Fatalf("View after Close error = %v, want ErrClosed", err)
	}
}
