// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/keri/lib/clock"
	"github.com/bureau-foundation/keri/lib/database"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/store"
	"github.com/bureau-foundation/keri/lib/store/memstore"
	"github.com/bureau-foundation/keri/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var errInjected = errors.New("injected storage failure")

// flakyBackend fails every Update while failing is set.
type flakyBackend struct {
	store.Backend
	failing atomic.Bool
}

func (b *flakyBackend) Update(ctx context.Context, fn func(store.Tx) error) error {
	if b.failing.Load() {
		return errInjected
	}
	return b.Backend.Update(ctx, fn)
}

type fixture struct {
	backend *flakyBackend
	db      *database.EventDatabase
	clock   *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &flakyBackend{Backend: memstore.New()}
	t.Cleanup(func() { backend.Close() })
	db, err := database.New(backend, database.Options{})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	return &fixture{backend: backend, db: db, clock: clock.Fake(epoch)}
}

func (f *fixture) controller(t *testing.T, config ControllerConfig) *Controller {
	t.Helper()
	config.Database = f.db
	config.Clock = f.clock
	controller := NewController(config)
	t.Cleanup(func() {
		if manager := controller.Keys(); manager != nil {
			manager.Close()
		}
	})
	return controller
}

func (f *fixture) incepted(t *testing.T) *Controller {
	t.Helper()
	controller := f.controller(t, ControllerConfig{})
	if _, err := controller.Incept(context.Background(), InceptOptions{}); err != nil {
		t.Fatalf("Incept: %v", err)
	}
	return controller
}

func (f *fixture) processor(t *testing.T, controller *Controller) *Processor {
	t.Helper()
	processor, err := NewProcessor(ProcessorConfig{Database: f.db, Controller: controller, Clock: f.clock})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return processor
}

func storedEvent(t *testing.T, db *database.EventDatabase, id prefix.Identifier, sn uint64) event.SignedMessage {
	t.Helper()
	signed, found, err := db.Event(context.Background(), id, sn)
	if err != nil || !found {
		t.Fatalf("Event(%s, %d) = found %v, err %v", id, sn, found, err)
	}
	return signed
}

// forgeReceipt builds a receipt signed by validator with arbitrary
// bindings.
func forgeReceipt(t *testing.T, validator *testutil.Identity, id prefix.Identifier, sn uint64, digest prefix.SelfAddressing) event.SignedMessage {
	t.Helper()
	message, err := event.Event{
		Prefix: id,
		SN:     sn,
		Data: &event.Receipt{
			ReceiptedEventDigest:  digest,
			ValidatorLocationSeal: validator.State.LocationSeal(derivation.Blake3_256),
		},
	}.Message(validator.Format)
	if err != nil {
		t.Fatalf("receipt Message: %v", err)
	}
	return validator.Sign(message, validator.Keys.Current())
}

func digestOf(t *testing.T, signed event.SignedMessage) prefix.SelfAddressing {
	t.Helper()
	digest, err := signed.Message.Digest(derivation.Blake3_256)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	return digest
}
