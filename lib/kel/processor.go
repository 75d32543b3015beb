// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru"

	"github.com/bureau-foundation/keri/lib/clock"
	"github.com/bureau-foundation/keri/lib/database"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/state"
)

const defaultCacheSize = 1024

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	// Database persists remote logs, their states, receipts and the
	// escrow. Required; it must be the controller's database when
	// Controller is set.
	Database *database.EventDatabase

	// Controller, when set, receives the receipts of its own events
	// and resolves escrow through its lock.
	Controller *Controller

	// CacheSize is the number of remote states kept in memory.
	// Defaults to 1024.
	CacheSize int

	// MaxEscrowPerValidator and Clock apply to receipts about remote
	// identifiers; the controller's own settings apply to its receipts.
	MaxEscrowPerValidator int
	Clock                 clock.Clock

	// Logger defaults to discarding.
	Logger *slog.Logger
}

// Outcome is what Process did with a message.
type Outcome uint8

const (
	// OutcomeApplied: a log event was verified, folded and stored.
	OutcomeApplied Outcome = iota + 1
	// OutcomeReceiptAccepted: a receipt verified and was recorded.
	OutcomeReceiptAccepted
	// OutcomeReceiptEscrowed: a receipt waits for its validator.
	OutcomeReceiptEscrowed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeReceiptAccepted:
		return "receipt_accepted"
	case OutcomeReceiptEscrowed:
		return "receipt_escrowed"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// Result reports one processed message.
type Result struct {
	Outcome Outcome
	Prefix  prefix.Identifier
	SN      uint64

	// State is the identifier's state after an applied event.
	State state.IdentifierState

	// Resolution is the escrow pass an applied event triggered.
	Resolution Resolution
}

// Processor verifies and stores the logs of remote identifiers.
// Messages for different identifiers are processed in parallel; those
// for one identifier are serialized.
type Processor struct {
	db         *database.EventDatabase
	controller *Controller
	receipts   *receiptBook
	cache      *lru.Cache
	locks      prefixLocks
	logger     *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(config ProcessorConfig) (*Processor, error) {
	if config.Database == nil {
		panic("kel.Processor: Database is required")
	}
	if config.CacheSize <= 0 {
		config.CacheSize = defaultCacheSize
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	cache, err := lru.New(config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("kel: creating state cache: %w", err)
	}
	return &Processor{
		db:         config.Database,
		controller: config.Controller,
		receipts: &receiptBook{
			db:        config.Database,
			clock:     config.Clock,
			maxEscrow: config.MaxEscrowPerValidator,
			logger:    config.Logger,
		},
		cache:  cache,
		logger: config.Logger,
	}, nil
}

func (p *Processor) ownPrefix() prefix.Identifier {
	if p.controller == nil {
		return prefix.Identifier{}
	}
	return p.controller.Prefix()
}

func (p *Processor) isOwn(id prefix.Identifier) bool {
	own := p.ownPrefix()
	return !own.IsUnset() && own.Equal(id)
}

// State returns the known key state of id: the controller's for its
// own identifier, otherwise the cached or stored remote state.
func (p *Processor) State(ctx context.Context, id prefix.Identifier) (state.IdentifierState, bool, error) {
	if p.isOwn(id) {
		return p.controller.State(), true, nil
	}
	key := id.String()
	if cached, ok := p.cache.Get(key); ok {
		return cached.(state.IdentifierState).Clone(), true, nil
	}
	stored, found, err := p.db.State(ctx, id)
	if err != nil || !found {
		return state.IdentifierState{}, found, err
	}
	p.cache.Add(key, stored)
	return stored.Clone(), true, nil
}

// Process verifies one signed message and acts on it. Log events are
// folded onto the identifier's known state and stored, and escrowed
// receipts from that identifier are re-checked. Receipts are checked
// against the stored event they name and the validator's known state.
// An event already in the log fails with an error matching
// ErrDuplicate.
func (p *Processor) Process(ctx context.Context, signed event.SignedMessage) (Result, error) {
	ev := signed.Event()
	if ev.Ilk() == event.IlkReceipt {
		return p.processReceipt(ctx, signed)
	}
	if p.isOwn(ev.Prefix) {
		if p.duplicate(ctx, signed) {
			return Result{}, fmt.Errorf("%w: %s sn %d", ErrDuplicate, ev.Prefix, ev.SN)
		}
		return Result{}, fmt.Errorf("%w: %s sn %d", ErrOwnEvent, ev.Prefix, ev.SN)
	}

	unlock := p.locks.lock(ev.Prefix.String())
	defer unlock()

	prior, _, err := p.State(ctx, ev.Prefix)
	if err != nil {
		return Result{}, err
	}
	next, err := state.VerifyAndApply(signed, prior)
	if err != nil {
		if p.duplicate(ctx, signed) {
			return Result{}, errors.Join(ErrDuplicate, err)
		}
		p.logger.Info("event rejected",
			"prefix", ev.Prefix.String(), "sn", ev.SN, "ilk", string(ev.Ilk()), "error", err)
		return Result{}, err
	}
	if err := p.db.Commit(ctx, signed, next); err != nil {
		return Result{}, err
	}
	p.cache.Add(next.Prefix.String(), next)
	p.logger.Info("event applied", "prefix", next.Prefix.String(), "sn", next.SN, "ilk", string(ev.Ilk()))

	resolution, err := p.resolve(ctx, next)
	if err != nil {
		return Result{}, fmt.Errorf("kel: resolving escrow for %s: %w", next.Prefix, err)
	}
	return Result{Outcome: OutcomeApplied, Prefix: next.Prefix, SN: next.SN, State: next.Clone(), Resolution: resolution}, nil
}

func (p *Processor) resolve(ctx context.Context, validator state.IdentifierState) (Resolution, error) {
	if p.controller != nil {
		return p.controller.ResolveEscrow(ctx, validator)
	}
	return p.receipts.resolve(ctx, validator)
}

// processReceipt holds the validator's lock so that a receipt escrowed
// here cannot miss the resolution pass of a concurrent state change.
func (p *Processor) processReceipt(ctx context.Context, receipt event.SignedMessage) (Result, error) {
	ev := receipt.Event()
	data := ev.Data.(*event.Receipt)
	validatorPrefix := data.ValidatorLocationSeal.Prefix

	unlock := p.locks.lock(validatorPrefix.String())
	defer unlock()

	var validator *state.IdentifierState
	known, found, err := p.State(ctx, validatorPrefix)
	if err != nil {
		return Result{}, err
	}
	if found {
		validator = &known
	}

	var outcome ReceiptOutcome
	if p.isOwn(ev.Prefix) {
		outcome, err = p.controller.AddReceipt(ctx, validator, receipt)
	} else {
		outcome, err = p.receipts.add(ctx, receipt, validator)
		if err != nil {
			p.logger.Info("receipt rejected", "prefix", ev.Prefix.String(), "sn", ev.SN, "error", err)
		}
	}
	if err != nil {
		return Result{}, err
	}
	result := Result{Prefix: ev.Prefix, SN: ev.SN, Outcome: OutcomeReceiptAccepted}
	if outcome == ReceiptEscrowed {
		result.Outcome = OutcomeReceiptEscrowed
	}
	return result, nil
}

// duplicate reports whether the log already holds exactly signed's
// event at its sequence number.
func (p *Processor) duplicate(ctx context.Context, signed event.SignedMessage) bool {
	ev := signed.Event()
	stored, found, err := p.db.Event(ctx, ev.Prefix, ev.SN)
	if err != nil || !found {
		return false
	}
	storedCanonical, err := stored.Message.Canonical()
	if err != nil {
		return false
	}
	canonical, err := signed.Message.Canonical()
	if err != nil {
		return false
	}
	return bytes.Equal(storedCanonical, canonical)
}
