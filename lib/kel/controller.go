// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/keri/lib/clock"
	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/database"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/keys"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/state"
)

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	// Database persists the log, receipts and escrow. Required.
	Database *database.EventDatabase

	// Format serializes events the controller creates. Defaults to
	// JSON.
	Format codec.Format

	// KeyCode is the key algorithm Incept generates keys with when it
	// is not given a key manager. Defaults to Ed25519.
	KeyCode derivation.Basic

	// DigestCode digests prior events, next-key commitments and
	// receipted events. Defaults to Blake3-256.
	DigestCode derivation.SelfAddressing

	// MaxEscrowPerValidator bounds the receipts escrowed under one
	// validator; the oldest are discarded first. Zero means unbounded.
	MaxEscrowPerValidator int

	// Clock stamps escrow entries. Defaults to the real clock.
	Clock clock.Clock

	// KeysChanged is called after a rotation has been stored and the
	// key manager has promoted its keys. The binary saves its keystore
	// here.
	KeysChanged func(*keys.Manager) error

	// Logger defaults to discarding.
	Logger *slog.Logger
}

// InceptOptions shapes a new identifier.
type InceptOptions struct {
	// Keys supplies the current and next keys. When nil, Incept
	// generates both with the configured key code.
	Keys *keys.Manager

	// Derivation selects how the identifier is derived. The zero value
	// selects a self-addressing identifier.
	Derivation prefix.Kind

	Witnesses     []prefix.Basic
	Tally         uint64
	Configuration []event.ConfigTrait
}

// Controller is the writer for one identifier this process owns.
type Controller struct {
	config   ControllerConfig
	logger   *slog.Logger
	receipts *receiptBook

	// mu serializes writers. keys is set once, by Incept or Load,
	// while mu is held.
	mu   sync.Mutex
	keys *keys.Manager

	current atomic.Pointer[state.IdentifierState]
}

// NewController returns a controller without an identifier. Call
// Incept to create one or Load to resume one from the database.
func NewController(config ControllerConfig) *Controller {
	if config.Database == nil {
		panic("kel.Controller: Database is required")
	}
	if config.Format == 0 {
		config.Format = codec.JSON
	}
	if config.KeyCode == 0 {
		config.KeyCode = derivation.Ed25519
	}
	if config.DigestCode == 0 {
		config.DigestCode = derivation.Blake3_256
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		config: config,
		logger: config.Logger,
		receipts: &receiptBook{
			db:        config.Database,
			clock:     config.Clock,
			maxEscrow: config.MaxEscrowPerValidator,
			logger:    config.Logger,
		},
	}
}

// State returns a copy of the controller's key state. Before Incept
// or Load it is the zero state.
func (c *Controller) State() state.IdentifierState {
	current := c.current.Load()
	if current == nil {
		return state.IdentifierState{}
	}
	return current.Clone()
}

// Prefix returns the controller's identifier, unset before Incept or
// Load.
func (c *Controller) Prefix() prefix.Identifier {
	if current := c.current.Load(); current != nil {
		return current.Prefix
	}
	return prefix.Identifier{}
}

// Keys returns the key manager, nil before Incept or Load.
func (c *Controller) Keys() *keys.Manager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys
}

// Incept creates the controller's identifier and stores its inception.
func (c *Controller) Incept(ctx context.Context, options InceptOptions) (event.SignedMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys != nil {
		return event.SignedMessage{}, ErrAlreadyIncepted
	}

	manager := options.Keys
	generated := manager == nil
	if generated {
		var err error
		if manager, err = keys.NewManager(c.config.KeyCode); err != nil {
			return event.SignedMessage{}, err
		}
	}
	release := func() {
		if generated {
			manager.Close()
		}
	}

	signer := manager.Current()
	how, err := c.derivation(options.Derivation, signer)
	if err != nil {
		release()
		return event.SignedMessage{}, err
	}
	// Non-transferable keys commit to nothing.
	var next prefix.SelfAddressing
	if signer.PublicKey().Transferable() {
		next = manager.NextCommitment(c.config.DigestCode)
	}
	message, err := event.Incept(&event.Inception{
		KeyConfig:     event.NewKeyConfig(1, keys.PublicKeys(signer), next),
		WitnessConfig: event.InceptionWitnessConfig{Tally: options.Tally, Initial: options.Witnesses},
		Configuration: options.Configuration,
	}, c.config.Format, how)
	if err != nil {
		release()
		return event.SignedMessage{}, err
	}
	signed, err := signMessage(message, signer, 0)
	if err != nil {
		release()
		return event.SignedMessage{}, err
	}
	folded, err := state.VerifyAndApply(signed, state.IdentifierState{})
	if err != nil {
		release()
		return event.SignedMessage{}, err
	}
	if err := c.config.Database.CommitInception(ctx, signed, folded); err != nil {
		release()
		if errors.Is(err, database.ErrOwnIdentifierExists) {
			return event.SignedMessage{}, ErrAlreadyIncepted
		}
		return event.SignedMessage{}, err
	}

	c.keys = manager
	c.current.Store(&folded)
	c.logger.Info("identifier incepted", "prefix", folded.Prefix.String(), "derivation", how.String())
	return signed, nil
}

func (c *Controller) derivation(kind prefix.Kind, signer keys.Signer) (event.Derivation, error) {
	switch kind {
	case prefix.Unset, prefix.KindSelfAddressing:
		return event.SelfAddressingDerivation(c.config.DigestCode), nil
	case prefix.KindBasic:
		return event.BasicDerivation(), nil
	case prefix.KindSelfSigning:
		code, ok := signer.Code().SigningCode()
		if !ok {
			return event.Derivation{}, fmt.Errorf("kel: %s keys cannot sign", signer.Code())
		}
		return event.SelfSigningDerivation(code, signer.Sign), nil
	default:
		return event.Derivation{}, fmt.Errorf("kel: unsupported derivation %s", kind)
	}
}

// Load resumes the identifier recorded in the database. The stored log
// is replayed through full verification from the empty state, and
// manager must hold the keys the log currently establishes.
func (c *Controller) Load(ctx context.Context, manager *keys.Manager) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys != nil {
		return ErrAlreadyIncepted
	}
	own, found, err := c.config.Database.OwnIdentifier(ctx)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotIncepted
	}
	folded, err := Replay(ctx, c.config.Database, own)
	if err != nil {
		return err
	}
	if _, ok := folded.Current.Index(manager.Current().PublicKey()); !ok {
		return fmt.Errorf("%w: current key is not in the key configuration at sn %d", ErrKeysMismatch, folded.SN)
	}
	commitment := folded.Current.NextKeyDigest
	if !commitment.IsZero() && !commitment.Equal(manager.NextCommitment(commitment.Code)) {
		return fmt.Errorf("%w: next key does not match the commitment at sn %d", ErrKeysMismatch, folded.SN)
	}
	if err := c.config.Database.SaveState(ctx, folded); err != nil {
		return err
	}

	c.keys = manager
	c.current.Store(&folded)
	c.logger.Info("identifier loaded", "prefix", folded.Prefix.String(), "sn", folded.SN)
	return nil
}

// Replay folds the stored log of id from the empty state, verifying
// every event again.
func Replay(ctx context.Context, db *database.EventDatabase, id prefix.Identifier) (state.IdentifierState, error) {
	log, err := db.Events(ctx, id)
	if err != nil {
		return state.IdentifierState{}, err
	}
	if len(log) == 0 {
		return state.IdentifierState{}, fmt.Errorf("kel: no stored events for %s", id)
	}
	var folded state.IdentifierState
	for _, signed := range log {
		next, err := state.VerifyAndApply(signed, folded)
		if err != nil {
			return state.IdentifierState{}, fmt.Errorf("kel: replaying %s sn %d: %w", id, signed.Event().SN, err)
		}
		folded = next
	}
	return folded, nil
}

// Interact anchors seals in a new interaction event.
func (c *Controller) Interact(ctx context.Context, seals ...event.Seal) (event.SignedMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.current.Load()
	if current == nil {
		return event.SignedMessage{}, ErrNotIncepted
	}
	message, err := event.Event{
		Prefix: current.Prefix,
		SN:     current.SN + 1,
		Data: &event.Interaction{
			PreviousEventHash: current.LastDigest(c.config.DigestCode),
			Data:              seals,
		},
	}.Message(c.config.Format)
	if err != nil {
		return event.SignedMessage{}, err
	}
	signer := c.keys.Current()
	index, _ := current.Current.Index(signer.PublicKey())
	signed, err := signMessage(message, signer, index)
	if err != nil {
		return event.SignedMessage{}, err
	}
	if err := c.commit(ctx, signed, *current); err != nil {
		return event.SignedMessage{}, err
	}
	return signed, nil
}

// Rotate establishes the pre-committed next key as current and
// commits to a freshly generated next key. If any step fails the key
// manager and the state are left as they were.
func (c *Controller) Rotate(ctx context.Context) (event.SignedMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.current.Load()
	if current == nil {
		return event.SignedMessage{}, ErrNotIncepted
	}

	staged, err := c.keys.Stage()
	if err != nil {
		return event.SignedMessage{}, err
	}
	committed := false
	defer func() {
		if !committed {
			c.keys.Discard(staged)
		}
	}()

	message, err := event.Event{
		Prefix: current.Prefix,
		SN:     current.SN + 1,
		Data: &event.Rotation{
			PreviousEventHash: current.LastDigest(c.config.DigestCode),
			KeyConfig:         event.NewKeyConfig(1, keys.PublicKeys(staged.Signer), staged.Commitment(c.config.DigestCode)),
			WitnessConfig:     event.WitnessConfig{Tally: current.Witnesses.Tally},
		},
	}.Message(c.config.Format)
	if err != nil {
		return event.SignedMessage{}, err
	}
	signed, err := signMessage(message, staged.Signer, 0)
	if err != nil {
		return event.SignedMessage{}, err
	}
	if err := c.commit(ctx, signed, *current); err != nil {
		return event.SignedMessage{}, err
	}
	if err := c.keys.Commit(staged); err != nil {
		return signed, fmt.Errorf("kel: rotation %d stored but keys not promoted: %w", signed.Event().SN, err)
	}
	committed = true

	if c.config.KeysChanged != nil {
		if err := c.config.KeysChanged(c.keys); err != nil {
			return signed, fmt.Errorf("kel: rotation %d stored but saving keys failed: %w", signed.Event().SN, err)
		}
	}
	return signed, nil
}

// commit verifies signed against prior, stores the event and the new
// state together, and publishes the state. Called with mu held.
func (c *Controller) commit(ctx context.Context, signed event.SignedMessage, prior state.IdentifierState) error {
	next, err := state.VerifyAndApply(signed, prior)
	if err != nil {
		return err
	}
	if err := c.config.Database.Commit(ctx, signed, next); err != nil {
		return err
	}
	c.current.Store(&next)
	c.logger.Info("event committed",
		"prefix", next.Prefix.String(), "sn", next.SN, "ilk", string(signed.Event().Ilk()))
	return nil
}

// MakeReceipt issues a receipt for another identifier's event, signed
// with the controller's current key.
func (c *Controller) MakeReceipt(target event.Message) (event.SignedMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.current.Load()
	if current == nil {
		return event.SignedMessage{}, ErrNotIncepted
	}
	return MakeReceipt(*current, c.keys.Current(), target, c.config.Format, c.config.DigestCode)
}

// AddReceipt checks a receipt of one of the controller's own events.
// validator is the issuer's key state, nil when unknown. A receipt
// that cannot be verified yet is escrowed; one that fails a binding or
// its signatures is rejected with an error.
func (c *Controller) AddReceipt(ctx context.Context, validator *state.IdentifierState, receipt event.SignedMessage) (ReceiptOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.current.Load()
	if current == nil {
		return 0, ErrNotIncepted
	}
	ev := receipt.Event()
	if ev.Ilk() == event.IlkReceipt && !ev.Prefix.Equal(current.Prefix) {
		return 0, &ReceiptError{Binding: BindingPrefix, Prefix: ev.Prefix, SN: ev.SN,
			Detail: fmt.Sprintf("receipt is not about %s", current.Prefix)}
	}
	outcome, err := c.receipts.add(ctx, receipt, validator)
	if err != nil {
		c.logger.Info("receipt rejected", "prefix", ev.Prefix.String(), "sn", ev.SN, "error", err)
		return 0, err
	}
	return outcome, nil
}

// ResolveEscrow re-checks the receipts escrowed under validator's
// prefix against its current state.
func (c *Controller) ResolveEscrow(ctx context.Context, validator state.IdentifierState) (Resolution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipts.resolve(ctx, validator)
}

// PurgeEscrow discards escrowed receipts that arrived more than
// olderThan ago.
func (c *Controller) PurgeEscrow(ctx context.Context, olderThan time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipts.purge(ctx, olderThan)
}

// Receipts returns the accepted receipts for the controller's event
// at sn.
func (c *Controller) Receipts(ctx context.Context, sn uint64) ([]event.SignedMessage, error) {
	current := c.current.Load()
	if current == nil {
		return nil, ErrNotIncepted
	}
	return c.config.Database.Receipts(ctx, current.Prefix, sn)
}

// Log returns the controller's stored key event log.
func (c *Controller) Log(ctx context.Context) ([]event.SignedMessage, error) {
	current := c.current.Load()
	if current == nil {
		return nil, ErrNotIncepted
	}
	return c.config.Database.Events(ctx, current.Prefix)
}
