// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/keri/lib/clock"
	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/config"
	"github.com/bureau-foundation/keri/lib/database"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/kel"
	"github.com/bureau-foundation/keri/lib/keys"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/lib/sealed"
	"github.com/bureau-foundation/keri/lib/secret"
	"github.com/bureau-foundation/keri/lib/store"

	// Engines register themselves by name.
	_ "github.com/bureau-foundation/keri/lib/store/badgerstore"
	_ "github.com/bureau-foundation/keri/lib/store/boltstore"
	_ "github.com/bureau-foundation/keri/lib/store/leveldbstore"
	_ "github.com/bureau-foundation/keri/lib/store/memstore"
	_ "github.com/bureau-foundation/keri/lib/store/sqlitestore"
)

// node is one identifier with its storage and the processor for its
// peers' logs.
type node struct {
	config     *config.Config
	logger     *slog.Logger
	backend    store.Backend
	db         *database.EventDatabase
	controller *kel.Controller
	processor  *kel.Processor
}

type nodeOptions struct {
	Config *config.Config
	Logger *slog.Logger

	// Passphrase unlocks the keystore. It is borrowed for the node's
	// lifetime and may be nil when Config.Paths.Keystore is empty.
	Passphrase *secret.Buffer

	Keystore sealed.Options

	// Clock stamps escrowed receipts. Defaults to the wall clock.
	Clock clock.Clock
}

// identitySettings is the parsed form of config.IdentityConfig.
type identitySettings struct {
	keyCode    derivation.Basic
	digestCode derivation.SelfAddressing
	format     codec.Format
	kind       prefix.Kind
	witnesses  []prefix.Basic
	threshold  uint64
}

var derivationKinds = map[string]prefix.Kind{
	"basic":           prefix.KindBasic,
	"self-addressing": prefix.KindSelfAddressing,
	"self-signing":    prefix.KindSelfSigning,
}

func parseIdentity(identity config.IdentityConfig) (identitySettings, error) {
	var settings identitySettings
	var err error
	if settings.keyCode, err = derivation.ParseBasic(identity.KeyCode); err != nil {
		return settings, fmt.Errorf("identity.key_code: %w", err)
	}
	if settings.digestCode, err = derivation.ParseSelfAddressing(identity.DigestCode); err != nil {
		return settings, fmt.Errorf("identity.digest_code: %w", err)
	}
	if settings.format, err = codec.ParseFormat(identity.Format); err != nil {
		return settings, fmt.Errorf("identity.format: %w", err)
	}
	kind, ok := derivationKinds[identity.Derivation]
	if !ok {
		return settings, fmt.Errorf("identity.derivation: unknown kind %q", identity.Derivation)
	}
	settings.kind = kind
	for _, text := range identity.Witnesses {
		witness, err := prefix.ParseBasic(text)
		if err != nil {
			return settings, fmt.Errorf("identity.witnesses: %q: %w", text, err)
		}
		settings.witnesses = append(settings.witnesses, witness)
	}
	settings.threshold = identity.Threshold
	return settings, nil
}

// openNode opens storage and resumes the identifier recorded there, or
// incepts a new one when the keystore does not exist yet.
func openNode(ctx context.Context, options nodeOptions) (_ *node, err error) {
	cfg := options.Config
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	identity, err := parseIdentity(cfg.Identity)
	if err != nil {
		return nil, err
	}
	compression, err := store.ParseCompression(cfg.Storage.Compression)
	if err != nil {
		return nil, fmt.Errorf("storage.compression: %w", err)
	}

	backend, err := store.Open(ctx, cfg.Storage.Engine, store.Options{
		Path:       cfg.StoragePath(),
		Logger:     logger,
		SyncWrites: cfg.Storage.SyncWrites,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			backend.Close()
		}
	}()

	db, err := database.New(backend, database.Options{Compression: compression})
	if err != nil {
		return nil, err
	}

	var keystore *keys.Keystore
	if cfg.Paths.Keystore != "" {
		if options.Passphrase == nil {
			return nil, errors.New("a passphrase is required to use the keystore")
		}
		keystore = &keys.Keystore{Path: cfg.Paths.Keystore, Options: options.Keystore}
	}

	controllerConfig := kel.ControllerConfig{
		Database:              db,
		Format:                identity.format,
		KeyCode:               identity.keyCode,
		DigestCode:            identity.digestCode,
		MaxEscrowPerValidator: cfg.Escrow.MaxPerValidator,
		Clock:                 options.Clock,
		Logger:                logger,
	}
	if keystore != nil {
		controllerConfig.KeysChanged = func(manager *keys.Manager) error {
			return keystore.Save(manager, options.Passphrase)
		}
	}
	controller := kel.NewController(controllerConfig)

	if err := establish(ctx, controller, keystore, options.Passphrase, identity, logger); err != nil {
		return nil, err
	}

	processor, err := kel.NewProcessor(kel.ProcessorConfig{
		Database:              db,
		Controller:            controller,
		MaxEscrowPerValidator: cfg.Escrow.MaxPerValidator,
		Clock:                 options.Clock,
		Logger:                logger,
	})
	if err != nil {
		closeKeys(controller)
		return nil, err
	}

	return &node{
		config:     cfg,
		logger:     logger,
		backend:    backend,
		db:         db,
		controller: controller,
		processor:  processor,
	}, nil
}

// establish loads the controller's keys from the keystore, or incepts
// and writes the keystore when there is none.
func establish(ctx context.Context, controller *kel.Controller, keystore *keys.Keystore, passphrase *secret.Buffer, identity identitySettings, logger *slog.Logger) error {
	if keystore != nil {
		exists, err := keystore.Exists()
		if err != nil {
			return err
		}
		if exists {
			manager, err := keystore.Load(passphrase)
			if err != nil {
				return fmt.Errorf("loading keystore %s: %w", keystore.Path, err)
			}
			if err := controller.Load(ctx, manager); err != nil {
				manager.Close()
				return fmt.Errorf("resuming identifier: %w", err)
			}
			return nil
		}
	}

	inception, err := controller.Incept(ctx, kel.InceptOptions{
		Derivation: identity.kind,
		Witnesses:  identity.witnesses,
		Tally:      identity.threshold,
	})
	if errors.Is(err, kel.ErrAlreadyIncepted) {
		return fmt.Errorf("%w: the database holds an identifier but no keystore was found", err)
	}
	if err != nil {
		return fmt.Errorf("incepting identifier: %w", err)
	}
	if keystore != nil {
		if err := keystore.Save(controller.Keys(), passphrase); err != nil {
			closeKeys(controller)
			return fmt.Errorf("saving keystore: %w", err)
		}
	}
	logger.Info("identifier incepted", "prefix", inception.Event().Prefix.String())
	return nil
}

func closeKeys(controller *kel.Controller) {
	if manager := controller.Keys(); manager != nil {
		manager.Close()
	}
}

// close releases the keys and the storage engine.
func (n *node) close() error {
	closeKeys(n.controller)
	return n.backend.Close()
}
