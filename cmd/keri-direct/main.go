// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// keri-direct exchanges key event logs with one peer over TCP.
//
// One node listens and the other connects with --connect. Each sends
// its own log, receipts every event it verifies from the peer, and
// rotates its keys whenever the peer receipts its latest event. The
// node's identifier, its peers' logs and all receipts persist in the
// configured storage engine; keys persist in an age-encrypted keystore
// unlocked by KERI_PASSPHRASE, --passphrase-file, or a terminal prompt.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/keri/lib/clock"
	"github.com/bureau-foundation/keri/lib/config"
	"github.com/bureau-foundation/keri/lib/keys"
	"github.com/bureau-foundation/keri/lib/process"
	"github.com/bureau-foundation/keri/lib/secret"
	"github.com/bureau-foundation/keri/lib/version"
	"github.com/bureau-foundation/keri/transport"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath     string
		connect        bool
		rotations      int
		passphrasePath string
		showVersion    bool
	)
	flagSet := pflag.NewFlagSet("keri-direct", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "config file (default: $KERI_CONFIG)")
	flagSet.BoolVarP(&connect, "connect", "c", false, "connect to ADDRESS instead of listening on it")
	flagSet.IntVar(&rotations, "rotations", 0, "stop each exchange after this many rotations (0: until the peer disconnects)")
	flagSet.StringVar(&passphrasePath, "passphrase-file", "", "read the keystore passphrase from this file (- for stdin)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() { printUsage(flagSet) }

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Printf("keri-direct %s\n", version.Full())
		return nil
	}
	if flagSet.NArg() > 1 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(1))
	}
	if rotations < 0 {
		return fmt.Errorf("--rotations must not be negative")
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	address := cfg.Network.Listen
	if flagSet.NArg() == 1 {
		address = flagSet.Arg(0)
	}

	logger, err := newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	var passphrase *secret.Buffer
	if cfg.Paths.Keystore != "" {
		exists, err := keys.Keystore{Path: cfg.Paths.Keystore}.Exists()
		if err != nil {
			return err
		}
		passphrase, err = readPassphrase(passphrasePath, !exists)
		if err != nil {
			return err
		}
		defer passphrase.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, err := openNode(ctx, nodeOptions{Config: cfg, Logger: logger, Passphrase: passphrase})
	if err != nil {
		return err
	}
	defer n.close()

	if maxAge, _ := cfg.EscrowMaxAge(); maxAge > 0 {
		go purgeEscrow(ctx, clock.Real(), n.controller, maxAge, max(maxAge/2, time.Minute), logger)
	}

	if connect {
		timeout, _ := cfg.DialTimeout()
		conn, err := transport.Dial(ctx, &transport.TCPDialer{Timeout: timeout}, address, cfg.Network.MaxMessageSize)
		if err != nil {
			return err
		}
		defer conn.Close()
		logger.Info("connected", "address", address, "prefix", n.controller.Prefix().String())
		return newSession(n, conn, rotations).run(ctx)
	}

	listener, err := transport.NewTCPListener(address)
	if err != nil {
		return err
	}
	listener.MaxMessageSize = cfg.Network.MaxMessageSize
	listener.Logger = logger
	logger.Info("listening", "address", listener.Address(), "prefix", n.controller.Prefix().String())
	return listener.Serve(ctx, func(ctx context.Context, conn *transport.Conn) {
		if err := newSession(n, conn, rotations).run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("session failed", "remote", conn.RemoteAddress(), "error", err)
		}
	})
}

func printUsage(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `keri-direct - exchange key event logs with a peer

USAGE
    keri-direct [flags] [ADDRESS]

ADDRESS is host:port. Without --connect the node listens on it
(default: network.listen from the config file).

FLAGS
%s`, flagSet.FlagUsages())
}
