// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/kel"
	"github.com/bureau-foundation/keri/lib/netutil"
	"github.com/bureau-foundation/keri/lib/prefix"
	"github.com/bureau-foundation/keri/transport"
)

// session runs the direct-mode exchange with one peer: both sides
// send their logs, receipt every event they accept from the other,
// and rotate whenever the peer receipts one of their own events.
type session struct {
	node   *node
	conn   *transport.Conn
	logger *slog.Logger

	// rotations is how many times to rotate before finishing. Zero
	// rotates on every receipt until the peer hangs up.
	rotations int

	rotated   int
	receipted uint64 // highest own sn the peer has receipted, plus one
	peer      prefix.Identifier
	peerSN    uint64
	peerSeen  bool
}

func newSession(n *node, conn *transport.Conn, rotations int) *session {
	return &session{
		node:      n,
		conn:      conn,
		logger:    n.logger.With("remote", conn.RemoteAddress()),
		rotations: rotations,
	}
}

// run returns nil when the peer closes the connection or, with a
// rotation limit, once both logs are fully exchanged and receipted.
func (s *session) run(ctx context.Context) error {
	log, err := s.node.controller.Log(ctx)
	if err != nil {
		return err
	}
	for _, signed := range log {
		if err := s.conn.WriteMessage(ctx, signed); err != nil {
			return err
		}
	}
	s.logger.Info("sent log", "prefix", s.node.controller.Prefix().String(), "events", len(log))

	for !s.finished() {
		signed, err := s.conn.ReadMessage(ctx)
		if netutil.IsExpectedCloseError(err) {
			s.logger.Info("peer closed the connection")
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.handle(ctx, signed); err != nil {
			return err
		}
	}
	s.logger.Info("exchange complete", "rotations", s.rotated, "peer", s.peer.String(), "peer_sn", s.peerSN)
	return nil
}

// handle processes one message. Messages that fail verification are
// logged and dropped; only local failures end the session.
func (s *session) handle(ctx context.Context, signed event.SignedMessage) error {
	ev := signed.Event()
	result, err := s.node.processor.Process(ctx, signed)
	switch {
	case errors.Is(err, kel.ErrDuplicate):
		s.logger.Debug("duplicate message", "prefix", ev.Prefix.String(), "sn", ev.SN, "ilk", ev.Ilk())
		return nil
	case kel.IsRejection(err) || errors.Is(err, kel.ErrOwnEvent):
		s.logger.Warn("message rejected", "prefix", ev.Prefix.String(), "sn", ev.SN, "ilk", ev.Ilk(), "error", err)
		return nil
	case err != nil:
		return err
	}

	switch result.Outcome {
	case kel.OutcomeApplied:
		s.peer, s.peerSN, s.peerSeen = result.Prefix, result.SN, true
		s.logger.Info("remote state", "prefix", result.Prefix.String(), "sn", result.SN,
			"keys", len(result.State.Current.PublicKeys))
		receipt, err := s.node.controller.MakeReceipt(signed.Message)
		if err != nil {
			return fmt.Errorf("receipting %s sn %d: %w", result.Prefix, result.SN, err)
		}
		return s.conn.WriteMessage(ctx, receipt)

	case kel.OutcomeReceiptAccepted:
		if !result.Prefix.Equal(s.node.controller.Prefix()) {
			return nil
		}
		s.receipted = max(s.receipted, result.SN+1)
		s.logger.Info("receipt accepted", "sn", result.SN)
		if s.rotations > 0 && s.rotated >= s.rotations {
			return nil
		}
		if result.SN != s.node.controller.State().SN {
			return nil
		}
		rotation, err := s.node.controller.Rotate(ctx)
		if err != nil {
			return fmt.Errorf("rotating: %w", err)
		}
		s.rotated++
		s.logger.Info("rotated", "sn", rotation.Event().SN)
		return s.conn.WriteMessage(ctx, rotation)

	case kel.OutcomeReceiptEscrowed:
		s.logger.Info("receipt escrowed", "prefix", result.Prefix.String(), "sn", result.SN)
	}
	return nil
}

// finished reports whether a limited exchange is done: every own
// rotation happened and was receipted, and the peer's log has reached
// the same length.
func (s *session) finished() bool {
	if s.rotations == 0 || s.rotated < s.rotations {
		return false
	}
	own := s.node.controller.State().SN
	return s.receipted > own && s.peerSeen && s.peerSN >= uint64(s.rotations)
}
