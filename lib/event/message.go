// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// Message is an event with its version string. Build messages with
// [NewMessage] (or [Incept]) so the declared size is correct; changing
// the event afterwards invalidates the size and Serialize will fail.
type Message struct {
	Version codec.VersionString
	Event   Event
}

// NewMessage serializes ev once to measure it and returns the message
// with the measured size in its version string. The size field has a
// fixed width, so the second serialization has the same length.
func NewMessage(ev Event, format codec.Format) (Message, error) {
	return newMessage(ev, format, ev.Prefix.String())
}

func newMessage(ev Event, format codec.Format, prefixText string) (Message, error) {
	version := codec.NewVersionString(format)
	wire, err := toWire(version, prefixText, ev)
	if err != nil {
		return Message{}, err
	}
	body, err := format.Marshal(wire)
	if err != nil {
		return Message{}, fmt.Errorf("event: measuring %s message: %w", ev.Ilk(), err)
	}
	version, err = version.WithSize(len(body))
	if err != nil {
		return Message{}, fmt.Errorf("event: %w", err)
	}
	return Message{Version: version, Event: ev}, nil
}

// Serialize returns the transport bytes.
func (m Message) Serialize() ([]byte, error) {
	return m.serialize(m.Event.Prefix.String())
}

func (m Message) serialize(prefixText string) ([]byte, error) {
	wire, err := toWire(m.Version, prefixText, m.Event)
	if err != nil {
		return nil, err
	}
	body, err := m.Version.Format.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("event: serializing %s message: %w", m.Event.Ilk(), err)
	}
	if len(body) != int(m.Version.Size) {
		return nil, fmt.Errorf("event: %s message is %d bytes but declares %d",
			m.Event.Ilk(), len(body), m.Version.Size)
	}
	return body, nil
}

// Canonical returns the bytes that digests and signatures cover.
func (m Message) Canonical() ([]byte, error) {
	return m.canonical(m.Event.Prefix.String())
}

func (m Message) canonical(prefixText string) ([]byte, error) {
	wire, err := toWire(m.Version, prefixText, m.Event)
	if err != nil {
		return nil, err
	}
	return codec.Canonical(wire)
}

// Digest returns the digest of the canonical form under code.
func (m Message) Digest(code derivation.SelfAddressing) (prefix.SelfAddressing, error) {
	canonical, err := m.Canonical()
	if err != nil {
		return prefix.SelfAddressing{}, err
	}
	return prefix.Digest(code, canonical), nil
}

// Sign attaches signatures. The signatures are not checked here.
func (m Message) Sign(signatures ...prefix.AttachedSignature) SignedMessage {
	return SignedMessage{Message: m, Signatures: signatures}
}
