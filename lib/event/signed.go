// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// signatureGroupCode opens the counted group of indexed signatures
// that follows a message.
const signatureGroupCode = "-A"

// maxSignatures is the largest count two base64 digits can carry.
const maxSignatures = 1<<12 - 1

// SignedMessage is a message with its indexed signatures.
type SignedMessage struct {
	Message    Message
	Signatures []prefix.AttachedSignature
}

// Serialize returns the message bytes followed by the signature group.
func (s SignedMessage) Serialize() ([]byte, error) {
	body, err := s.Message.Serialize()
	if err != nil {
		return nil, err
	}
	if len(s.Signatures) > maxSignatures {
		return nil, fmt.Errorf("event: %d signatures exceed the group limit of %d", len(s.Signatures), maxSignatures)
	}
	count, err := derivation.EncodeIndex(uint16(len(s.Signatures)), 2)
	if err != nil {
		return nil, fmt.Errorf("event: encoding signature count: %w", err)
	}
	out := make([]byte, 0, len(body)+len(signatureGroupCode)+len(count)+len(s.Signatures)*88)
	out = append(out, body...)
	out = append(out, signatureGroupCode...)
	out = append(out, count...)
	for index, signature := range s.Signatures {
		text, err := signature.MarshalText()
		if err != nil {
			return nil, fmt.Errorf("event: signature %d: %w", index, err)
		}
		out = append(out, text...)
	}
	return out, nil
}

// Event is shorthand for s.Message.Event.
func (s SignedMessage) Event() Event { return s.Message.Event }
