// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// ParseMessage parses one message from the start of data and returns
// the unconsumed remainder.
func ParseMessage(data []byte) (Message, []byte, error) {
	version, ok, err := codec.FindVersionString(data)
	if err != nil {
		return Message{}, nil, &ParseError{Offset: 0, Reason: "locating version string", Err: err}
	}
	if !ok {
		return Message{}, nil, ErrIncomplete
	}
	if version.Size < codec.VersionStringLength {
		return Message{}, nil, &ParseError{Offset: 0, Reason: "declared size smaller than the version string"}
	}
	if len(data) < int(version.Size) {
		return Message{}, nil, ErrIncomplete
	}
	message, err := decodeMessage(version, data[:version.Size])
	if err != nil {
		return Message{}, nil, &ParseError{Offset: 0, Reason: "decoding " + version.Format.String() + " message", Err: err}
	}
	return message, data[version.Size:], nil
}

// ParseSignedMessage parses a message and the signature group that
// must follow it, returning the unconsumed remainder.
func ParseSignedMessage(data []byte) (SignedMessage, []byte, error) {
	message, rest, err := ParseMessage(data)
	if err != nil {
		return SignedMessage{}, nil, err
	}
	signatures, rest, err := parseSignatureGroup(rest, len(data)-len(rest))
	if err != nil {
		return SignedMessage{}, nil, err
	}
	return SignedMessage{Message: message, Signatures: signatures}, rest, nil
}

func parseSignatureGroup(data []byte, offset int) ([]prefix.AttachedSignature, []byte, error) {
	for index := 0; index < len(signatureGroupCode) && index < len(data); index++ {
		if data[index] != signatureGroupCode[index] {
			return nil, nil, &ParseError{Offset: offset, Reason: "expected signature group"}
		}
	}
	header := len(signatureGroupCode) + 2
	if len(data) < header {
		return nil, nil, ErrIncomplete
	}
	count, err := derivation.DecodeIndex(string(data[len(signatureGroupCode):header]))
	if err != nil {
		return nil, nil, &ParseError{Offset: offset + len(signatureGroupCode), Reason: "signature count", Err: err}
	}

	signatures := make([]prefix.AttachedSignature, 0, count)
	cursor := header
	for range count {
		if cursor >= len(data) {
			return nil, nil, ErrIncomplete
		}
		codeLength, err := derivation.CodeLength(string(data[cursor : cursor+1]))
		if err != nil {
			return nil, nil, &ParseError{Offset: offset + cursor, Reason: "signature code", Err: err}
		}
		if len(data)-cursor < codeLength {
			return nil, nil, ErrIncomplete
		}
		code, err := derivation.ParseAttachedSignature(string(data[cursor : cursor+codeLength]))
		if err != nil {
			return nil, nil, &ParseError{Offset: offset + cursor, Reason: "signature code", Err: err}
		}
		length := code.TextLength()
		if len(data)-cursor < length {
			return nil, nil, ErrIncomplete
		}
		signature, _, err := prefix.NextAttachedSignature(string(data[cursor : cursor+length]))
		if err != nil {
			return nil, nil, &ParseError{Offset: offset + cursor, Reason: "signature", Err: err}
		}
		signatures = append(signatures, signature)
		cursor += length
	}
	return signatures, data[cursor:], nil
}

// IsIncomplete reports whether err means more input is needed.
func IsIncomplete(err error) bool { return errors.Is(err, ErrIncomplete) }
