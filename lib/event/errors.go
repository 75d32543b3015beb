// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEvent is wrapped by every structural validation failure.
	ErrInvalidEvent = errors.New("event: invalid event")

	// ErrUnknownIlk is returned for an event type outside icp, rot, ixn
	// and vrc.
	ErrUnknownIlk = errors.New("event: unknown ilk")

	// ErrIncomplete means the input is a strict prefix of a message:
	// reading more bytes may complete it.
	ErrIncomplete = errors.New("event: incomplete message")

	// ErrPrefixDerivation means an inception event's identifier is not
	// the one its content derives.
	ErrPrefixDerivation = errors.New("event: identifier does not match its inception")
)

// ParseError describes input that can never become a valid message, no
// matter how many more bytes arrive.
type ParseError struct {
	// Offset is the byte position in the input where parsing failed.
	Offset int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event: parse error at byte %d: %s: %v", e.Offset, e.Reason, e.Err)
	}
	return fmt.Sprintf("event: parse error at byte %d: %s", e.Offset, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, fmt.Sprintf(format, args...))
}
