// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// Event is one entry in an identifier's log (or, for a receipt, a
// statement about one).
type Event struct {
	Prefix prefix.Identifier
	SN     uint64
	Data   Data
}

// Ilk returns the payload type, or "" for an event without payload.
func (e Event) Ilk() Ilk {
	if e.Data == nil {
		return ""
	}
	return e.Data.Ilk()
}

// Message wraps the event in a version string for format.
func (e Event) Message(format codec.Format) (Message, error) {
	return NewMessage(e, format)
}
