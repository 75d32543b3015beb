// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package keys

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/keri/lib/derivation"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// ErrStaleRotation is returned by Commit when the staged rotation was
// prepared against key material that has since changed.
var ErrStaleRotation = errors.New("keys: staged rotation no longer matches current keys")

// Manager holds the current signer and the pre-rotated next signer.
type Manager struct {
	mu      sync.Mutex
	code    derivation.Basic
	current Signer
	next    Signer
}

// NewManager generates a current and a next key of the given code.
func NewManager(code derivation.Basic) (*Manager, error) {
	current, err := Generate(code)
	if err != nil {
		return nil, err
	}
	next, err := Generate(code)
	if err != nil {
		current.Close()
		return nil, err
	}
	return &Manager{code: code, current: current, next: next}, nil
}

// NewManagerFromSigners adopts existing signers. Both must share a
// key code; the manager owns and eventually closes them.
func NewManagerFromSigners(current, next Signer) (*Manager, error) {
	if current.Code() != next.Code() {
		return nil, fmt.Errorf("keys: current key is %s but next key is %s", current.Code(), next.Code())
	}
	return &Manager{code: current.Code(), current: current, next: next}, nil
}

func (m *Manager) Code() derivation.Basic { return m.code }

// Current returns the signer for the latest establishment event.
func (m *Manager) Current() Signer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Next returns the pre-rotated signer.
func (m *Manager) Next() Signer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

// NextCommitment digests the next public key for an establishment
// event's nxt field.
func (m *Manager) NextCommitment(code derivation.SelfAddressing) prefix.SelfAddressing {
	return event.NextKeyCommitment(code, PublicKeys(m.Next()))
}

// Staged is a rotation prepared but not yet applied. Signer is the
// promoted key that signs the rotation event and Next is the freshly
// generated key it commits to.
type Staged struct {
	Signer Signer
	Next   Signer
}

// Commitment digests the staged next key.
func (s *Staged) Commitment(code derivation.SelfAddressing) prefix.SelfAddressing {
	return event.NextKeyCommitment(code, PublicKeys(s.Next))
}

// Stage generates the key that will follow the current next key. The
// manager is unchanged until Commit.
func (m *Manager) Stage() (*Staged, error) {
	fresh, err := Generate(m.code)
	if err != nil {
		return nil, err
	}
	return &Staged{Signer: m.Next(), Next: fresh}, nil
}

// Commit promotes the staged keys and closes the retired current key.
func (m *Manager) Commit(staged *Staged) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if staged.Signer != m.next {
		return ErrStaleRotation
	}
	retired := m.current
	m.current = staged.Signer
	m.next = staged.Next
	return retired.Close()
}

// Discard releases a staged rotation that will not be committed.
func (m *Manager) Discard(staged *Staged) error {
	return staged.Next.Close()
}

// Promote makes the next key current and generates a fresh next key.
func (m *Manager) Promote() error {
	staged, err := m.Stage()
	if err != nil {
		return err
	}
	if err := m.Commit(staged); err != nil {
		m.Discard(staged)
		return err
	}
	return nil
}

// Close releases both keys.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.current.Close(), m.next.Close())
}
