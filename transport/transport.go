// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"net"
)

// Handler serves one inbound connection. The connection is closed when
// the handler returns. ctx is cancelled when the listener shuts down.
type Handler func(ctx context.Context, conn *Conn)

// Listener accepts inbound connections from peer nodes.
type Listener interface {
	// Serve starts accepting connections and runs handler for each
	// one on its own goroutine. Blocks until ctx is cancelled or
	// Close is called, then waits for running handlers to return.
	// Returns nil on clean shutdown.
	Serve(ctx context.Context, handler Handler) error

	// Address returns the address peers dial to reach this listener
	// (e.g., "192.168.1.10:5621" for TCP).
	Address() string

	// Close shuts down the listener. Subsequent calls to Serve return
	// immediately.
	Close() error
}

// Dialer opens connections to peer nodes.
type Dialer interface {
	// DialContext opens a network connection to a peer at the given
	// address. The address format matches what the peer's
	// Listener.Address() returns.
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// Dial opens a connection through dialer and wraps it for message
// exchange. A maxMessageSize of zero selects [DefaultMaxMessageSize].
func Dial(ctx context.Context, dialer Dialer, address string, maxMessageSize int) (*Conn, error) {
	conn, err := dialer.DialContext(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %s: %w", address, err)
	}
	return NewConn(conn, maxMessageSize), nil
}
