// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Compile-time interface checks.
var (
	_ Listener = (*TCPListener)(nil)
	_ Dialer   = (*TCPDialer)(nil)
)

// TCPListener accepts inbound TCP connections from peer nodes. It
// requires direct TCP reachability between the two nodes.
type TCPListener struct {
	listener net.Listener

	// MaxMessageSize bounds each message read from an accepted
	// connection. Zero selects [DefaultMaxMessageSize].
	MaxMessageSize int

	// Logger receives connection lifecycle records. Nil discards them.
	Logger *slog.Logger
}

// NewTCPListener creates a TCP listener on the specified address
// (e.g., ":5621" or "192.168.1.10:5621"). Use ":0" for a random
// available port.
func NewTCPListener(address string) (*TCPListener, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &TCPListener{listener: listener}, nil
}

// Serve accepts TCP connections and runs handler on each.
// Blocks until ctx is cancelled or Close is called.
func (l *TCPListener) Serve(ctx context.Context, handler Handler) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		l.listener.Close()
	})
	defer stop()

	var handlers sync.WaitGroup
	defer func() {
		cancel()
		handlers.Wait()
	}()

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		handlers.Go(func() {
			wrapped := NewConn(conn, l.MaxMessageSize)
			defer wrapped.Close()
			logger.Debug("peer connected", "remote", wrapped.RemoteAddress())
			handler(ctx, wrapped)
			logger.Debug("peer disconnected", "remote", wrapped.RemoteAddress())
		})
	}
}

// Address returns the TCP address in "host:port" format.
func (l *TCPListener) Address() string {
	return l.listener.Addr().String()
}

// Close shuts down the TCP listener.
func (l *TCPListener) Close() error {
	err := l.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// TCPDialer opens TCP connections to peer nodes.
type TCPDialer struct {
	// Timeout is the maximum time to wait for a TCP connection to be
	// established. Zero means no standalone timeout; only the context
	// deadline applies.
	Timeout time.Duration
}

// DialContext opens a TCP connection to the given address (host:port).
func (d *TCPDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return (&net.Dialer{Timeout: d.Timeout}).DialContext(ctx, "tcp", address)
}
