// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/keri/lib/event"
)

// DefaultMaxMessageSize bounds a single signed message when the caller
// does not choose a limit.
const DefaultMaxMessageSize = 1 << 20

// readChunk is how much is requested from the network per read.
const readChunk = 4096

// ErrMessageTooLarge means the peer sent more than the connection's
// message size limit without completing a message.
var ErrMessageTooLarge = errors.New("transport: message exceeds size limit")

// Conn exchanges signed messages over a stream connection. Reads and
// writes are independently serialized, so one goroutine may read while
// another writes.
type Conn struct {
	conn           net.Conn
	maxMessageSize int

	readMu sync.Mutex
	buffer []byte

	writeMu sync.Mutex
}

// NewConn wraps conn. A maxMessageSize of zero selects
// [DefaultMaxMessageSize].
func NewConn(conn net.Conn, maxMessageSize int) *Conn {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	return &Conn{conn: conn, maxMessageSize: maxMessageSize}
}

// ReadMessage returns the next signed message from the stream. It
// returns io.EOF when the peer closes the connection between messages
// and io.ErrUnexpectedEOF when it closes mid-message. A parse error
// leaves the stream unusable.
func (c *Conn) ReadMessage(ctx context.Context) (event.SignedMessage, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	stop := c.bindDeadline(ctx, c.conn.SetReadDeadline)
	defer stop()

	chunk := make([]byte, readChunk)
	for {
		if len(c.buffer) > 0 {
			signed, rest, err := event.ParseSignedMessage(c.buffer)
			if err == nil {
				if consumed := len(c.buffer) - len(rest); consumed > c.maxMessageSize {
					return event.SignedMessage{}, fmt.Errorf("%w (%d bytes from %s)", ErrMessageTooLarge, consumed, c.RemoteAddress())
				}
				c.buffer = append([]byte(nil), rest...)
				return signed, nil
			}
			if !event.IsIncomplete(err) {
				return event.SignedMessage{}, fmt.Errorf("transport: reading from %s: %w", c.RemoteAddress(), err)
			}
			if len(c.buffer) >= c.maxMessageSize {
				return event.SignedMessage{}, fmt.Errorf("%w (%d bytes buffered from %s)", ErrMessageTooLarge, len(c.buffer), c.RemoteAddress())
			}
		}

		n, err := c.conn.Read(chunk)
		c.buffer = append(c.buffer, chunk[:n]...)
		if err != nil {
			if ctx.Err() != nil {
				return event.SignedMessage{}, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				if len(c.buffer) == 0 {
					return event.SignedMessage{}, io.EOF
				}
				if n == 0 {
					return event.SignedMessage{}, io.ErrUnexpectedEOF
				}
				continue
			}
			return event.SignedMessage{}, fmt.Errorf("transport: reading from %s: %w", c.RemoteAddress(), err)
		}
	}
}

// WriteMessage serializes signed and writes it to the stream.
func (c *Conn) WriteMessage(ctx context.Context, signed event.SignedMessage) error {
	data, err := signed.Serialize()
	if err != nil {
		return fmt.Errorf("transport: serializing message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	stop := c.bindDeadline(ctx, c.conn.SetWriteDeadline)
	defer stop()

	if _, err := c.conn.Write(data); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("transport: writing to %s: %w", c.RemoteAddress(), err)
	}
	return nil
}

// bindDeadline applies ctx's deadline to one direction of the
// connection and forces a pending operation to return when ctx is
// cancelled. The returned function detaches ctx.
func (c *Conn) bindDeadline(ctx context.Context, set func(time.Time) error) func() {
	deadline, _ := ctx.Deadline()
	set(deadline)
	stop := context.AfterFunc(ctx, func() {
		set(time.Unix(1, 0))
	})
	return func() { stop() }
}

// RemoteAddress returns the peer's network address.
func (c *Conn) RemoteAddress() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}
