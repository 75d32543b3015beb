// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/testutil"
)

func TestTCPListener_Address(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}
	defer listener.Close()

	address := listener.Address()
	if !strings.Contains(address, ":") {
		t.Errorf("Address() = %q, expected host:port format", address)
	}
}

func TestTCPRoundTrip(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The handler echoes every message back until the peer hangs up.
	go listener.Serve(ctx, func(ctx context.Context, conn *Conn) {
		for {
			signed, err := conn.ReadMessage(ctx)
			if err != nil {
				return
			}
			if err := conn.WriteMessage(ctx, signed); err != nil {
				return
			}
		}
	})

	conn, err := Dial(ctx, &TCPDialer{Timeout: 5 * time.Second}, listener.Address(), 0)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()

	for index, signed := range sampleLog(t, codec.CBOR) {
		if err := conn.WriteMessage(ctx, signed); err != nil {
			t.Fatalf("WriteMessage() #%d error: %v", index, err)
		}
		echoed, err := conn.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("ReadMessage() #%d error: %v", index, err)
		}
		if !bytes.Equal(serialize(t, echoed), serialize(t, signed)) {
			t.Errorf("echo of message #%d differs", index)
		}
	}
}

func TestTCPDialer_ConnectionRefused(t *testing.T) {
	dialer := &TCPDialer{Timeout: 1 * time.Second}
	_, err := dialer.DialContext(context.Background(), "127.0.0.1:1")
	if err == nil {
		t.Fatal("expected connection error to port 1")
	}
}

func TestTCPDialer_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dialer := &TCPDialer{}
	if _, err := Dial(ctx, dialer, "127.0.0.1:1", 0); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestTCPListener_ContextCancellation(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}
	defer listener.Close()

	ctx, cancel := context.WithCancel(context.Background())

	connected := make(chan struct{})
	handlerErr := make(chan error, 1)
	served := make(chan error, 1)
	go func() {
		served <- listener.Serve(ctx, func(ctx context.Context, conn *Conn) {
			close(connected)
			_, err := conn.ReadMessage(ctx)
			handlerErr <- err
		})
	}()

	conn, err := Dial(context.Background(), &TCPDialer{}, listener.Address(), 0)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	defer conn.Close()
	testutil.RequireClosed(t, connected, 5*time.Second, "waiting for the handler to start")

	// Cancelling must unblock the handler's read and then Serve.
	cancel()
	if err := testutil.RequireReceive(t, handlerErr, 5*time.Second, "waiting for handler"); !errors.Is(err, context.Canceled) {
		t.Errorf("handler ReadMessage() = %v, want context.Canceled", err)
	}
	if err := testutil.RequireReceive(t, served, 5*time.Second, "waiting for Serve"); err != nil {
		t.Errorf("Serve() = %v, want nil", err)
	}
}

func TestTCPListener_CloseStopsServe(t *testing.T) {
	listener, err := NewTCPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewTCPListener() error: %v", err)
	}

	served := make(chan error, 1)
	go func() {
		served <- listener.Serve(context.Background(), func(context.Context, *Conn) {})
	}()

	// Give Serve a moment to reach Accept; Close works either way.
	time.Sleep(10 * time.Millisecond)
	if err := listener.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := testutil.RequireReceive(t, served, 5*time.Second, "waiting for Serve"); err != nil {
		t.Errorf("Serve() = %v, want nil", err)
	}
}

