// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/event"
	"github.com/bureau-foundation/keri/lib/testutil"
)

func serialize(t *testing.T, signed event.SignedMessage) []byte {
	t.Helper()
	data, err := signed.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	return data
}

// sampleLog returns an inception, an interaction and a rotation.
func sampleLog(t *testing.T, format codec.Format) []event.SignedMessage {
	t.Helper()
	identity := testutil.NewIdentity(t, format)
	identity.Interact()
	identity.Rotate()
	return identity.Log
}

func TestConnRoundTrip(t *testing.T) {
	for _, format := range []codec.Format{codec.JSON, codec.CBOR} {
		t.Run(format.String(), func(t *testing.T) {
			log := sampleLog(t, format)
			left, right := net.Pipe()
			sender := NewConn(left, 0)
			receiver := NewConn(right, 0)
			defer sender.Close()
			defer receiver.Close()

			ctx := context.Background()
			errs := make(chan error, 1)
			go func() {
				for _, signed := range log {
					if err := sender.WriteMessage(ctx, signed); err != nil {
						errs <- err
						return
					}
				}
				errs <- nil
			}()

			for index, want := range log {
				got, err := receiver.ReadMessage(ctx)
				if err != nil {
					t.Fatalf("ReadMessage() #%d error: %v", index, err)
				}
				if !bytes.Equal(serialize(t, got), serialize(t, want)) {
					t.Errorf("message #%d differs after the round trip", index)
				}
			}
			if err := testutil.RequireReceive(t, errs, 5*time.Second, "waiting for writer"); err != nil {
				t.Fatalf("WriteMessage() error: %v", err)
			}
		})
	}
}

func TestConnReadsFragmentedStream(t *testing.T) {
	log := sampleLog(t, codec.JSON)
	var stream []byte
	for _, signed := range log {
		stream = append(stream, serialize(t, signed)...)
	}

	left, right := net.Pipe()
	receiver := NewConn(right, 0)
	defer receiver.Close()
	go func() {
		defer left.Close()
		for len(stream) > 0 {
			n := min(7, len(stream))
			if _, err := left.Write(stream[:n]); err != nil {
				return
			}
			stream = stream[n:]
		}
	}()

	ctx := context.Background()
	for index, want := range log {
		got, err := receiver.ReadMessage(ctx)
		if err != nil {
			t.Fatalf("ReadMessage() #%d error: %v", index, err)
		}
		if got.Event().SN != want.Event().SN {
			t.Errorf("message #%d has sn %d, want %d", index, got.Event().SN, want.Event().SN)
		}
	}
	if _, err := receiver.ReadMessage(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("ReadMessage() after the last message = %v, want io.EOF", err)
	}
}

func TestConnTruncatedMessage(t *testing.T) {
	data := serialize(t, sampleLog(t, codec.JSON)[0])

	left, right := net.Pipe()
	receiver := NewConn(right, 0)
	defer receiver.Close()
	go func() {
		left.Write(data[:len(data)/2])
		left.Close()
	}()

	if _, err := receiver.ReadMessage(context.Background()); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadMessage() = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestConnRejectsOversizedMessage(t *testing.T) {
	data := serialize(t, sampleLog(t, codec.JSON)[0])

	left, right := net.Pipe()
	receiver := NewConn(right, 64)
	defer receiver.Close()
	go func() {
		left.Write(data)
		left.Close()
	}()

	if _, err := receiver.ReadMessage(context.Background()); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("ReadMessage() = %v, want ErrMessageTooLarge", err)
	}
}

func TestConnRejectsGarbage(t *testing.T) {
	left, right := net.Pipe()
	receiver := NewConn(right, 0)
	defer receiver.Close()
	go func() {
		left.Write(bytes.Repeat([]byte("x"), 512))
		left.Close()
	}()

	_, err := receiver.ReadMessage(context.Background())
	var parseError *event.ParseError
	if !errors.As(err, &parseError) {
		t.Errorf("ReadMessage() = %v, want *event.ParseError", err)
	}
}

func TestConnReadHonorsCancellation(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	receiver := NewConn(right, 0)
	defer receiver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := receiver.ReadMessage(ctx)
		errs <- err
	}()

	cancel()
	err := testutil.RequireReceive(t, errs, 5*time.Second, "waiting for ReadMessage to return")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ReadMessage() = %v, want context.Canceled", err)
	}
}

func TestConnReadHonorsDeadline(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	receiver := NewConn(right, 0)
	defer receiver.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := receiver.ReadMessage(ctx)
	if err == nil {
		t.Fatal("ReadMessage() succeeded with nothing to read")
	}
	var netError net.Error
	if !errors.Is(err, context.DeadlineExceeded) && !(errors.As(err, &netError) && netError.Timeout()) {
		t.Errorf("ReadMessage() = %v, want a timeout", err)
	}
}
