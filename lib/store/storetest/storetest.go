// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package storetest is the conformance suite every storage engine
// runs from its own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/bureau-foundation/keri/lib/store"
)

// Opener returns a fresh, empty backend. The suite closes it.
type Opener func(t *testing.T) store.Backend

// Run exercises the Backend contract against open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		run  func(*testing.T, store.Backend)
	}{
		{"GetMissing", testGetMissing},
		{"PutGetDelete", testPutGetDelete},
		{"BucketsAreIsolated", testBucketsAreIsolated},
		{"ScanOrderAndPrefix", testScanOrderAndPrefix},
		{"UpdateSeesOwnWrites", testUpdateSeesOwnWrites},
		{"FailedUpdateRollsBack", testFailedUpdateRollsBack},
		{"ViewIsReadOnly", testViewIsReadOnly},
		{"ReturnedValuesAreCopies", testReturnedValuesAreCopies},
		{"ConcurrentWriters", testConcurrentWriters},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			backend := open(t)
			defer backend.Close()
			test.run(t, backend)
		})
	}
}

func update(t *testing.T, backend store.Backend, fn func(store.Tx) error) {
	t.Helper()
	if err := backend.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func get(t *testing.T, backend store.Backend, bucket, key string) ([]byte, bool) {
	t.Helper()
	var value []byte
	var found bool
	err := backend.View(context.Background(), func(tx store.Tx) error {
		var err error
		value, found, err = tx.Get(bucket, []byte(key))
		return err
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	return value, found
}

func testGetMissing(t *testing.T, backend store.Backend) {
	if _, found := get(t, backend, "never-written", "key"); found {
		t.Fatal("Get on an unknown bucket found a value")
	}
}

func testPutGetDelete(t *testing.T, backend store.Backend) {
	update(t, backend, func(tx store.Tx) error { return tx.Put("kel", []byte("a"), []byte("one")) })
	value, found := get(t, backend, "kel", "a")
	if !found || string(value) != "one" {
		t.Fatalf("Get = (%q, %v), want (one, true)", value, found)
	}

	update(t, backend, func(tx store.Tx) error { return tx.Put("kel", []byte("a"), []byte("two")) })
	if value, _ := get(t, backend, "kel", "a"); string(value) != "two" {
		t.Fatalf("Get after overwrite = %q, want two", value)
	}

	update(t, backend, func(tx store.Tx) error { return tx.Delete("kel", []byte("a")) })
	if _, found := get(t, backend, "kel", "a"); found {
		t.Fatal("value survived Delete")
	}
	update(t, backend, func(tx store.Tx) error { return tx.Delete("kel", []byte("missing")) })
}

func testBucketsAreIsolated(t *testing.T, backend store.Backend) {
	update(t, backend, func(tx store.Tx) error {
		if err := tx.Put("kel", []byte("k"), []byte("kel value")); err != nil {
			return err
		}
		return tx.Put("kelx", []byte("k"), []byte("other value"))
	})
	if value, _ := get(t, backend, "kel", "k"); string(value) != "kel value" {
		t.Fatalf("kel/k = %q", value)
	}

	var keys []string
	err := backend.View(context.Background(), func(tx store.Tx) error {
		return tx.Scan("kel", nil, func(key, _ []byte) error {
			keys = append(keys, string(key))
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("Scan(kel) saw %v, want only k", keys)
	}
}

func testScanOrderAndPrefix(t *testing.T, backend store.Backend) {
	keys := [][]byte{
		{0x01, 0x00}, {0x01, 0xff}, {0x01, 0x01}, {0x02}, {0x00, 0x01}, {0x01},
	}
	update(t, backend, func(tx store.Tx) error {
		for index, key := range keys {
			if err := tx.Put("scan", key, []byte{byte(index)}); err != nil {
				return err
			}
		}
		return nil
	})

	var seen []string
	err := backend.View(context.Background(), func(tx store.Tx) error {
		return tx.Scan("scan", []byte{0x01}, func(key, _ []byte) error {
			seen = append(seen, fmt.Sprintf("%x", key))
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{"01", "0100", "0101", "01ff"}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Fatalf("Scan(01) = %v, want %v", seen, want)
	}

	stop := errors.New("stop")
	count := 0
	err = backend.View(context.Background(), func(tx store.Tx) error {
		return tx.Scan("scan", nil, func(_, _ []byte) error {
			count++
			return stop
		})
	})
	if !errors.Is(err, stop) || count != 1 {
		t.Fatalf("Scan with failing callback = (%v, %d calls), want (stop, 1)", err, count)
	}
}

func testUpdateSeesOwnWrites(t *testing.T, backend store.Backend) {
	update(t, backend, func(tx store.Tx) error { return tx.Put("own", []byte("old"), []byte("x")) })
	update(t, backend, func(tx store.Tx) error {
		if err := tx.Put("own", []byte("new"), []byte("y")); err != nil {
			return err
		}
		if err := tx.Delete("own", []byte("old")); err != nil {
			return err
		}
		value, found, err := tx.Get("own", []byte("new"))
		if err != nil || !found || string(value) != "y" {
			return fmt.Errorf("Get(new) inside Update = (%q, %v, %v)", value, found, err)
		}
		if _, found, _ := tx.Get("own", []byte("old")); found {
			return fmt.Errorf("deleted key visible inside Update")
		}
		var keys []string
		if err := tx.Scan("own", nil, func(key, _ []byte) error {
			keys = append(keys, string(key))
			return nil
		}); err != nil {
			return err
		}
		if fmt.Sprint(keys) != "[new]" {
			return fmt.Errorf("Scan inside Update = %v, want [new]", keys)
		}
		return nil
	})
}

func testFailedUpdateRollsBack(t *testing.T, backend store.Backend) {
	update(t, backend, func(tx store.Tx) error { return tx.Put("rb", []byte("kept"), []byte("1")) })
	failure := errors.New("abort")
	err := backend.Update(context.Background(), func(tx store.Tx) error {
		if err := tx.Put("rb", []byte("added"), []byte("2")); err != nil {
			return err
		}
		if err := tx.Delete("rb", []byte("kept")); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Update error = %v, want the callback's error", err)
	}
	if _, found := get(t, backend, "rb", "added"); found {
		t.Fatal("write from failed Update was committed")
	}
	if _, found := get(t, backend, "rb", "kept"); !found {
		t.Fatal("delete from failed Update was committed")
	}
}

func testViewIsReadOnly(t *testing.T, backend store.Backend) {
	err := backend.View(context.Background(), func(tx store.Tx) error {
		return tx.Put("ro", []byte("k"), []byte("v"))
	})
	if err == nil {
		t.Fatal("Put inside View succeeded")
	}
}

func testReturnedValuesAreCopies(t *testing.T, backend store.Backend) {
	update(t, backend, func(tx store.Tx) error { return tx.Put("copy", []byte("k"), []byte("value")) })
	value, _ := get(t, backend, "copy", "k")
	value[0] = 'X'
	if again, _ := get(t, backend, "copy", "k"); string(again) != "value" {
		t.Fatalf("mutating a returned value changed the store: %q", again)
	}
}

func testConcurrentWriters(t *testing.T, backend store.Backend) {
	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for writer := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- backend.Update(context.Background(), func(tx store.Tx) error {
				counter, _, err := tx.Get("counter", []byte("n"))
				if err != nil {
					return err
				}
				next := byte(0)
				if len(counter) == 1 {
					next = counter[0] + 1
				}
				if err := tx.Put("counter", []byte("n"), []byte{next}); err != nil {
					return err
				}
				return tx.Put("writers", []byte{byte(writer)}, []byte{1})
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Update: %v", err)
		}
	}
	value, _ := get(t, backend, "counter", "n")
	if len(value) != 1 || value[0] != writers-1 {
		t.Fatalf("counter = %v, want %d: writers were not serialized", value, writers-1)
	}
}
