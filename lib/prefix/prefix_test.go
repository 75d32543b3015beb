// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefix

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/keri/lib/derivation"
)

func testKey(t *testing.T) (Basic, ed25519.PrivateKey) {
	t.Helper()
	public, private, err := ed25519.GenerateKey(bytes.NewReader(bytes.Repeat([]byte{7}, 64)))
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	key, err := NewBasic(derivation.Ed25519, public)
	if err != nil {
		t.Fatalf("NewBasic: %v", err)
	}
	return key, private
}

func TestBasicTextRoundtrip(t *testing.T) {
	key, _ := testKey(t)
	text := key.String()
	if len(text) != 44 || text[0] != 'D' {
		t.Fatalf("Ed25519 key text = %q, want 44 characters starting with D", text)
	}
	parsed, err := ParseBasic(text)
	if err != nil {
		t.Fatalf("ParseBasic: %v", err)
	}
	if !parsed.Equal(key) {
		t.Errorf("roundtrip mismatch: got %v, want %v", parsed, key)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	key, _ := testKey(t)
	text := key.String()
	cases := map[string]struct {
		input string
		want  error
	}{
		"empty":          {"", derivation.ErrUnknownCode},
		"unknown code":   {"Z" + text[1:], derivation.ErrUnknownCode},
		"short":          {text[:40], derivation.ErrInvalidLength},
		"not a quadlet":  {text[:43], derivation.ErrInvalidLength},
		"wrong table":    {"E" + text[1:] + "AAAA", derivation.ErrUnknownCode},
		"bad selector":   {"-" + text[1:], derivation.ErrUnknownCode},
		"long for code":  {text + "AAAA", derivation.ErrInvalidLength},
		"code only body": {"1AAB", derivation.ErrInvalidLength},
	}
	for name, testCase := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBasic(testCase.input)
			if !errors.Is(err, testCase.want) {
				t.Errorf("ParseBasic(%q) error = %v, want %v", testCase.input, err, testCase.want)
			}
		})
	}
}

func TestDigestBinding(t *testing.T) {
	data := []byte("canonical event bytes")
	digest := Digest(derivation.Blake3_256, data)
	if !digest.VerifyBinding(data) {
		t.Fatal("digest does not bind to its own input")
	}
	if digest.VerifyBinding([]byte("other bytes")) {
		t.Fatal("digest binds to different input")
	}
	if got, want := len(digest.String()), DigestTextLength(derivation.Blake3_256); got != want {
		t.Errorf("digest text length = %d, want %d", got, want)
	}

	parsed, err := ParseSelfAddressing(digest.String())
	if err != nil {
		t.Fatalf("ParseSelfAddressing: %v", err)
	}
	if !parsed.Equal(digest) {
		t.Errorf("roundtrip mismatch: %v != %v", parsed, digest)
	}

	wide := Digest(derivation.SHA2_512, data)
	if len(wide.String()) != 88 || !strings.HasPrefix(wide.String(), "0G") {
		t.Errorf("SHA2_512 digest text = %q", wide.String())
	}
}

func TestBasicVerify(t *testing.T) {
	key, private := testKey(t)
	data := []byte("message")
	signature := SelfSigning{Code: derivation.Ed25519Sha512, Signature: ed25519.Sign(private, data)}

	ok, err := key.Verify(data, signature)
	if err != nil || !ok {
		t.Fatalf("Verify = %v, %v", ok, err)
	}
	mismatched := SelfSigning{Code: derivation.ECDSAsecp256k1Sha256, Signature: signature.Signature}
	if _, err := key.Verify(data, mismatched); !errors.Is(err, derivation.ErrKeyMismatch) {
		t.Errorf("Verify(secp256k1 signature) error = %v, want ErrKeyMismatch", err)
	}
}

func TestAttachedSignatureText(t *testing.T) {
	_, private := testKey(t)
	signature := SelfSigning{Code: derivation.Ed25519Sha512, Signature: ed25519.Sign(private, []byte("x"))}

	for _, index := range []uint16{0, 1, 63} {
		attached, err := Attach(index, signature)
		if err != nil {
			t.Fatalf("Attach(%d): %v", index, err)
		}
		text := attached.String()
		if len(text) != 88 || text[0] != 'A' {
			t.Fatalf("attached text = %q", text)
		}
		parsed, rest, err := NextAttachedSignature(text + "tail")
		if err != nil {
			t.Fatalf("NextAttachedSignature: %v", err)
		}
		if rest != "tail" {
			t.Errorf("rest = %q, want tail", rest)
		}
		if !parsed.Equal(attached) {
			t.Errorf("roundtrip mismatch at index %d", index)
		}
	}

	if _, err := Attach(64, signature); !errors.Is(err, derivation.ErrInvalidLength) {
		t.Errorf("Attach(64) error = %v, want ErrInvalidLength", err)
	}
	if _, _, err := NextAttachedSignature("AA"); !errors.Is(err, derivation.ErrInvalidLength) {
		t.Errorf("truncated attached signature error = %v, want ErrInvalidLength", err)
	}
}

func TestIdentifierKinds(t *testing.T) {
	key, _ := testKey(t)
	digest := Digest(derivation.Blake3_256, []byte("icp"))
	signature := SelfSigning{Code: derivation.Ed25519Sha512, Signature: make([]byte, 64)}

	cases := []struct {
		identifier Identifier
		kind       Kind
	}{
		{Identifier{}, Unset},
		{FromBasic(key), KindBasic},
		{FromSelfAddressing(digest), KindSelfAddressing},
		{FromSelfSigning(signature), KindSelfSigning},
	}
	for _, testCase := range cases {
		parsed, err := ParseIdentifier(testCase.identifier.String())
		if err != nil {
			t.Fatalf("ParseIdentifier(%q): %v", testCase.identifier, err)
		}
		if parsed.Kind() != testCase.kind {
			t.Errorf("ParseIdentifier(%q) kind = %v, want %v", testCase.identifier, parsed.Kind(), testCase.kind)
		}
		if !parsed.Equal(testCase.identifier) {
			t.Errorf("ParseIdentifier(%q) = %q", testCase.identifier, parsed)
		}
	}
	if FromBasic(key).Equal(FromSelfAddressing(digest)) {
		t.Error("identifiers of different kinds compare equal")
	}
}

func TestIdentifierJSON(t *testing.T) {
	type wrapper struct {
		Prefix Identifier     `json:"pre"`
		Digest SelfAddressing `json:"dig"`
	}
	original := wrapper{
		Prefix: FromSelfAddressing(Digest(derivation.Blake3_256, []byte("a"))),
		Digest: Digest(derivation.SHA3_256, []byte("b")),
	}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Contains(data, []byte(`"pre":"E`)) {
		t.Errorf("prefix not encoded as text: %s", data)
	}
	var decoded wrapper
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Prefix.Equal(original.Prefix) || !decoded.Digest.Equal(original.Digest) {
		t.Errorf("roundtrip mismatch: %+v", decoded)
	}
}
