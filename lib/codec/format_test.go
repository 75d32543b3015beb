// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"testing"
)

func TestVersionStringRoundtrip(t *testing.T) {
	version, err := NewVersionString(JSON).WithSize(0x11c)
	if err != nil {
		t.Fatalf("WithSize: %v", err)
	}
	if got := version.String(); got != "KERI10JSON00011c_" {
		t.Fatalf("String() = %q, want KERI10JSON00011c_", got)
	}
	parsed, err := ParseVersionString(version.String())
	if err != nil {
		t.Fatalf("ParseVersionString: %v", err)
	}
	if parsed != version {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", parsed, version)
	}
}

func TestParseVersionStringRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"KERI10JSON00011c",
		"KIRI10JSON00011c_",
		"KERI10XML_00011c_",
		"KERI10JSON00011cX",
		"KERI20JSON00011c_",
		"KERI10JSON0001zc_",
	} {
		if _, err := ParseVersionString(text); err == nil {
			t.Errorf("ParseVersionString(%q) accepted malformed input", text)
		}
	}
	if _, err := NewVersionString(CBOR).WithSize(MaxMessageSize + 1); err == nil {
		t.Error("WithSize accepted a size beyond six hex digits")
	}
}

func TestFindVersionString(t *testing.T) {
	message := []byte(`{"vs":"KERI10JSON000020_","pre":"E"}`)
	version, ok, err := FindVersionString(message)
	if err != nil || !ok {
		t.Fatalf("FindVersionString = %v, %v", ok, err)
	}
	if version.Format != JSON || version.Size != 0x20 {
		t.Errorf("version = %+v", version)
	}

	if _, ok, err := FindVersionString(message[:15]); ok || err != nil {
		t.Errorf("short prefix: ok=%v err=%v, want need-more", ok, err)
	}

	garbage := []byte(`{"xx":"nothing to see here at all"}`)
	if _, _, err := FindVersionString(garbage); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("garbage error = %v, want ErrVersionNotFound", err)
	}
}

func TestFormatMarshalBothWays(t *testing.T) {
	type record struct {
		Version string `json:"vs"`
		Ilk     string `json:"ilk"`
	}
	original := record{Version: "KERI10JSON000000_", Ilk: "ixn"}
	for _, format := range []Format{JSON, CBOR} {
		data, err := format.Marshal(original)
		if err != nil {
			t.Fatalf("%s Marshal: %v", format, err)
		}
		var decoded record
		if err := format.UnmarshalStrict(data, &decoded); err != nil {
			t.Fatalf("%s UnmarshalStrict: %v", format, err)
		}
		if decoded != original {
			t.Errorf("%s roundtrip: got %+v", format, decoded)
		}
	}

	var decoded record
	if err := JSON.UnmarshalStrict([]byte(`{"vs":"","ilk":"","dig":""}`), &decoded); err == nil {
		t.Error("JSON UnmarshalStrict accepted an unknown field")
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{"json": JSON, "JSON": JSON, "cbor": CBOR} {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseFormat("msgpack"); err == nil {
		t.Error("ParseFormat accepted msgpack")
	}
}

func TestCanonicalSortsKeys(t *testing.T) {
	type record struct {
		Zeta  string `json:"z"`
		Alpha int    `json:"a"`
	}
	canonical, err := Canonical(record{Zeta: "last", Alpha: 1})
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if got, want := string(canonical), `{"a":1,"z":"last"}`; got != want {
		t.Errorf("Canonical = %s, want %s", got, want)
	}

	spaced, err := CanonicalJSON([]byte("{ \"z\" : \"last\",\n \"a\" : 1.0 }"))
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if string(spaced) != string(canonical) {
		t.Errorf("CanonicalJSON = %s, want %s", spaced, canonical)
	}
}
