// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Format is a transport serialization for event messages.
type Format uint8

const (
	JSON Format = iota + 1
	CBOR
)

// formatTag is the four-character tag a format has in a version string.
func (f Format) formatTag() string {
	switch f {
	case JSON:
		return "JSON"
	case CBOR:
		return "CBOR"
	default:
		return ""
	}
}

func (f Format) String() string {
	if tag := f.formatTag(); tag != "" {
		return tag
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat accepts a format name in any case ("json", "CBOR").
func ParseFormat(name string) (Format, error) {
	switch strings.ToUpper(name) {
	case "JSON":
		return JSON, nil
	case "CBOR":
		return CBOR, nil
	default:
		return 0, fmt.Errorf("codec: unknown format %q (expected json or cbor)", name)
	}
}

func (f Format) MarshalText() ([]byte, error) {
	if f.formatTag() == "" {
		return nil, fmt.Errorf("codec: invalid format %d", uint8(f))
	}
	return []byte(strings.ToLower(f.formatTag())), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Marshal encodes v in this format. Both outputs preserve struct
// field order; JSON is compact and CBOR uses the smallest encodings.
func (f Format) Marshal(v any) ([]byte, error) {
	switch f {
	case JSON:
		return json.Marshal(v)
	case CBOR:
		return MarshalMessage(v)
	default:
		return nil, fmt.Errorf("codec: marshal with invalid format %d", uint8(f))
	}
}

// UnmarshalStrict decodes data in this format, rejecting unknown
// fields.
func (f Format) UnmarshalStrict(data []byte, v any) error {
	switch f {
	case JSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(v); err != nil {
			return err
		}
		if decoder.More() {
			return fmt.Errorf("codec: trailing data after JSON value")
		}
		return nil
	case CBOR:
		return UnmarshalStrict(data, v)
	default:
		return fmt.Errorf("codec: unmarshal with invalid format %d", uint8(f))
	}
}

// Unmarshal decodes data in this format, ignoring unknown fields.
func (f Format) Unmarshal(data []byte, v any) error {
	switch f {
	case JSON:
		return json.Unmarshal(data, v)
	case CBOR:
		return Unmarshal(data, v)
	default:
		return fmt.Errorf("codec: unmarshal with invalid format %d", uint8(f))
	}
}
