// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

const (
	// VersionStringLength is the fixed length of an encoded version
	// string: "KERI" + major + minor + format + six hex size digits + "_".
	VersionStringLength = 17

	// MaxMessageSize is the largest size a version string can declare.
	MaxMessageSize = 0xffffff

	// versionSearchWindow bounds where a version string may start. It
	// covers the JSON preamble `{"vs":"` and the CBOR map, key and text
	// headers that precede the value.
	versionSearchWindow = 12

	protocolTag = "KERI"
)

// ErrVersionNotFound is returned when no version string starts within
// the search window of a buffer that is long enough to contain one.
var ErrVersionNotFound = errors.New("codec: version string not found")

// VersionString is the first field of every event message. It names
// the protocol version, the transport format and the exact size in
// bytes of the serialized message.
type VersionString struct {
	Major  uint8
	Minor  uint8
	Format Format
	Size   uint32
}

// NewVersionString returns the current protocol version for format,
// with a zero size to be filled in once the message is measured.
func NewVersionString(format Format) VersionString {
	return VersionString{Major: 1, Minor: 0, Format: format}
}

// WithSize returns a copy declaring size bytes.
func (v VersionString) WithSize(size int) (VersionString, error) {
	if size < 0 || size > MaxMessageSize {
		return v, fmt.Errorf("codec: message size %d out of range", size)
	}
	v.Size = uint32(size)
	return v, nil
}

func (v VersionString) String() string {
	return fmt.Sprintf("%s%x%x%s%06x_", protocolTag, v.Major, v.Minor, v.Format.formatTag(), v.Size)
}

// ParseVersionString decodes a 17-character version string.
func ParseVersionString(text string) (VersionString, error) {
	if len(text) != VersionStringLength {
		return VersionString{}, fmt.Errorf("codec: version string %q has length %d, want %d", text, len(text), VersionStringLength)
	}
	if text[:4] != protocolTag {
		return VersionString{}, fmt.Errorf("codec: version string %q has wrong protocol tag", text)
	}
	if text[16] != '_' {
		return VersionString{}, fmt.Errorf("codec: version string %q missing terminator", text)
	}
	major, err := strconv.ParseUint(text[4:5], 16, 8)
	if err != nil {
		return VersionString{}, fmt.Errorf("codec: version string %q major: %w", text, err)
	}
	minor, err := strconv.ParseUint(text[5:6], 16, 8)
	if err != nil {
		return VersionString{}, fmt.Errorf("codec: version string %q minor: %w", text, err)
	}
	var format Format
	switch text[6:10] {
	case "JSON":
		format = JSON
	case "CBOR":
		format = CBOR
	default:
		return VersionString{}, fmt.Errorf("codec: version string %q has unknown format %q", text, text[6:10])
	}
	size, err := strconv.ParseUint(text[10:16], 16, 32)
	if err != nil {
		return VersionString{}, fmt.Errorf("codec: version string %q size: %w", text, err)
	}
	if major != 1 {
		return VersionString{}, fmt.Errorf("codec: unsupported protocol version %d.%d", major, minor)
	}
	return VersionString{Major: uint8(major), Minor: uint8(minor), Format: format, Size: uint32(size)}, nil
}

// FindVersionString locates and parses the version string near the
// start of data. ok is false when data is too short to tell.
func FindVersionString(data []byte) (version VersionString, ok bool, err error) {
	window := data
	if len(window) > versionSearchWindow+len(protocolTag) {
		window = window[:versionSearchWindow+len(protocolTag)]
	}
	offset := bytes.Index(window, []byte(protocolTag))
	if offset < 0 {
		if len(data) < versionSearchWindow+VersionStringLength {
			return VersionString{}, false, nil
		}
		return VersionString{}, false, ErrVersionNotFound
	}
	if len(data) < offset+VersionStringLength {
		return VersionString{}, false, nil
	}
	version, err = ParseVersionString(string(data[offset : offset+VersionStringLength]))
	if err != nil {
		return VersionString{}, false, err
	}
	return version, true, nil
}

func (v VersionString) MarshalText() ([]byte, error) {
	if v.Format.formatTag() == "" {
		return nil, fmt.Errorf("codec: version string with invalid format %d", uint8(v.Format))
	}
	return []byte(v.String()), nil
}

func (v *VersionString) UnmarshalText(text []byte) error {
	parsed, err := ParseVersionString(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
