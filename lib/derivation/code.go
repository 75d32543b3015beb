// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package derivation

import (
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrUnknownCode is returned for a code that is not in any table.
	ErrUnknownCode = errors.New("derivation: unknown code")

	// ErrInvalidLength is returned when a raw value or its text form
	// does not have the size its code requires.
	ErrInvalidLength = errors.New("derivation: invalid length")

	// ErrUnsupportedAlgorithm is returned for enumerated codes whose
	// algorithm has no implementation in this module.
	ErrUnsupportedAlgorithm = errors.New("derivation: unsupported algorithm")

	// ErrNotSigningKey is returned when a key-agreement key (X25519,
	// X448) is used to verify a signature.
	ErrNotSigningKey = errors.New("derivation: not a signing key")

	// ErrKeyMismatch is returned when a signature code is checked
	// against a key of a different algorithm family.
	ErrKeyMismatch = errors.New("derivation: signature and key algorithms differ")
)

// CodeLength returns the length of the derivation code at the start
// of text, as selected by its first character.
func CodeLength(text string) (int, error) {
	if text == "" {
		return 0, fmt.Errorf("%w: empty input", ErrUnknownCode)
	}
	switch selector := text[0]; {
	case selector >= 'A' && selector <= 'Z', selector >= 'a' && selector <= 'z':
		return 1, nil
	case selector == '0':
		return 2, nil
	case selector == '1':
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: selector %q", ErrUnknownCode, selector)
	}
}

// TextLength returns the length of the text form of a raw value of
// rawLength bytes under a code of codeLength characters.
func TextLength(codeLength, rawLength int) int {
	return codeLength + base64.RawURLEncoding.EncodedLen(rawLength)
}

// EncodeRaw returns the base64url (unpadded) encoding of raw.
func EncodeRaw(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeRaw decodes the base64url (unpadded) body of a coded value and
// checks it has exactly want bytes.
func DecodeRaw(body string, want int) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("derivation: decoding body: %w", err)
	}
	if len(raw) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(raw), want)
	}
	return raw, nil
}

// b64Digits is the base64url alphabet, used for signature indexes and
// attachment counts.
const b64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// EncodeIndex writes value as width base64url digits, most significant
// first. Returns an error if value does not fit.
func EncodeIndex(value uint16, width int) (string, error) {
	if width <= 0 || int(value) >= 1<<(6*width) {
		return "", fmt.Errorf("%w: %d does not fit in %d base64 digits", ErrInvalidLength, value, width)
	}
	digits := make([]byte, width)
	for position := width - 1; position >= 0; position-- {
		digits[position] = b64Digits[value&0x3f]
		value >>= 6
	}
	return string(digits), nil
}

// DecodeIndex parses base64url digits written by [EncodeIndex].
func DecodeIndex(digits string) (uint16, error) {
	if digits == "" || len(digits) > 2 {
		return 0, fmt.Errorf("%w: index has %d digits", ErrInvalidLength, len(digits))
	}
	var value uint16
	for index := 0; index < len(digits); index++ {
		digit := b64Value(digits[index])
		if digit < 0 {
			return 0, fmt.Errorf("derivation: invalid base64 digit %q", digits[index])
		}
		value = value<<6 | uint16(digit)
	}
	return value, nil
}

func b64Value(character byte) int {
	switch {
	case character >= 'A' && character <= 'Z':
		return int(character - 'A')
	case character >= 'a' && character <= 'z':
		return int(character-'a') + 26
	case character >= '0' && character <= '9':
		return int(character-'0') + 52
	case character == '-':
		return 62
	case character == '_':
		return 63
	default:
		return -1
	}
}
