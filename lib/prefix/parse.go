// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prefix

import (
	"fmt"

	"github.com/bureau-foundation/keri/lib/derivation"
)

// splitCode separates the derivation code from the body of text and
// checks the overall length is a quadlet multiple.
func splitCode(text string) (code, body string, err error) {
	length, err := derivation.CodeLength(text)
	if err != nil {
		return "", "", err
	}
	if len(text)%4 != 0 {
		return "", "", fmt.Errorf("%w: text length %d is not a multiple of 4", derivation.ErrInvalidLength, len(text))
	}
	if len(text) <= length {
		return "", "", fmt.Errorf("%w: no body after code", derivation.ErrInvalidLength)
	}
	return text[:length], text[length:], nil
}

// decodeBody decodes body and checks it against the expected raw size
// and the expected text size.
func decodeBody(code, body string, rawLength int) ([]byte, error) {
	if want := derivation.TextLength(len(code), rawLength); len(code)+len(body) != want {
		return nil, fmt.Errorf("%w: %q value is %d characters, want %d",
			derivation.ErrInvalidLength, code, len(code)+len(body), want)
	}
	return derivation.DecodeRaw(body, rawLength)
}

// truncate shortens text for inclusion in error messages.
func truncate(text string) string {
	const limit = 16
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
