// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Canonical returns the RFC 8785 canonical JSON form of v: v is
// marshaled with encoding/json and then transformed (object members
// sorted by UTF-16 code units, no insignificant whitespace, numbers in
// ES6 form).
func Canonical(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshaling for canonical form: %w", err)
	}
	return CanonicalJSON(data)
}

// CanonicalJSON canonicalizes an existing JSON document.
func CanonicalJSON(data []byte) ([]byte, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("codec: canonicalizing JSON: %w", err)
	}
	return canonical, nil
}
