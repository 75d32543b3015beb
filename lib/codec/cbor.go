// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes.
var encMode cbor.EncMode

// messageEncMode is encMode without map key sorting: struct fields are
// emitted in declaration order. Event messages use it so the version
// string stays the first field in CBOR as it is in JSON.
var messageEncMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are silently ignored for forward compatibility.
var decMode cbor.DecMode

// strictDecMode rejects unknown fields and duplicate map keys. Event
// messages are decoded strictly: a field the verifier does not know
// would be covered by the signature but ignored by the state machine.
var strictDecMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Prefixes, hex integers and version strings implement
	// encoding.TextMarshaler and must appear as CBOR text strings, the
	// same text they have in JSON. Without this, prefix.Identifier
	// (unexported fields) would serialize as an empty map.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	encOptions.Sort = cbor.SortNone
	messageEncMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR message encoder initialization failed: " + err.Error())
	}

	decOptions := cbor.DecOptions{
		// Messages never use non-string map keys. When the decoder's
		// target is any (e.g. the canonical-form conversion), it must
		// pick a concrete Go map type, and map[string]any is the one
		// encoding/json accepts. Struct field decoding is unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Mirrors the TextMarshaler setting above.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}
	decMode, err = decOptions.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}

	decOptions.ExtraReturnErrors = cbor.ExtraDecErrorUnknownField
	decOptions.DupMapKey = cbor.DupMapKeyEnforcedAPF
	strictDecMode, err = decOptions.DecMode()
	if err != nil {
		panic("codec: strict CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// MarshalMessage encodes v like Marshal but keeps struct fields in
// declaration order.
func MarshalMessage(v any) ([]byte, error) {
	return messageEncMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// UnmarshalStrict decodes CBOR data into v, failing on fields v does
// not declare and on duplicate map keys.
func UnmarshalStrict(data []byte, v any) error {
	return strictDecMode.Unmarshal(data, v)
}
