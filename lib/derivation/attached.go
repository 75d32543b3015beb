// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package derivation

import "fmt"

// AttachedSignature identifies an indexed signature encoding: the
// signature algorithm plus the width of the key index that follows the
// code.
type AttachedSignature uint8

const (
	AttachedEd25519Sha512 AttachedSignature = iota + 1
	AttachedECDSAsecp256k1Sha256
	AttachedEd448
)

type attachedInfo struct {
	code       string
	indexWidth int
	signing    SelfSigning
}

var attachedTable = map[AttachedSignature]attachedInfo{
	AttachedEd25519Sha512:        {"A", 1, Ed25519Sha512},
	AttachedECDSAsecp256k1Sha256: {"B", 1, ECDSAsecp256k1Sha256},
	AttachedEd448:                {"0A", 2, Ed448Signature},
}

var attachedByCode = invert(attachedTable, func(info attachedInfo) string { return info.code })

// ParseAttachedSignature returns the attached signature encoding named
// by code.
func ParseAttachedSignature(code string) (AttachedSignature, error) {
	if attached, ok := attachedByCode[code]; ok {
		return attached, nil
	}
	return 0, fmt.Errorf("%w: attached signature %q", ErrUnknownCode, code)
}

// AttachedFor returns the attached encoding for a signature algorithm.
func AttachedFor(signing SelfSigning) (AttachedSignature, error) {
	for attached, info := range attachedTable {
		if info.signing == signing {
			return attached, nil
		}
	}
	return 0, fmt.Errorf("%w: no attached encoding for %s", ErrUnknownCode, signing)
}

func (a AttachedSignature) Code() string { return attachedTable[a].code }

// IndexWidth returns the number of base64 digits in the key index.
func (a AttachedSignature) IndexWidth() int { return attachedTable[a].indexWidth }

// SelfSigning returns the underlying signature algorithm.
func (a AttachedSignature) SelfSigning() SelfSigning { return attachedTable[a].signing }

// RawLength returns the signature size in bytes.
func (a AttachedSignature) RawLength() int { return a.SelfSigning().RawLength() }

// TextLength returns the full text length: code, index and signature.
func (a AttachedSignature) TextLength() int {
	info := attachedTable[a]
	return TextLength(len(info.code)+info.indexWidth, info.signing.RawLength())
}

func (a AttachedSignature) Valid() bool {
	_, ok := attachedTable[a]
	return ok
}

func (a AttachedSignature) String() string {
	if info, ok := attachedTable[a]; ok {
		return "Attached" + info.signing.String()
	}
	return fmt.Sprintf("AttachedSignature(%d)", uint8(a))
}
