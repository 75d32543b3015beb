// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"fmt"
	"strconv"

	"github.com/bureau-foundation/keri/lib/codec"
	"github.com/bureau-foundation/keri/lib/prefix"
)

// hexUint is an unsigned integer in lower-case hex without leading
// zeros, the encoding of "sn", "sith" and "toad". Parsing is strict so
// that every value has exactly one text form.
type hexUint uint64

func (h hexUint) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(h), 16)), nil
}

func (h *hexUint) UnmarshalText(text []byte) error {
	if len(text) == 0 || len(text) > 16 {
		return fmt.Errorf("hex integer %q has invalid length", text)
	}
	if len(text) > 1 && text[0] == '0' {
		return fmt.Errorf("hex integer %q has a leading zero", text)
	}
	for _, character := range text {
		if (character < '0' || character > '9') && (character < 'a' || character > 'f') {
			return fmt.Errorf("hex integer %q contains %q", text, character)
		}
	}
	value, err := strconv.ParseUint(string(text), 16, 64)
	if err != nil {
		return fmt.Errorf("hex integer %q: %w", text, err)
	}
	*h = hexUint(value)
	return nil
}

// The wire structs fix the protocol field order for each ilk. The
// prefix is carried as a string so that prefix derivation can
// serialize an inception with a placeholder in its place.

type wireHeader struct {
	Version codec.VersionString `json:"vs"`
	Prefix  string              `json:"pre"`
	SN      hexUint             `json:"sn"`
	Ilk     Ilk                 `json:"ilk"`
}

type wireInception struct {
	Version   codec.VersionString   `json:"vs"`
	Prefix    string                `json:"pre"`
	SN        hexUint               `json:"sn"`
	Ilk       Ilk                   `json:"ilk"`
	Threshold hexUint               `json:"sith"`
	Keys      []prefix.Basic        `json:"keys"`
	Next      prefix.SelfAddressing `json:"nxt"`
	Tally     hexUint               `json:"toad"`
	Witnesses []prefix.Basic        `json:"wits"`
	Config    []ConfigTrait         `json:"cnfg"`
}

type wireRotation struct {
	Version   codec.VersionString   `json:"vs"`
	Prefix    string                `json:"pre"`
	SN        hexUint               `json:"sn"`
	Ilk       Ilk                   `json:"ilk"`
	Previous  prefix.SelfAddressing `json:"dig"`
	Threshold hexUint               `json:"sith"`
	Keys      []prefix.Basic        `json:"keys"`
	Next      prefix.SelfAddressing `json:"nxt"`
	Tally     hexUint               `json:"toad"`
	Prune     []prefix.Basic        `json:"cuts"`
	Graft     []prefix.Basic        `json:"adds"`
	Data      []wireSeal            `json:"data"`
}

type wireInteraction struct {
	Version  codec.VersionString   `json:"vs"`
	Prefix   string                `json:"pre"`
	SN       hexUint               `json:"sn"`
	Ilk      Ilk                   `json:"ilk"`
	Previous prefix.SelfAddressing `json:"dig"`
	Data     []wireSeal            `json:"data"`
}

type wireReceipt struct {
	Version   codec.VersionString   `json:"vs"`
	Prefix    string                `json:"pre"`
	SN        hexUint               `json:"sn"`
	Ilk       Ilk                   `json:"ilk"`
	Receipted prefix.SelfAddressing `json:"dig"`
	Seal      wireSeal              `json:"seal"`
}

// wireSeal is an EventSeal when Prefix is present, else a DigestSeal.
type wireSeal struct {
	Prefix string                `json:"pre,omitempty"`
	Digest prefix.SelfAddressing `json:"dig"`
}

func toWire(version codec.VersionString, prefixText string, ev Event) (any, error) {
	sn := hexUint(ev.SN)
	switch data := ev.Data.(type) {
	case *Inception:
		return wireInception{
			Version:   version,
			Prefix:    prefixText,
			SN:        sn,
			Ilk:       IlkInception,
			Threshold: hexUint(data.KeyConfig.Threshold),
			Keys:      nonNil(data.KeyConfig.PublicKeys),
			Next:      data.KeyConfig.NextKeyDigest,
			Tally:     hexUint(data.WitnessConfig.Tally),
			Witnesses: nonNil(data.WitnessConfig.Initial),
			Config:    nonNil(data.Configuration),
		}, nil
	case *Rotation:
		seals, err := sealsToWire(data.Data)
		if err != nil {
			return nil, err
		}
		return wireRotation{
			Version:   version,
			Prefix:    prefixText,
			SN:        sn,
			Ilk:       IlkRotation,
			Previous:  data.PreviousEventHash,
			Threshold: hexUint(data.KeyConfig.Threshold),
			Keys:      nonNil(data.KeyConfig.PublicKeys),
			Next:      data.KeyConfig.NextKeyDigest,
			Tally:     hexUint(data.WitnessConfig.Tally),
			Prune:     nonNil(data.WitnessConfig.Prune),
			Graft:     nonNil(data.WitnessConfig.Graft),
			Data:      seals,
		}, nil
	case *Interaction:
		seals, err := sealsToWire(data.Data)
		if err != nil {
			return nil, err
		}
		return wireInteraction{
			Version:  version,
			Prefix:   prefixText,
			SN:       sn,
			Ilk:      IlkInteraction,
			Previous: data.PreviousEventHash,
			Data:     seals,
		}, nil
	case *Receipt:
		return wireReceipt{
			Version:   version,
			Prefix:    prefixText,
			SN:        sn,
			Ilk:       IlkReceipt,
			Receipted: data.ReceiptedEventDigest,
			Seal: wireSeal{
				Prefix: data.ValidatorLocationSeal.Prefix.String(),
				Digest: data.ValidatorLocationSeal.Digest,
			},
		}, nil
	case nil:
		return nil, fmt.Errorf("%w: event has no payload", ErrInvalidEvent)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownIlk, data)
	}
}

// decodeMessage decodes body, whose version string has already been
// located and parsed as version.
func decodeMessage(version codec.VersionString, body []byte) (Message, error) {
	format := version.Format
	var header wireHeader
	if err := format.Unmarshal(body, &header); err != nil {
		return Message{}, fmt.Errorf("decoding header: %w", err)
	}
	if header.Version != version {
		return Message{}, fmt.Errorf("version field %s differs from located version string %s", header.Version, version)
	}
	identifier, err := prefix.ParseIdentifier(header.Prefix)
	if err != nil {
		return Message{}, err
	}
	ev := Event{Prefix: identifier, SN: uint64(header.SN)}

	switch header.Ilk {
	case IlkInception:
		var wire wireInception
		if err := format.UnmarshalStrict(body, &wire); err != nil {
			return Message{}, fmt.Errorf("decoding inception: %w", err)
		}
		ev.Data = &Inception{
			KeyConfig:     KeyConfig{Threshold: uint64(wire.Threshold), PublicKeys: wire.Keys, NextKeyDigest: wire.Next},
			WitnessConfig: InceptionWitnessConfig{Tally: uint64(wire.Tally), Initial: wire.Witnesses},
			Configuration: wire.Config,
		}
	case IlkRotation:
		var wire wireRotation
		if err := format.UnmarshalStrict(body, &wire); err != nil {
			return Message{}, fmt.Errorf("decoding rotation: %w", err)
		}
		seals, err := sealsFromWire(wire.Data)
		if err != nil {
			return Message{}, err
		}
		ev.Data = &Rotation{
			PreviousEventHash: wire.Previous,
			KeyConfig:         KeyConfig{Threshold: uint64(wire.Threshold), PublicKeys: wire.Keys, NextKeyDigest: wire.Next},
			WitnessConfig:     WitnessConfig{Tally: uint64(wire.Tally), Prune: wire.Prune, Graft: wire.Graft},
			Data:              seals,
		}
	case IlkInteraction:
		var wire wireInteraction
		if err := format.UnmarshalStrict(body, &wire); err != nil {
			return Message{}, fmt.Errorf("decoding interaction: %w", err)
		}
		seals, err := sealsFromWire(wire.Data)
		if err != nil {
			return Message{}, err
		}
		ev.Data = &Interaction{PreviousEventHash: wire.Previous, Data: seals}
	case IlkReceipt:
		var wire wireReceipt
		if err := format.UnmarshalStrict(body, &wire); err != nil {
			return Message{}, fmt.Errorf("decoding receipt: %w", err)
		}
		validator, err := prefix.ParseIdentifier(wire.Seal.Prefix)
		if err != nil {
			return Message{}, fmt.Errorf("receipt seal: %w", err)
		}
		ev.Data = &Receipt{
			ReceiptedEventDigest:  wire.Receipted,
			ValidatorLocationSeal: EventSeal{Prefix: validator, Digest: wire.Seal.Digest},
		}
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownIlk, header.Ilk)
	}
	return Message{Version: version, Event: ev}, nil
}

func sealsToWire(seals []Seal) ([]wireSeal, error) {
	wire := make([]wireSeal, 0, len(seals))
	for _, seal := range seals {
		switch seal := seal.(type) {
		case EventSeal:
			if seal.Prefix.IsUnset() {
				return nil, fmt.Errorf("%w: event seal without prefix", ErrInvalidEvent)
			}
			wire = append(wire, wireSeal{Prefix: seal.Prefix.String(), Digest: seal.Digest})
		case DigestSeal:
			wire = append(wire, wireSeal{Digest: seal.Digest})
		default:
			return nil, fmt.Errorf("%w: unsupported seal type %T", ErrInvalidEvent, seal)
		}
	}
	return wire, nil
}

func sealsFromWire(wire []wireSeal) ([]Seal, error) {
	if len(wire) == 0 {
		return nil, nil
	}
	seals := make([]Seal, 0, len(wire))
	for _, seal := range wire {
		if seal.Prefix == "" {
			seals = append(seals, DigestSeal{Digest: seal.Digest})
			continue
		}
		identifier, err := prefix.ParseIdentifier(seal.Prefix)
		if err != nil {
			return nil, fmt.Errorf("seal: %w", err)
		}
		seals = append(seals, EventSeal{Prefix: identifier, Digest: seal.Digest})
	}
	return seals, nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
