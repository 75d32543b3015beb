// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names the algorithm a CompressedCodec applies. The
// numeric values are written into stored records.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

// Records under this size are stored uncompressed regardless of the
// configured algorithm.
const minCompressSize = 64

// maxRecordSize bounds the declared uncompressed size of a record.
const maxRecordSize = 64 << 20

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression maps a configuration name to a Compression. The
// empty string selects none.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("store: unknown compression %q", name)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxRecordSize))
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// CompressedCodec wraps Inner and compresses its output. A record is
// one tag byte, the uncompressed length as a uvarint, then the
// payload. Data the algorithm cannot shrink is stored with the none
// tag, so any record decodes whatever the current setting.
type CompressedCodec[V any] struct {
	Inner       Codec[V]
	Compression Compression
}

func (c CompressedCodec[V]) Encode(value V) ([]byte, error) {
	plain, err := c.Inner.Encode(value)
	if err != nil {
		return nil, err
	}
	return compress(plain, c.Compression)
}

func (c CompressedCodec[V]) Decode(data []byte) (V, error) {
	plain, err := decompress(data)
	if err != nil {
		var zero V
		return zero, err
	}
	return c.Inner.Decode(plain)
}

func compress(plain []byte, algorithm Compression) ([]byte, error) {
	var payload []byte
	tag := algorithm
	switch {
	case algorithm == CompressionNone || len(plain) < minCompressSize:
		tag = CompressionNone
	case algorithm == CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(plain)))
		written, err := lz4.CompressBlock(plain, destination, nil)
		if err != nil {
			return nil, fmt.Errorf("store: lz4 compress: %w", err)
		}
		if written > 0 && written < len(plain) {
			payload = destination[:written]
		} else {
			tag = CompressionNone
		}
	case algorithm == CompressionZstd:
		payload = zstdEncoder.EncodeAll(plain, nil)
		if len(payload) >= len(plain) {
			tag = CompressionNone
		}
	default:
		return nil, fmt.Errorf("store: unsupported compression %s", algorithm)
	}
	if tag == CompressionNone {
		payload = plain
	}

	record := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	record = append(record, byte(tag))
	record = binary.AppendUvarint(record, uint64(len(plain)))
	return append(record, payload...), nil
}

func decompress(record []byte) ([]byte, error) {
	if len(record) == 0 {
		return nil, fmt.Errorf("store: empty compressed record")
	}
	tag := Compression(record[0])
	size, read := binary.Uvarint(record[1:])
	if read <= 0 {
		return nil, fmt.Errorf("store: malformed record length")
	}
	if size > maxRecordSize {
		return nil, fmt.Errorf("store: record declares %d bytes, limit is %d", size, maxRecordSize)
	}
	payload := record[1+read:]

	switch tag {
	case CompressionNone:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("store: stored record has %d bytes, header says %d", len(payload), size)
		}
		return payload, nil
	case CompressionLZ4:
		destination := make([]byte, size)
		written, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, fmt.Errorf("store: lz4 decompress: %w", err)
		}
		if uint64(written) != size {
			return nil, fmt.Errorf("store: lz4 produced %d bytes, header says %d", written, size)
		}
		return destination, nil
	case CompressionZstd:
		plain, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("store: zstd decompress: %w", err)
		}
		if uint64(len(plain)) != size {
			return nil, fmt.Errorf("store: zstd produced %d bytes, header says %d", len(plain), size)
		}
		return plain, nil
	default:
		return nil, fmt.Errorf("store: unknown compression tag %d", uint8(tag))
	}
}
