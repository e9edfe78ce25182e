package bitmask

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType defines the compression algorithm used for serialized
// shard bitsets.
type CompressionType uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone CompressionType = 0
	// CompressionLZ4 indicates LZ4 block compression (fast, good for hot data).
	CompressionLZ4 CompressionType = 1
	// CompressionZSTD indicates ZSTD block compression (better ratio).
	CompressionZSTD CompressionType = 2
)

// ErrCorruptBitset is returned when a serialized shard bitset cannot be decoded.
var ErrCorruptBitset = errors.New("corrupt serialized shard bitset")

// Serialized layout:
// [Type uint8][Bits uint64][UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the payload is stored uncompressed.
const codecHeaderSize = 1 + 8 + 4 + 4

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// EncodeShardBitset serializes a shard bitset for transport, compressing the
// packed bytes with the given algorithm. If compression does not pay off the
// payload is stored uncompressed.
func EncodeShardBitset(s *ShardBitset, compressionType CompressionType) ([]byte, error) {
	raw := s.data[:byteCount(s.bits)]

	var compressed []byte
	switch compressionType {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n > 0 && n < len(raw) {
			compressed = buf[:n]
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		out := enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
		if len(out) < len(raw) {
			compressed = out
		}
	default:
		return nil, fmt.Errorf("unknown compression type: %d", compressionType)
	}

	payload := compressed
	compressedSize := uint32(len(compressed))
	if compressed == nil {
		payload = raw
		compressedSize = 0 // stored uncompressed
	}

	result := make([]byte, codecHeaderSize+len(payload))
	result[0] = byte(compressionType)
	binary.LittleEndian.PutUint64(result[1:], uint64(s.bits))
	binary.LittleEndian.PutUint32(result[9:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(result[13:], compressedSize)
	copy(result[codecHeaderSize:], payload)
	return result, nil
}

// DecodeShardBitset deserializes a shard bitset produced by EncodeShardBitset.
func DecodeShardBitset(data []byte) (*ShardBitset, error) {
	if len(data) < codecHeaderSize {
		return nil, fmt.Errorf("%w: short header (%d bytes)", ErrCorruptBitset, len(data))
	}

	compressionType := CompressionType(data[0])
	bits := int(binary.LittleEndian.Uint64(data[1:]))
	uncompressedSize := binary.LittleEndian.Uint32(data[9:])
	compressedSize := binary.LittleEndian.Uint32(data[13:])
	payload := data[codecHeaderSize:]

	if int(uncompressedSize) != byteCount(bits) {
		return nil, fmt.Errorf("%w: %d bits but %d payload bytes declared", ErrCorruptBitset, bits, uncompressedSize)
	}

	if compressedSize == 0 {
		if len(payload) != int(uncompressedSize) {
			return nil, fmt.Errorf("%w: expected %d raw bytes, got %d", ErrCorruptBitset, uncompressedSize, len(payload))
		}
		raw := make([]byte, len(payload))
		copy(raw, payload)
		return ShardBitsetFromBytes(raw, bits)
	}

	if len(payload) != int(compressedSize) {
		return nil, fmt.Errorf("%w: expected %d compressed bytes, got %d", ErrCorruptBitset, compressedSize, len(payload))
	}

	switch compressionType {
	case CompressionLZ4:
		raw := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptBitset, err)
		}
		if n != int(uncompressedSize) {
			return nil, fmt.Errorf("%w: lz4 decompressed %d bytes, want %d", ErrCorruptBitset, n, uncompressedSize)
		}
		return ShardBitsetFromBytes(raw, bits)
	case CompressionZSTD:
		dec := getZstdDecoder()
		raw, err := dec.DecodeAll(payload, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptBitset, err)
		}
		if len(raw) != int(uncompressedSize) {
			return nil, fmt.Errorf("%w: zstd decompressed %d bytes, want %d", ErrCorruptBitset, len(raw), uncompressedSize)
		}
		return ShardBitsetFromBytes(raw, bits)
	default:
		return nil, fmt.Errorf("%w: unknown compression type %d with compressed payload", ErrCorruptBitset, compressionType)
	}
}
