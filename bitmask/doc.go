// Package bitmask implements the bit-packed filter masks consumed by sealed
// index backends.
//
// Two representations exist with opposite bit polarity:
//
//   - ShardBitset: per-shard validity bitset where bit=1 means "this record is
//     excluded" (deleted or filtered out by a predicate).
//   - Selection: the combined, byte-aligned mask handed to the backend, where
//     bit=1 means "this record is an eligible search candidate".
//
// Assemble concatenates the shard bitsets of a segment and inverts every byte,
// turning exclusion semantics into selection semantics. The output buffer is
// padded to a 64-byte boundary for SIMD consumption. Pad bits past the true
// record count come out as 1 after the inversion; backends are required to
// never produce candidate offsets at or beyond Selection.Bits().
//
// Bits are LSB-first within each byte: bit i lives in byte i/8 at position i%8.
package bitmask
