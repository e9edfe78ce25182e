package bitmask

import (
	"errors"
	"fmt"
)

// Alignment is the byte alignment of an assembled Selection buffer.
// Index backends read the mask with 512-bit wide loads.
const Alignment = 64

var (
	// ErrNoShards is returned when assembling from an empty shard collection.
	ErrNoShards = errors.New("at least one shard bitset is required")
)

// ErrUnalignedShard indicates a multi-shard assembly with a shard whose bit
// count is not a multiple of 8. Shard bitsets are produced byte-aligned; an
// unaligned shard is an integration bug, not a runtime condition.
type ErrUnalignedShard struct {
	Shard int
	Bits  int
}

func (e *ErrUnalignedShard) Error() string {
	return fmt.Sprintf("shard %d has %d bits, multi-shard assembly requires a multiple of 8", e.Shard, e.Bits)
}

// ErrLengthMismatch indicates a byte buffer whose length does not match the
// declared bit count.
type ErrLengthMismatch struct {
	Bits     int
	Expected int
	Actual   int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("bitset with %d bits needs %d bytes, got %d", e.Bits, e.Expected, e.Actual)
}

// ShardBitset is a per-shard validity bitset: one bit per record, bit=1 means
// the record is excluded from search.
type ShardBitset struct {
	data []byte
	bits int
}

// NewShardBitset creates an empty shard bitset covering the given record count.
func NewShardBitset(bits int) *ShardBitset {
	return &ShardBitset{
		data: make([]byte, byteCount(bits)),
		bits: bits,
	}
}

// ShardBitsetFromBytes wraps a packed byte buffer as a shard bitset.
// len(data) must be exactly ceil(bits/8). The buffer is not copied.
func ShardBitsetFromBytes(data []byte, bits int) (*ShardBitset, error) {
	if want := byteCount(bits); len(data) != want {
		return nil, &ErrLengthMismatch{Bits: bits, Expected: want, Actual: len(data)}
	}
	return &ShardBitset{data: data, bits: bits}, nil
}

// Bits returns the number of records covered by the bitset.
func (s *ShardBitset) Bits() int { return s.bits }

// Bytes returns the packed backing buffer, length ceil(bits/8).
func (s *ShardBitset) Bytes() []byte { return s.data }

// Exclude marks record i as excluded. Out-of-range indices are ignored.
func (s *ShardBitset) Exclude(i int) {
	if i < 0 || i >= s.bits {
		return
	}
	s.data[i>>3] |= 1 << (i & 7)
}

// Include clears the exclusion bit for record i.
func (s *ShardBitset) Include(i int) {
	if i < 0 || i >= s.bits {
		return
	}
	s.data[i>>3] &^= 1 << (i & 7)
}

// Excluded reports whether record i is excluded.
func (s *ShardBitset) Excluded(i int) bool {
	if i < 0 || i >= s.bits {
		return false
	}
	return s.data[i>>3]&(1<<(i&7)) != 0
}

// ExcludedCount returns the number of excluded records.
func (s *ShardBitset) ExcludedCount() int {
	count := 0
	for i := 0; i < s.bits; i++ {
		if s.data[i>>3]&(1<<(i&7)) != 0 {
			count++
		}
	}
	return count
}

// Selection is the combined bit-packed mask handed to an index backend:
// bit=1 means the record at that global offset is an eligible candidate.
//
// The buffer length is ceil(bits/8) rounded up to Alignment. Pad bits at and
// beyond Bits() are 1 (selected) as a side effect of the inversion step; they
// are meaningless and must never be reached by a conforming backend.
type Selection struct {
	data []byte
	bits int
}

// Assemble merges per-shard validity bitsets into one Selection.
//
// Shard bit counts are summed to the total record count N. With a single
// shard its packed bytes are copied directly; with multiple shards every
// shard's bit count must be a multiple of 8 and the byte buffers are
// concatenated in shard order. Finally every byte is inverted, flipping
// "excluded" semantics into "selected" semantics.
func Assemble(shards []*ShardBitset) (*Selection, error) {
	if len(shards) == 0 {
		return nil, ErrNoShards
	}

	total := 0
	for _, shard := range shards {
		total += shard.bits
	}

	buf := make([]byte, alignUp(byteCount(total), Alignment))

	if len(shards) == 1 {
		copy(buf, shards[0].data[:byteCount(shards[0].bits)])
	} else {
		off := 0
		for i, shard := range shards {
			if shard.bits%8 != 0 {
				return nil, &ErrUnalignedShard{Shard: i, Bits: shard.bits}
			}
			n := shard.bits / 8
			copy(buf[off:], shard.data[:n])
			off += n
		}
	}

	for i := range buf {
		buf[i] = ^buf[i]
	}

	return &Selection{data: buf, bits: total}, nil
}

// SelectAll returns a Selection with every one of the given records eligible.
func SelectAll(bits int) *Selection {
	buf := make([]byte, alignUp(byteCount(bits), Alignment))
	for i := range buf {
		buf[i] = 0xFF
	}
	return &Selection{data: buf, bits: bits}
}

// Bits returns the true record count N covered by the mask.
func (s *Selection) Bits() int { return s.bits }

// Bytes returns the packed mask buffer. Its length is a multiple of Alignment.
func (s *Selection) Bytes() []byte { return s.data }

// Selected reports whether record i is an eligible candidate.
// Indices at or beyond Bits() report false regardless of pad bit state.
func (s *Selection) Selected(i int) bool {
	if i < 0 || i >= s.bits {
		return false
	}
	return s.data[i>>3]&(1<<(i&7)) != 0
}

// SelectedCount returns the number of eligible records, ignoring pad bits.
func (s *Selection) SelectedCount() int {
	count := 0
	for i := 0; i < s.bits; i++ {
		if s.data[i>>3]&(1<<(i&7)) != 0 {
			count++
		}
	}
	return count
}

func byteCount(bits int) int {
	return (bits + 7) / 8
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
