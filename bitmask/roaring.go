package bitmask

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// ShardBitsetFromRoaring materializes a Roaring deletion set into a packed
// shard bitset covering the given record count. Every member of rb becomes an
// excluded record. Members at or beyond bits are rejected: a delete for a
// record the shard does not hold is an integration bug.
func ShardBitsetFromRoaring(rb *roaring.Bitmap, bits int) (*ShardBitset, error) {
	s := NewShardBitset(bits)
	if rb == nil {
		return s, nil
	}

	it := rb.Iterator()
	for it.HasNext() {
		id := it.Next()
		if int(id) >= bits {
			return nil, fmt.Errorf("deleted record %d out of range, shard holds %d records", id, bits)
		}
		s.data[id>>3] |= 1 << (id & 7)
	}
	return s, nil
}

// ToRoaring converts the shard bitset back into a Roaring bitmap of excluded
// record offsets.
func (s *ShardBitset) ToRoaring() *roaring.Bitmap {
	rb := roaring.New()
	for i := 0; i < s.bits; i++ {
		if s.data[i>>3]&(1<<(i&7)) != 0 {
			rb.Add(uint32(i))
		}
	}
	return rb
}
