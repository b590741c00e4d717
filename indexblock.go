package cftable

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type indexEntry[K Key] struct {
	key K
	ptr BlockPointer
}

// IndexBlockBuilder assembles an index block: an ordered run of
// (key, block pointer) entries. Keys must arrive strictly increasing.
type IndexBlockBuilder[K Key] struct {
	entries []indexEntry[K]
	size    int // exact encoded size of the entries
}

// NewIndexBlockBuilder inits a new builder.
func NewIndexBlockBuilder[K Key]() *IndexBlockBuilder[K] {
	return new(IndexBlockBuilder[K])
}

// Add appends an entry. Keys must be strictly increasing.
func (b *IndexBlockBuilder[K]) Add(key K, ptr BlockPointer) error {
	if n := len(b.entries); n != 0 && key <= b.entries[n-1].key {
		return fmt.Errorf("cftable: attempted an out-of-order index entry, %v must be > %v", key, b.entries[n-1].key)
	}

	b.entries = append(b.entries, indexEntry[K]{key: key, ptr: ptr})
	b.size += uvarintLen(uint64(key)) + uvarintLen(ptr.Offset) + uvarintLen(ptr.Length)
	return nil
}

// Count returns the number of entries added since the last Reset.
func (b *IndexBlockBuilder[K]) Count() int { return len(b.entries) }

// FirstKey returns the key of the first entry. It is only valid when
// Count is not zero.
func (b *IndexBlockBuilder[K]) FirstKey() K {
	if len(b.entries) == 0 {
		var zero K
		return zero
	}
	return b.entries[0].key
}

// EstimateEncodedSize returns a near-upper-bound on the size of the
// buffer Finish would currently produce.
func (b *IndexBlockBuilder[K]) EstimateEncodedSize() int {
	return b.size + binary.MaxVarintLen32
}

// Finish serializes the block: a uvarint entry count followed by
// uvarint (key, offset, length) triples.
func (b *IndexBlockBuilder[K]) Finish() []byte {
	var tmp [3 * binary.MaxVarintLen64]byte

	out := make([]byte, 0, b.EstimateEncodedSize())
	n := binary.PutUvarint(tmp[:], uint64(len(b.entries)))
	out = append(out, tmp[:n]...)

	for _, e := range b.entries {
		n = binary.PutUvarint(tmp[:], uint64(e.key))
		n += binary.PutUvarint(tmp[n:], e.ptr.Offset)
		n += binary.PutUvarint(tmp[n:], e.ptr.Length)
		out = append(out, tmp[:n]...)
	}
	return out
}

// Reset restores the builder to its just-constructed state.
func (b *IndexBlockBuilder[K]) Reset() {
	b.entries = b.entries[:0]
	b.size = 0
}

func (b *IndexBlockBuilder[K]) entryAt(i int) (K, BlockPointer) {
	e := b.entries[i]
	return e.key, e.ptr
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// --------------------------------------------------------------------

// IndexBlockReader parses a serialized index block and answers floor
// searches over it. Parse must complete before Search; a single
// reader must not be shared across goroutines, but any number of
// readers may work over the same bytes concurrently.
type IndexBlockReader[K Key] struct {
	data   []byte
	keys   []K
	ptrs   []BlockPointer
	parsed bool
}

// NewIndexBlockReader inits a reader over a serialized block.
func NewIndexBlockReader[K Key](data []byte) *IndexBlockReader[K] {
	return &IndexBlockReader[K]{data: data}
}

// Parse validates the block structure and builds the in-memory entry
// index used by Search. Repeated calls are no-ops.
func (r *IndexBlockReader[K]) Parse() error {
	if r.parsed {
		return nil
	}

	p := r.data
	count, n := binary.Uvarint(p)
	if n <= 0 || count > uint64(len(p)) { // each entry takes at least 3 bytes
		return ErrCorrupted
	}
	p = p[n:]

	keys := make([]K, 0, count)
	ptrs := make([]BlockPointer, 0, count)
	for i := 0; i < int(count); i++ {
		k, n1 := binary.Uvarint(p)
		if n1 <= 0 {
			return ErrCorrupted
		}
		off, n2 := binary.Uvarint(p[n1:])
		if n2 <= 0 {
			return ErrCorrupted
		}
		sz, n3 := binary.Uvarint(p[n1+n2:])
		if n3 <= 0 {
			return ErrCorrupted
		}
		p = p[n1+n2+n3:]

		key := K(k)
		if i != 0 && key <= keys[i-1] {
			return ErrCorrupted
		}
		keys = append(keys, key)
		ptrs = append(ptrs, BlockPointer{Offset: off, Length: sz})
	}
	if len(p) != 0 {
		return ErrCorrupted
	}

	r.keys, r.ptrs, r.parsed = keys, ptrs, true
	return nil
}

// Count returns the number of entries in the block.
func (r *IndexBlockReader[K]) Count() int { return len(r.keys) }

// Search performs a floor search: it returns the pointer of the entry
// with the greatest key <= the given key, ErrNotFound if the key is
// smaller than every key in the block, and the last entry when the
// key exceeds the maximum.
func (r *IndexBlockReader[K]) Search(key K) (BlockPointer, error) {
	_, ptr, err := r.searchEntry(key)
	return ptr, err
}

func (r *IndexBlockReader[K]) searchEntry(key K) (K, BlockPointer, error) {
	if !r.parsed {
		var zero K
		return zero, BlockPointer{}, errNotParsed
	}

	i := sort.Search(len(r.keys), func(i int) bool { return r.keys[i] > key })
	if i == 0 {
		var zero K
		return zero, BlockPointer{}, ErrNotFound
	}
	return r.keys[i-1], r.ptrs[i-1], nil
}
