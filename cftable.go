package cftable

import (
	"encoding/binary"
	"errors"
)

var magic = []byte{67, 70, 84, 190, 31, 122, 101, 219}

// ErrNotFound is returned by floor searches when the key is smaller
// than every key in the searched block, and by readers when a row key
// cannot be resolved.
var ErrNotFound = errors.New("cftable: not found")

// ErrCorrupted is returned when stored bytes are structurally invalid:
// bad counts, truncated entries or out-of-range block pointers.
var ErrCorrupted = errors.New("cftable: corrupted data")

var (
	errClosed     = errors.New("cftable: is closed")
	errBadMagic   = errors.New("cftable: bad magic byte sequence")
	errNotStarted = errors.New("cftable: writer was not started")
	errStarted    = errors.New("cftable: writer was already started")
	errNotParsed  = errors.New("cftable: index block was not parsed")
)

// Key is the constraint for index block keys: any fixed-width integer
// type with a total order. Keys travel on the wire as their
// two's-complement bits widened to 64 bit.
type Key interface {
	~int32 | ~int64 | ~uint32 | ~uint64
}

// --------------------------------------------------------------------

// BlockPointer locates a stored block within a table file. Pointers
// are immutable once produced; blocks are never rewritten.
type BlockPointer struct {
	Offset uint64 // block position within the file
	Length uint64 // encoded block length in bytes
}

// IsZero reports whether the pointer is unset.
func (p BlockPointer) IsZero() bool { return p.Offset == 0 && p.Length == 0 }

// --------------------------------------------------------------------

// Metadata is the structured record stored in the table trailer.
type Metadata struct {
	// Identifier is an opaque, caller-supplied name for the tree.
	Identifier string
	// Root points at the root block of the index tree.
	Root BlockPointer
	// Levels is the number of index blocks on the path from the root
	// to a leaf. Zero means Root points directly at a leaf block.
	Levels int
	// NumValues is the total number of values stored in the tree.
	NumValues uint64
}

func (m Metadata) append(dst []byte) []byte {
	var tmp [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(tmp[:], uint64(len(m.Identifier)))
	dst = append(dst, tmp[:n]...)
	dst = append(dst, m.Identifier...)

	for _, u := range [4]uint64{m.Root.Offset, m.Root.Length, uint64(m.Levels), m.NumValues} {
		n = binary.PutUvarint(tmp[:], u)
		dst = append(dst, tmp[:n]...)
	}
	return dst
}

func parseMetadata(p []byte) (Metadata, error) {
	var m Metadata

	sz, n := binary.Uvarint(p)
	if n <= 0 || sz > uint64(len(p)-n) {
		return m, ErrCorrupted
	}
	m.Identifier = string(p[n : n+int(sz)])
	p = p[n+int(sz):]

	var u [4]uint64
	for i := range u {
		v, n := binary.Uvarint(p)
		if n <= 0 {
			return m, ErrCorrupted
		}
		u[i] = v
		p = p[n:]
	}
	if len(p) != 0 {
		return m, ErrCorrupted
	}

	m.Root = BlockPointer{Offset: u[0], Length: u[1]}
	m.Levels = int(u[2])
	m.NumValues = u[3]
	return m, nil
}
