package cftable

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
)

// Reader instances resolve row keys against a finished table file.
// A Reader is safe for concurrent use.
type Reader struct {
	r    io.ReaderAt
	size int64
	meta Metadata
}

// NewReader opens a reader. It validates the header and footer magic
// and loads the metadata record.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	if size < int64(2*len(magic)+4) {
		return nil, errBadMagic
	}

	tmp := make([]byte, 12)

	// validate header
	if _, err := r.ReadAt(tmp[:8], 0); err != nil {
		return nil, err
	}
	if !bytes.Equal(tmp[:8], magic) {
		return nil, errBadMagic
	}

	// read footer
	footerOffset := size - 12
	if _, err := r.ReadAt(tmp, footerOffset); err != nil {
		return nil, err
	}
	if !bytes.Equal(tmp[4:], magic) {
		return nil, errBadMagic
	}

	// read metadata record
	metaLen := int64(binary.LittleEndian.Uint32(tmp[:4]))
	metaOffset := footerOffset - metaLen
	if metaLen < 1 || metaOffset < int64(len(magic)) {
		return nil, ErrCorrupted
	}

	rec := make([]byte, metaLen)
	if _, err := r.ReadAt(rec, metaOffset); err != nil {
		return nil, err
	}
	meta, err := parseMetadata(rec)
	if err != nil {
		return nil, err
	}
	if max := uint64(metaOffset); meta.Root.Offset > max || meta.Root.Length > max-meta.Root.Offset {
		return nil, ErrCorrupted
	}

	return &Reader{r: r, size: size, meta: meta}, nil
}

// Metadata returns the table metadata record.
func (r *Reader) Metadata() Metadata { return r.meta }

// NumValues returns the total number of stored values.
func (r *Reader) NumValues() uint64 { return r.meta.NumValues }

// Get resolves a single row key by descending the index tree from
// the root to a leaf block. It may return an ErrNotFound error.
func (r *Reader) Get(key uint64) (uint32, error) {
	ptr := r.meta.Root
	first := uint64(0)

	for lvl := r.meta.Levels; lvl > 0; lvl-- {
		block, err := r.readBlock(ptr)
		if err != nil {
			return 0, err
		}

		idx := NewIndexBlockReader[uint64](block)
		if err := idx.Parse(); err != nil {
			releaseBuffer(block)
			return 0, err
		}
		k, p, err := idx.searchEntry(key)
		releaseBuffer(block)
		if err != nil {
			return 0, err
		}
		first, ptr = k, p
	}

	block, err := r.readBlock(ptr)
	if err != nil {
		return 0, err
	}
	var leaf IntBlockReader
	err = leaf.Parse(block)
	releaseBuffer(block)
	if err != nil {
		return 0, err
	}

	pos := key - first
	if pos >= uint64(leaf.Count()) {
		return 0, ErrNotFound
	}
	return leaf.At(int(pos)), nil
}

func (r *Reader) readBlock(ptr BlockPointer) ([]byte, error) {
	if max := uint64(r.size); ptr.Length < 1 || ptr.Offset > max || ptr.Length > max-ptr.Offset {
		return nil, ErrCorrupted
	}

	block := fetchBuffer(int(ptr.Length))
	if _, err := r.r.ReadAt(block, int64(ptr.Offset)); err != nil {
		releaseBuffer(block)
		return nil, err
	}
	return block, nil
}

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p)
	}
}
