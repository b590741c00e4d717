package cftable

import "encoding/binary"

// WriterOptions define writer specific options.
type WriterOptions struct {
	// BlockSize is the target encoded size in bytes of each block.
	// The same budget applies to leaf blocks and to every index
	// level.
	// Default: 4KiB.
	BlockSize int

	// Identifier is an opaque name stored in the table metadata.
	// Default: "cftable".
	Identifier string
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}

	if oo.BlockSize < 1 {
		oo.BlockSize = 1 << 12
	}
	if oo.Identifier == "" {
		oo.Identifier = "cftable"
	}

	return &oo
}

// Writer instances ingest values and build a table file: leaf blocks
// are flushed to the sink as they fill and a multi-level index of
// their locations grows bottom-up alongside. Values are keyed by
// their append ordinal. A Writer must be serialized by the caller;
// on the first sink error it fails sticky and rejects any further
// mutation.
type Writer struct {
	s Sink
	o *WriterOptions

	off  uint64 // cumulative write offset
	next uint64 // key of the next appended value

	leaf      *IntBlockBuilder
	leafFirst uint64 // key of the first value in the current leaf
	levels    []*IndexBlockBuilder[uint64]

	started bool
	closed  bool
	err     error
}

// NewWriter wraps a sink and returns a Writer. The sink is owned by
// the writer from this point on.
func NewWriter(s Sink, o *WriterOptions) *Writer {
	return &Writer{
		s:    s,
		o:    o.norm(),
		leaf: NewIntBlockBuilder(),
	}
}

// Start opens the table by writing the file header. It must be called
// once, before the first Append.
func (w *Writer) Start() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errClosed
	}
	if w.started {
		return errStarted
	}

	if err := w.writeRaw(magic); err != nil {
		return w.fail(err)
	}
	w.started = true
	return nil
}

// Append adds a value under the next sequential key. Whenever the
// current leaf block's size estimate exceeds the block budget the
// block is flushed and recorded in the index.
func (w *Writer) Append(v uint32) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errClosed
	}
	if !w.started {
		return errNotStarted
	}

	w.leaf.Add(v)
	w.next++

	if w.leaf.EstimateEncodedSize() > w.o.BlockSize {
		return w.flushLeaf()
	}
	return nil
}

// Finish flushes the partially filled leaf block and every index
// level bottom-up, writes the metadata record pointing at the single
// remaining root, and flushes, syncs and closes the sink. After
// Finish the writer rejects any further use.
func (w *Writer) Finish() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errClosed
	}
	if !w.started {
		return errNotStarted
	}

	// an empty table still carries one sentinel leaf block
	if w.leaf.Count() != 0 || len(w.levels) == 0 {
		if err := w.flushLeaf(); err != nil {
			return err
		}
	}

	// Flush levels bottom-up. Once the topmost level is down to a
	// single entry, that entry is the root.
	var root BlockPointer
	var depth int
	for lvl := 0; ; lvl++ {
		ib := w.levels[lvl]
		if lvl == len(w.levels)-1 && ib.Count() == 1 {
			_, root = ib.entryAt(0)
			depth = lvl
			break
		}
		if ib.Count() != 0 {
			if err := w.flushIndex(lvl); err != nil {
				return err
			}
		}
	}

	meta := Metadata{
		Identifier: w.o.Identifier,
		Root:       root,
		Levels:     depth,
		NumValues:  w.next,
	}
	rec := meta.append(nil)
	if err := w.writeRaw(rec); err != nil {
		return w.fail(err)
	}

	var tmp [12]byte
	binary.LittleEndian.PutUint32(tmp[:4], uint32(len(rec)))
	copy(tmp[4:], magic)
	if err := w.writeRaw(tmp[:]); err != nil {
		return w.fail(err)
	}

	if err := w.s.Flush(); err != nil {
		return w.fail(err)
	}
	if err := w.s.Sync(); err != nil {
		return w.fail(err)
	}
	if err := w.s.Close(); err != nil {
		return w.fail(err)
	}

	w.closed = true
	return nil
}

func (w *Writer) flushLeaf() error {
	block := w.leaf.Finish()
	ptr, err := w.writeBlock(block)
	if err != nil {
		return w.fail(err)
	}
	w.leaf.Reset()

	first := w.leafFirst
	w.leafFirst = w.next
	return w.addEntry(0, first, ptr)
}

func (w *Writer) flushIndex(lvl int) error {
	ib := w.levels[lvl]
	first := ib.FirstKey()

	block := ib.Finish()
	ptr, err := w.writeBlock(block)
	if err != nil {
		return w.fail(err)
	}
	ib.Reset()

	return w.addEntry(lvl+1, first, ptr)
}

func (w *Writer) addEntry(lvl int, key uint64, ptr BlockPointer) error {
	if lvl == len(w.levels) {
		w.levels = append(w.levels, NewIndexBlockBuilder[uint64]())
	}

	ib := w.levels[lvl]
	if err := ib.Add(key, ptr); err != nil {
		return w.fail(err)
	}

	// never flush a single-entry block: the one entry it pushes into
	// the parent level would immediately overflow an undersized
	// budget again, without bound
	if ib.Count() > 1 && ib.EstimateEncodedSize() > w.o.BlockSize {
		return w.flushIndex(lvl)
	}
	return nil
}

func (w *Writer) writeBlock(p []byte) (BlockPointer, error) {
	ptr := BlockPointer{Offset: w.off, Length: uint64(len(p))}
	if err := w.writeRaw(p); err != nil {
		return BlockPointer{}, err
	}
	return ptr, nil
}

func (w *Writer) writeRaw(p []byte) error {
	if err := w.s.Append(p); err != nil {
		return err
	}
	w.off += uint64(len(p))
	return nil
}

func (w *Writer) fail(err error) error {
	w.err = err
	return err
}
