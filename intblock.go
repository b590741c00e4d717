package cftable

// IntBlockBuilder incrementally encodes a leaf block of uint32 values.
// Complete groups of four are group-varint packed as they arrive, so
// the size estimate stays cheap; up to three values remain pending
// until Finish pads them into a final group.
type IntBlockBuilder struct {
	buf   []byte // encoded complete groups
	pend  [4]uint32
	npend int
	count int
}

// NewIntBlockBuilder inits a new builder.
func NewIntBlockBuilder() *IntBlockBuilder {
	return new(IntBlockBuilder)
}

// Add appends a single value to the block.
func (b *IntBlockBuilder) Add(v uint32) {
	b.pend[b.npend] = v
	b.npend++
	b.count++

	if b.npend == len(b.pend) {
		b.buf = appendGroupVarint32(b.buf, b.pend[0], b.pend[1], b.pend[2], b.pend[3])
		b.npend = 0
	}
}

// Count returns the number of values added since the last Reset.
func (b *IntBlockBuilder) Count() int { return b.count }

// EstimateEncodedSize returns a cheap upper bound on the size of the
// buffer Finish would currently produce.
func (b *IntBlockBuilder) EstimateEncodedSize() int {
	est := groupMaxHeaderSize + len(b.buf)
	if b.npend != 0 {
		est += groupMaxSize
	}
	return est
}

// the header group holds (count, 0, 0, 0): one control byte, up to
// four count bytes, three zero bytes
const groupMaxHeaderSize = 8

// Finish encodes the block and returns the buffer. The leading header
// group carries the value count; a trailing partial group is padded
// with zeros which decode never materializes. An empty block encodes
// as the 5-byte all-zero header group.
func (b *IntBlockBuilder) Finish() []byte {
	out := make([]byte, 0, groupMaxHeaderSize+len(b.buf)+groupMaxSize)
	out = appendGroupVarint32(out, uint32(b.count), 0, 0, 0)
	out = append(out, b.buf...)
	if b.npend != 0 {
		var g [4]uint32
		copy(g[:], b.pend[:b.npend])
		out = appendGroupVarint32(out, g[0], g[1], g[2], g[3])
	}
	return out
}

// Reset restores the builder to its just-constructed state.
func (b *IntBlockBuilder) Reset() {
	b.buf = b.buf[:0]
	b.npend = 0
	b.count = 0
}

// --------------------------------------------------------------------

// IntBlockReader decodes a leaf block produced by IntBlockBuilder.
type IntBlockReader struct {
	vals   []uint32
	parsed bool
}

// Parse decodes the block and validates its structure. It must be
// called before At; repeated calls are no-ops.
func (r *IntBlockReader) Parse(p []byte) error {
	if r.parsed {
		return nil
	}

	hdr, n, err := decodeGroupVarint32(p)
	if err != nil {
		return err
	}
	if hdr[1] != 0 || hdr[2] != 0 || hdr[3] != 0 {
		return ErrCorrupted
	}

	count := int(hdr[0])
	if count > 4*len(p) { // each group of 4 takes at least 5 bytes
		return ErrCorrupted
	}

	vals := make([]uint32, 0, count)
	for len(vals) < count {
		g, m, err := decodeGroupVarint32(p[n:])
		if err != nil {
			return err
		}
		n += m

		used := 0
		for i := 0; i < len(g) && len(vals) < count; i++ {
			vals = append(vals, g[i])
			used++
		}
		for i := used; i < len(g); i++ {
			if g[i] != 0 { // padding slots must be zero
				return ErrCorrupted
			}
		}
	}
	if n != len(p) {
		return ErrCorrupted
	}

	r.vals = vals
	r.parsed = true
	return nil
}

// Count returns the number of values in the block.
func (r *IntBlockReader) Count() int { return len(r.vals) }

// At returns the i-th value. The caller must keep i within [0, Count).
func (r *IntBlockReader) At(i int) uint32 { return r.vals[i] }
