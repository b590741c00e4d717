package cftable

import "math/bits"

// Group-varint packing for groups of four uint32 values: a single
// control byte holds four 2-bit (length-1) fields, ordered high to
// low bits, followed by each value's minimal little-endian bytes.

const (
	groupMinSize = 5  // control byte + 4x 1-byte values
	groupMaxSize = 17 // control byte + 4x 4-byte values
)

func byteWidth32(v uint32) int {
	return (bits.Len32(v|1) + 7) / 8
}

func appendGroupVarint32(dst []byte, a, b, c, d uint32) []byte {
	wa, wb, wc, wd := byteWidth32(a), byteWidth32(b), byteWidth32(c), byteWidth32(d)

	dst = append(dst, byte((wa-1)<<6|(wb-1)<<4|(wc-1)<<2|(wd-1)))
	dst = appendPartialLE(dst, a, wa)
	dst = appendPartialLE(dst, b, wb)
	dst = appendPartialLE(dst, c, wc)
	dst = appendPartialLE(dst, d, wd)
	return dst
}

func appendPartialLE(dst []byte, v uint32, w int) []byte {
	for i := 0; i < w; i++ {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}

// decodeGroupVarint32 decodes one group from the head of src and
// returns the four values and the number of bytes consumed.
func decodeGroupVarint32(src []byte) ([4]uint32, int, error) {
	var out [4]uint32
	if len(src) == 0 {
		return out, 0, ErrCorrupted
	}

	ctl, n := src[0], 1
	for i := 0; i < 4; i++ {
		w := int(ctl>>uint(6-2*i))&3 + 1
		if n+w > len(src) {
			return out, 0, ErrCorrupted
		}

		var v uint32
		for j := 0; j < w; j++ {
			v |= uint32(src[n+j]) << (8 * uint(j))
		}
		out[i] = v
		n += w
	}
	return out, n, nil
}
