package asn1binary

import (
	"math"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
)

// LengthIndefinite marks a constructed encoding terminated by an
// end-of-contents marker instead of a length.
const LengthIndefinite = -1

// MaxShortFormLength is the largest length written as a single octet.
const MaxShortFormLength = 127

// Header holds the identifier and length octets of one encoding.
type Header struct {
	Tag    asn1core.TagDescriptor
	Length int
}

// Len returns the number of octets AppendHeader writes for h.
func (h Header) Len() int {
	l := 1
	if h.Tag.Number >= 31 {
		l += base128Len(h.Tag.Number)
	}
	l++
	if h.Length == LengthIndefinite || h.Length <= MaxShortFormLength {
		return l
	}
	for n := h.Length; n > 0; n >>= 8 {
		l++
	}
	return l
}

// AppendHeader appends the identifier and length octets of h to dst. Tag
// numbers of 31 and above use the high-tag-number form; lengths above 127
// use the minimal long form.
func AppendHeader(dst []byte, h Header) []byte {
	b := byte(h.Tag.Class) << 6
	if h.Tag.Constructed {
		b |= 0x20
	}
	if h.Tag.Number < 31 {
		dst = append(dst, b|byte(h.Tag.Number))
	} else {
		dst = append(dst, b|0x1F)
		dst = AppendBase128(dst, uint64(h.Tag.Number))
	}
	return AppendLength(dst, h.Length)
}

// AppendLength appends the length octets for length.
func AppendLength(dst []byte, length int) []byte {
	if length == LengthIndefinite {
		return append(dst, 0x80)
	}
	if length <= MaxShortFormLength {
		return append(dst, byte(length))
	}
	numBytes := 0
	for n := length; n > 0; n >>= 8 {
		numBytes++
	}
	dst = append(dst, 0x80|byte(numBytes))
	for i := numBytes - 1; i >= 0; i-- {
		dst = append(dst, byte(length>>(uint(i)*8)))
	}
	return dst
}

// AppendEndOfContents appends the 00 00 marker closing an indefinite length
// encoding.
func AppendEndOfContents(dst []byte) []byte {
	return append(dst, 0x00, 0x00)
}

// AppendTLV appends a complete definite length encoding of content under tag.
func AppendTLV(dst []byte, tag asn1core.TagDescriptor, content []byte) []byte {
	dst = AppendHeader(dst, Header{Tag: tag, Length: len(content)})
	return append(dst, content...)
}

// AppendBase128 appends n as a big-endian base-128 integer with continuation
// bits, as used by high tag numbers and object identifier arcs.
func AppendBase128(dst []byte, n uint64) []byte {
	l := base128Len64(n)
	for i := l - 1; i >= 0; i-- {
		b := byte(n>>(uint(i)*7)) & 0x7F
		if i != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

func base128Len(n uint) int {
	return base128Len64(uint64(n))
}

func base128Len64(n uint64) int {
	if n == 0 {
		return 1
	}
	l := 0
	for ; n > 0; n >>= 7 {
		l++
	}
	return l
}

// ParseBase128 reads a base-128 integer from data starting at offset. It
// returns the value and the offset following it. A leading 0x80 octet is
// non-minimal and always rejected.
func ParseBase128(data []byte, offset int, maxBits int) (uint64, int, error) {
	var n uint64
	bits := 0
	for i := offset; i < len(data); i++ {
		b := data[i]
		if i == offset && b == 0x80 {
			return 0, i, asn1core.NewErrorf("base 128 integer is not minimally encoded")
		}
		if bits == 0 {
			bits = bitsLen7(b & 0x7F)
		} else {
			bits += 7
		}
		if bits > maxBits {
			return 0, i, asn1core.NewErrorf("base 128 integer exceeds %d bits", maxBits)
		}
		n = n<<7 | uint64(b&0x7F)
		if b&0x80 == 0 {
			return n, i + 1, nil
		}
	}
	return 0, len(data), asn1core.NewDecodeError(asn1core.ErrTruncatedInput, len(data), "")
}

func bitsLen7(b byte) int {
	n := 0
	for ; b > 0; b >>= 1 {
		n++
	}
	return n
}

// MaxTagBits bounds the width of a high tag number accepted by ReadHeader.
const MaxTagBits = 28

// MaxTagNumber is the largest tag number ReadHeader accepts.
const MaxTagNumber = 1<<MaxTagBits - 1

// ReadHeader parses the header at offset without checking the length against
// the remaining input. It returns the header and the offset of the contents.
func (r *Reader) ReadHeader(offset int) (Header, int, error) {
	data := r.Data
	start := offset
	if offset < 0 || offset >= len(data) {
		return Header{}, offset, asn1core.NewDecodeError(asn1core.ErrTruncatedInput, offset, "").Withf("no identifier octet")
	}
	b := data[offset]
	offset++
	h := Header{
		Tag: asn1core.TagDescriptor{
			Class:       asn1core.Class(b >> 6),
			Constructed: b&0x20 != 0,
			Number:      uint(b & 0x1F),
		},
	}
	if b&0x1F == 0x1F {
		n, next, err := ParseBase128(data, offset, MaxTagBits)
		if err != nil {
			if de, ok := err.(*asn1core.DecodeError); ok {
				de.Offset = start
				return h, next, de.Withf("high tag number")
			}
			return h, next, asn1core.NewDecodeError(asn1core.ErrInvalidValue, start, "").WithCause(err)
		}
		if n < 31 && r.Strict {
			return h, next, asn1core.NewDecodeError(asn1core.ErrInvalidValue, start, "").Withf("tag number %d uses the high tag form", n)
		}
		h.Tag.Number = uint(n)
		offset = next
	}

	if offset >= len(data) {
		return h, offset, asn1core.NewDecodeError(asn1core.ErrTruncatedInput, start, "").Withf("no length octet")
	}
	b = data[offset]
	offset++
	switch {
	case b&0x80 == 0:
		h.Length = int(b)
	case b == 0x80:
		if !h.Tag.Constructed {
			return h, offset, asn1core.NewDecodeError(asn1core.ErrInvalidLength, start, "").Withf("indefinite length on a primitive encoding")
		}
		if r.Strict {
			return h, offset, asn1core.NewDecodeError(asn1core.ErrInvalidLength, start, "").Withf("indefinite length in strict mode")
		}
		h.Length = LengthIndefinite
	case b == 0xFF:
		return h, offset, asn1core.NewDecodeError(asn1core.ErrInvalidLength, start, "").Withf("reserved length octet 0xFF")
	default:
		numBytes := int(b & 0x7F)
		if offset+numBytes > len(data) {
			return h, offset, asn1core.NewDecodeError(asn1core.ErrTruncatedInput, start, "").Withf("long form length needs %d octet(s)", numBytes)
		}
		length := uint64(0)
		for i := 0; i < numBytes; i++ {
			if length > (math.MaxInt32 >> 8) {
				return h, offset, asn1core.NewDecodeError(asn1core.ErrInvalidLength, start, "").Withf("length overflows")
			}
			length = length<<8 | uint64(data[offset+i])
		}
		if r.Strict && (length <= MaxShortFormLength || data[offset] == 0) {
			return h, offset, asn1core.NewDecodeError(asn1core.ErrInvalidLength, start, "").Withf("length %d is not minimally encoded", length)
		}
		offset += numBytes
		h.Length = int(length)
	}
	return h, offset, nil
}
