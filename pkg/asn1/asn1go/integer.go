package asn1go

import (
	"math"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"golang.org/x/exp/constraints"
)

//--------------------------------------------------------------------------------------------

// AppendInteger appends the minimal two's complement encoding of v.
func AppendInteger(dst []byte, v int64) []byte {
	n := 1
	for w := v; w > 127 || w < -128; w >>= 8 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(uint(i)*8)))
	}
	return dst
}

// AppendUnsigned appends v as a non-negative INTEGER, adding a leading zero
// octet when the top bit would otherwise read as a sign.
func AppendUnsigned(dst []byte, v uint64) []byte {
	if v <= math.MaxInt64 {
		return AppendInteger(dst, int64(v))
	}
	dst = append(dst, 0)
	for i := 7; i >= 0; i-- {
		dst = append(dst, byte(v>>(uint(i)*8)))
	}
	return dst
}

// IntegerLen returns the number of content octets AppendInteger writes.
func IntegerLen(v int64) int {
	n := 1
	for ; v > 127 || v < -128; v >>= 8 {
		n++
	}
	return n
}

func redundantLeading(b []byte) bool {
	return len(b) > 1 && (b[0] == 0x00 && b[1]&0x80 == 0 || b[0] == 0xFF && b[1]&0x80 != 0)
}

// trimInteger drops redundant sign octets. Non-minimal encodings are legal
// BER but rejected when strict is set.
func trimInteger(b []byte, strict bool) ([]byte, error) {
	if len(b) == 0 {
		return nil, asn1core.NewUnexpectedError(1, 0, "integer content").WithUnits("byte(s)").WithType(asn1core.SyntaxError)
	}
	if strict && redundantLeading(b) {
		return nil, asn1core.NewErrorf("integer is not minimally encoded").WithType(asn1core.SyntaxError)
	}
	for redundantLeading(b) {
		b = b[1:]
	}
	return b, nil
}

// ParseInteger decodes two's complement content octets into an int64.
func ParseInteger(b []byte, strict bool) (int64, error) {
	b, err := trimInteger(b, strict)
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, asn1core.NewErrorf("integer is too large for 64 bits").WithType(asn1core.SyntaxError)
	}
	v := int64(int8(b[0]))
	for _, c := range b[1:] {
		v = v<<8 | int64(c)
	}
	return v, nil
}

// ParseUnsigned decodes content octets that must hold a non-negative value.
func ParseUnsigned(b []byte, strict bool) (uint64, error) {
	b, err := trimInteger(b, strict)
	if err != nil {
		return 0, err
	}
	if b[0]&0x80 != 0 {
		return 0, asn1core.NewErrorf("unsigned integer is negative").WithType(asn1core.SyntaxError)
	}
	if len(b) == 9 {
		b = b[1:]
	}
	if len(b) > 8 {
		return 0, asn1core.NewErrorf("unsigned integer is too large for 64 bits").WithType(asn1core.SyntaxError)
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// SignedFits reports whether v is representable in a signed integer of the
// given width. A width of zero or 64 or more accepts everything.
func SignedFits[T constraints.Signed](v T, bits int) bool {
	if bits <= 0 || bits >= 64 {
		return true
	}
	limit := int64(1) << uint(bits-1)
	return int64(v) >= -limit && int64(v) < limit
}

// UnsignedFits reports whether v is representable in an unsigned integer of
// the given width.
func UnsignedFits[T constraints.Unsigned](v T, bits int) bool {
	if bits <= 0 || bits >= 64 {
		return true
	}
	return uint64(v) < uint64(1)<<uint(bits)
}
