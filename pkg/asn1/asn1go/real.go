package asn1go

import (
	"math"
	"strconv"
	"strings"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
)

// Special REAL values, X.690 8.5.9.
const (
	realPlusInfinity  = 0x40
	realMinusInfinity = 0x41
	realNotANumber    = 0x42
	realMinusZero     = 0x43
)

// AppendReal appends the base 2 binary encoding of v with an odd mantissa,
// which is also the canonical DER form.
func AppendReal(dst []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, realNotANumber)
	case math.IsInf(v, 1):
		return append(dst, realPlusInfinity)
	case math.IsInf(v, -1):
		return append(dst, realMinusInfinity)
	case v == 0:
		if math.Signbit(v) {
			return append(dst, realMinusZero)
		}
		return dst
	}

	first := byte(0x80)
	if v < 0 {
		first |= 0x40
		v = -v
	}
	frac, exp := math.Frexp(v)
	mantissa := uint64(math.Ldexp(frac, 53))
	exponent := int64(exp - 53)
	for mantissa&1 == 0 {
		mantissa >>= 1
		exponent++
	}

	expBytes := AppendInteger(nil, exponent)
	switch len(expBytes) {
	case 1, 2, 3:
		first |= byte(len(expBytes) - 1)
		dst = append(dst, first)
	default:
		dst = append(dst, first|0x03, byte(len(expBytes)))
	}
	dst = append(dst, expBytes...)

	n := 0
	for m := mantissa; m > 0; m >>= 8 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		dst = append(dst, byte(mantissa>>(uint(i)*8)))
	}
	return dst
}

// ParseReal decodes binary (base 2, 8 or 16), decimal (ISO 6093 NR1-NR3)
// and special value encodings.
func ParseReal(b []byte) (float64, error) {
	if len(b) == 0 {
		return 0, nil
	}
	first := b[0]
	switch {
	case first&0x80 != 0:
		return parseBinaryReal(b)
	case first&0xC0 == 0x40:
		if len(b) != 1 {
			return 0, asn1core.NewUnexpectedError(1, len(b), "special real").WithUnits("byte(s)").WithType(asn1core.SyntaxError)
		}
		switch first {
		case realPlusInfinity:
			return math.Inf(1), nil
		case realMinusInfinity:
			return math.Inf(-1), nil
		case realNotANumber:
			return math.NaN(), nil
		case realMinusZero:
			return math.Copysign(0, -1), nil
		}
		return 0, asn1core.NewErrorf("unknown special real 0x%02X", first).WithType(asn1core.SyntaxError)
	}

	form := first & 0x3F
	if form < 1 || form > 3 {
		return 0, asn1core.NewErrorf("unknown decimal real form %d", form).WithType(asn1core.SyntaxError)
	}
	s := strings.TrimSpace(string(b[1:]))
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, asn1core.NewErrorf("invalid decimal real %q", s).WithCause(err).WithType(asn1core.SyntaxError)
	}
	return f, nil
}

func parseBinaryReal(b []byte) (float64, error) {
	first := b[0]
	var baseBits int
	switch (first >> 4) & 0x03 {
	case 0:
		baseBits = 1
	case 1:
		baseBits = 3
	case 2:
		baseBits = 4
	default:
		return 0, asn1core.NewErrorf("reserved real base").WithType(asn1core.SyntaxError)
	}
	scale := int((first >> 2) & 0x03)

	pos := 1
	expLen := int(first&0x03) + 1
	if first&0x03 == 0x03 {
		if len(b) < 2 {
			return 0, asn1core.NewErrorf("real exponent length is missing").WithType(asn1core.SyntaxError)
		}
		expLen = int(b[1])
		pos = 2
	}
	if expLen == 0 || pos+expLen > len(b) {
		return 0, asn1core.NewUnexpectedError(pos+expLen, len(b), "real exponent").WithUnits("byte(s)").WithType(asn1core.SyntaxError)
	}
	exponent, err := ParseInteger(b[pos:pos+expLen], false)
	if err != nil {
		return 0, err
	}
	if exponent > math.MaxInt32/4 || exponent < math.MinInt32/4 {
		return 0, asn1core.NewErrorf("real exponent %d is out of range", exponent).WithType(asn1core.SyntaxError)
	}
	pos += expLen

	mantissa := 0.0
	for _, c := range b[pos:] {
		mantissa = mantissa*256 + float64(c)
	}
	v := math.Ldexp(mantissa, scale+int(exponent)*baseBits)
	if first&0x40 != 0 {
		v = -v
	}
	return v, nil
}
