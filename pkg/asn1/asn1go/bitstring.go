package asn1go

import (
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

// AppendBitString appends the unused-bits octet followed by the bits of v.
// Bits past BitLength in the final octet are cleared.
func AppendBitString(dst []byte, v pdu.BitString) ([]byte, error) {
	if v.BitLength < 0 {
		return dst, asn1core.NewErrorf("negative bit length %d", v.BitLength)
	}
	n := (v.BitLength + 7) / 8
	if len(v.Bytes) < n {
		return dst, asn1core.NewUnexpectedError(n, len(v.Bytes), "bit string data").WithUnits("byte(s)")
	}
	unused := n*8 - v.BitLength
	dst = append(dst, byte(unused))
	if n == 0 {
		return dst, nil
	}
	dst = append(dst, v.Bytes[:n-1]...)
	return append(dst, v.Bytes[n-1]&(0xFF<<uint(unused))), nil
}

func ParseBitString(b []byte, strict bool) (pdu.BitString, error) {
	if len(b) < 1 {
		return pdu.BitString{}, asn1core.NewUnexpectedError(1, len(b), "bitstring prefix").WithUnits("bytes").WithType(asn1core.SyntaxError)
	}
	unused := int(b[0])
	if unused > 7 || len(b) == 1 && unused != 0 {
		return pdu.BitString{}, asn1core.NewErrorf("invalid unused bit count %d", unused).WithType(asn1core.SyntaxError)
	}
	data := make([]byte, len(b)-1)
	copy(data, b[1:])
	if len(data) > 0 {
		mask := byte(1<<uint(unused)) - 1
		if strict && data[len(data)-1]&mask != 0 {
			return pdu.BitString{}, asn1core.NewErrorf("unused bits are not zero").WithType(asn1core.SyntaxError)
		}
		data[len(data)-1] &^= mask
	}
	return pdu.BitString{Bytes: data, BitLength: len(data)*8 - unused}, nil
}
