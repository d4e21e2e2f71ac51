package asn1go

import "github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"

func AppendBoolean(dst []byte, v bool) []byte {
	if v {
		return append(dst, 0xFF)
	}
	return append(dst, 0x00)
}

// ParseBoolean accepts any non-zero octet as true unless strict is set, in
// which case only 0xFF is.
func ParseBoolean(b []byte, strict bool) (bool, error) {
	if len(b) != 1 {
		return false, asn1core.NewUnexpectedError(1, len(b), "boolean content").WithUnits("byte(s)").WithType(asn1core.SyntaxError)
	}
	if strict && b[0] != 0x00 && b[0] != 0xFF {
		return false, asn1core.NewErrorf("boolean octet 0x%02X is not canonical", b[0]).WithType(asn1core.SyntaxError)
	}
	return b[0] != 0x00, nil
}

func ParseNull(b []byte) error {
	if len(b) != 0 {
		return asn1core.NewUnexpectedError(0, len(b), "null").WithUnits("bytes").WithType(asn1core.SyntaxError)
	}
	return nil
}
