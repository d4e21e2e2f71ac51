package asn1go

import (
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1binary"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

func AppendOID(dst []byte, v pdu.OID) ([]byte, error) {
	if len(v) < 2 {
		return dst, asn1core.NewUnexpectedError(2, len(v), "OID Prefix").WithUnits("elements")
	}
	if v[0] > 2 || v[0] < 2 && v[1] >= 40 {
		return dst, asn1core.NewErrorf("OID prefix %d.%d is invalid", v[0], v[1])
	}
	dst = asn1binary.AppendBase128(dst, v[0]*40+v[1])
	for _, n := range v[2:] {
		dst = asn1binary.AppendBase128(dst, n)
	}
	return dst, nil
}

func ParseOID(b []byte) (pdu.OID, error) {
	if len(b) < 1 {
		return nil, asn1core.NewUnexpectedError(1, len(b), "OID Prefix").WithUnits("bytes").WithType(asn1core.SyntaxError)
	}
	oid := make(pdu.OID, 0, 10)
	for i := 0; i < len(b); {
		n, next, err := asn1binary.ParseBase128(b, i, 64)
		if err != nil {
			return nil, asn1core.NewErrorf("OID element %d is malformed", len(oid)).WithCause(err).WithType(asn1core.SyntaxError)
		}
		if len(oid) == 0 {
			switch {
			case n < 40:
				oid = append(oid, 0, n)
			case n < 80:
				oid = append(oid, 1, n-40)
			default:
				oid = append(oid, 2, n-80)
			}
		} else {
			oid = append(oid, n)
		}
		i = next
	}
	return oid, nil
}
