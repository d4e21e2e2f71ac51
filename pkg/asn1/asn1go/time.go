package asn1go

import (
	"time"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
)

const generalizedTimeLayout = "20060102150405.999999999Z0700"

// AppendGeneralizedTime appends t in UTC as YYYYMMDDHHMMSS[.fff]Z.
func AppendGeneralizedTime(dst []byte, t time.Time) []byte {
	return t.UTC().AppendFormat(dst, generalizedTimeLayout)
}

// ParseGeneralizedTime accepts UTC, offset and local forms with optional
// fractional seconds and returns the instant in UTC. Local forms are read as
// UTC.
func ParseGeneralizedTime(b []byte) (time.Time, error) {
	s := string(b)
	for _, layout := range []string{"20060102150405Z0700", "20060102150405"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, asn1core.NewErrorf("invalid GeneralizedTime %q", s).WithType(asn1core.SyntaxError)
}
