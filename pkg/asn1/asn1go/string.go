package asn1go

import (
	"unicode/utf8"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1binary"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
)

// ValidateVisibleString checks that b only holds printable ASCII.
func ValidateVisibleString(b []byte) error {
	return asn1binary.VisibleStringValidator.ValidateBytes(b)
}

func ValidateUTF8String(b []byte) error {
	if !utf8.Valid(b) {
		return asn1core.NewErrorf("invalid UTF-8 sequence").WithType(asn1core.SyntaxError)
	}
	return nil
}
