package asn1schema

import (
	"math"
	"reflect"
	"time"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1go"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

func invalidValue(path string, format string, args ...any) *asn1core.EncodeError {
	return asn1core.NewEncodeError(asn1core.ErrInvalidValue, path, format, args...)
}

func outOfRange(path string, format string, args ...any) *asn1core.EncodeError {
	return asn1core.NewEncodeError(asn1core.ErrOutOfRange, path, format, args...)
}

// integerOf accepts any Go integer kind, including named types.
func integerOf(v any) (i int64, u uint64, negative bool, ok bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = rv.Int()
		return i, uint64(i), i < 0, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u = rv.Uint()
		return int64(u), u, false, true
	}
	return 0, 0, false, false
}

// Normalize converts v to the canonical Go type of the primitive t and
// checks it against t's constraints. Structured types are returned as they
// are. The encoder and decoder call it for values, the compiler for
// declared defaults.
func Normalize(t *TypeSchema, v pdu.Value, path string) (pdu.Value, error) {
	if t.Kind != KindPrimitive {
		return v, nil
	}
	switch t.Primitive {
	case Integer:
		i, u, negative, ok := integerOf(v)
		if !ok {
			return nil, invalidValue(path, "%T is not an integer", v)
		}
		if !negative && u > math.MaxInt64 {
			return nil, outOfRange(path, "%d does not fit a signed integer", u)
		}
		if !asn1go.SignedFits(i, t.Bits) {
			return nil, outOfRange(path, "%d does not fit %d bits", i, t.Bits)
		}
		return i, nil

	case Unsigned:
		_, u, negative, ok := integerOf(v)
		if !ok {
			return nil, invalidValue(path, "%T is not an integer", v)
		}
		if negative {
			return nil, outOfRange(path, "%d is negative", v)
		}
		if !asn1go.UnsignedFits(u, t.Bits) {
			return nil, outOfRange(path, "%d does not fit %d bits", u, t.Bits)
		}
		return u, nil

	case Enumerated:
		var n int64
		if s, ok := v.(string); ok {
			found := false
			for _, nv := range t.EnumValues {
				if nv.Name == s {
					n, found = nv.Value, true
					break
				}
			}
			if !found {
				return nil, invalidValue(path, "unknown enumeration %q", s)
			}
			return n, nil
		}
		i, u, negative, ok := integerOf(v)
		if !ok {
			return nil, invalidValue(path, "%T is not an enumeration", v)
		}
		if !negative && u > math.MaxInt64 {
			return nil, outOfRange(path, "%d does not fit an enumeration", u)
		}
		if len(t.EnumValues) > 0 {
			if _, ok := t.EnumName(i); !ok {
				return nil, outOfRange(path, "%d is not a declared enumeration", i)
			}
		}
		return i, nil

	case Boolean:
		b, ok := v.(bool)
		if !ok {
			return nil, invalidValue(path, "%T is not a boolean", v)
		}
		return b, nil

	case OctetString:
		switch tv := v.(type) {
		case []byte:
			return tv, nil
		case string:
			return []byte(tv), nil
		}
		return nil, invalidValue(path, "%T is not an octet string", v)

	case BitString:
		switch tv := v.(type) {
		case pdu.BitString:
			if tv.BitLength < 0 || tv.BitLength > len(tv.Bytes)*8 || len(tv.Bytes) > (tv.BitLength+7)/8 {
				return nil, invalidValue(path, "bit length %d does not match %d byte(s)", tv.BitLength, len(tv.Bytes))
			}
			return tv, nil
		case []byte:
			return pdu.BitString{Bytes: tv, BitLength: len(tv) * 8}, nil
		}
		return nil, invalidValue(path, "%T is not a bit string", v)

	case Real:
		switch tv := v.(type) {
		case float64:
			return tv, nil
		case float32:
			return float64(tv), nil
		}
		if i, u, negative, ok := integerOf(v); ok {
			if negative {
				return float64(i), nil
			}
			return float64(u), nil
		}
		return nil, invalidValue(path, "%T is not a real", v)

	case Null:
		switch v.(type) {
		case pdu.Null, *pdu.Null:
			return pdu.Null{}, nil
		}
		return nil, invalidValue(path, "%T is not null", v)

	case VisibleString, UTF8String:
		var s string
		switch tv := v.(type) {
		case string:
			s = tv
		case []byte:
			s = string(tv)
		default:
			return nil, invalidValue(path, "%T is not a string", v)
		}
		validate := asn1go.ValidateUTF8String
		if t.Primitive == VisibleString {
			validate = asn1go.ValidateVisibleString
		}
		if err := validate([]byte(s)); err != nil {
			return nil, invalidValue(path, "bad characters").WithCause(err)
		}
		return s, nil

	case ObjectIdentifier:
		switch tv := v.(type) {
		case pdu.OID:
			return tv, nil
		case []uint64:
			return pdu.OID(tv), nil
		case string:
			oid, err := pdu.ParseOID(tv)
			if err != nil {
				return nil, invalidValue(path, "bad object identifier").WithCause(err)
			}
			return oid, nil
		}
		return nil, invalidValue(path, "%T is not an object identifier", v)

	case GeneralizedTime:
		tv, ok := v.(time.Time)
		if !ok {
			return nil, invalidValue(path, "%T is not a time", v)
		}
		return tv.UTC(), nil
	}
	return nil, invalidValue(path, "unsupported primitive %s", t.Primitive)
}
