package asn1reflect

import (
	"reflect"
	"strconv"
	"time"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

// specialSchema covers the types with a fixed mapping regardless of tags.
func specialSchema(rType reflect.Type) (*asn1schema.TypeSchema, bool) {
	switch rType {
	case timeType:
		return asn1schema.GeneralizedTimeType(), true
	case oidType:
		return asn1schema.ObjectIdentifierType(), true
	case bitStringType:
		return asn1schema.BitStringType(), true
	case nullType:
		return asn1schema.NullType(), true
	}
	return nil, false
}

func primitiveSchema(rType reflect.Type, params *Parameters) (*asn1schema.TypeSchema, error) {
	bits := params.Bits
	choose := func(fallback asn1schema.PrimitiveKind, allowed ...asn1schema.PrimitiveKind) (asn1schema.PrimitiveKind, error) {
		if params.Primitive == 0 || params.Primitive == fallback {
			return fallback, nil
		}
		for _, k := range allowed {
			if params.Primitive == k {
				return k, nil
			}
		}
		return 0, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, rType.String(), "%s cannot hold %s", rType, params.Primitive)
	}

	switch rType.Kind() {
	case reflect.Bool:
		if _, err := choose(asn1schema.Boolean); err != nil {
			return nil, err
		}
		return asn1schema.BooleanType(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		k, err := choose(asn1schema.Integer, asn1schema.Enumerated)
		if err != nil {
			return nil, err
		}
		if k == asn1schema.Enumerated {
			return asn1schema.EnumeratedType(), nil
		}
		if bits == 0 {
			bits = rType.Bits()
		}
		return asn1schema.IntegerBits(bits), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if _, err := choose(asn1schema.Unsigned); err != nil {
			return nil, err
		}
		if bits == 0 {
			bits = rType.Bits()
		}
		return asn1schema.UnsignedType(bits), nil

	case reflect.Float32, reflect.Float64:
		if _, err := choose(asn1schema.Real); err != nil {
			return nil, err
		}
		return asn1schema.RealType(), nil

	case reflect.String:
		k, err := choose(asn1schema.UTF8String, asn1schema.VisibleString)
		if err != nil {
			return nil, err
		}
		return asn1schema.PrimitiveType(k), nil

	case reflect.Slice:
		if _, err := choose(asn1schema.OctetString); err != nil {
			return nil, err
		}
		return asn1schema.OctetStringType(), nil
	}
	return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, rType.String(), "unsupported kind %s", rType.Kind())
}

// parseDefault reads the text of a default parameter as a value of rType.
// Enumerations may name their default.
func parseDefault(rType reflect.Type, s string) (pdu.Value, error) {
	for rType.Kind() == reflect.Pointer {
		rType = rType.Elem()
	}
	switch rType.Kind() {
	case reflect.Bool:
		return strconv.ParseBool(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return s, nil
		}
		return n, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(s, 0, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(s, 64)
	case reflect.String:
		return s, nil
	}
	return nil, asn1core.NewErrorf("%s cannot have a default", rType)
}

func mismatch(path, want string, got pdu.Value) error {
	return asn1core.NewErrorf("%s: expected a %s, found %T: %w", path, want, got, asn1core.ErrInvalidValue).WithType(asn1core.StructuralError)
}

func (m *Mapper) toValue(rv reflect.Value, path string) (pdu.Value, error) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, asn1core.NewEncodeError(asn1core.ErrInvalidValue, path, "nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	switch rv.Type() {
	case timeType, oidType, bitStringType, nullType:
		return rv.Interface(), nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		return m.structToValue(rv, path)
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte{}, rv.Bytes()...), nil
		}
		return m.sliceToValue(rv, path)
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	}
	return nil, asn1core.NewEncodeError(asn1core.ErrInvalidValue, path, "unsupported kind %s", rv.Kind())
}

// fromValue stores value into the settable rv, allocating pointers on the
// way.
func (m *Mapper) fromValue(value pdu.Value, rv reflect.Value, path string) error {
	if rv.Kind() == reflect.Pointer {
		if value == nil {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return m.fromValue(value, rv.Elem(), path)
	}

	switch rv.Type() {
	case timeType:
		t, ok := value.(time.Time)
		if !ok {
			return mismatch(path, "time", value)
		}
		rv.Set(reflect.ValueOf(t))
		return nil
	case oidType, bitStringType, nullType:
		v := reflect.ValueOf(value)
		if !v.IsValid() || v.Type() != rv.Type() {
			return mismatch(path, rv.Type().String(), value)
		}
		rv.Set(v)
		return nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		return m.structFromValue(value, rv, path)
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b, ok := value.([]byte)
			if !ok {
				return mismatch(path, "byte slice", value)
			}
			rv.SetBytes(append([]byte{}, b...))
			return nil
		}
		return m.sliceFromValue(value, rv, path)
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return mismatch(path, "boolean", value)
		}
		rv.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := value.(int64)
		if !ok {
			return mismatch(path, "integer", value)
		}
		if rv.OverflowInt(n) {
			return asn1core.NewErrorf("%s: %d overflows %s: %w", path, n, rv.Type(), asn1core.ErrOutOfRange).WithType(asn1core.StructuralError)
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := value.(uint64)
		if !ok {
			return mismatch(path, "unsigned integer", value)
		}
		if rv.OverflowUint(n) {
			return asn1core.NewErrorf("%s: %d overflows %s: %w", path, n, rv.Type(), asn1core.ErrOutOfRange).WithType(asn1core.StructuralError)
		}
		rv.SetUint(n)
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := value.(float64)
		if !ok {
			return mismatch(path, "real", value)
		}
		rv.SetFloat(f)
		return nil
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return mismatch(path, "string", value)
		}
		rv.SetString(s)
		return nil
	}
	return asn1core.NewErrorf("%s: unsupported kind %s", path, rv.Kind()).WithType(asn1core.ImplmentationError)
}
