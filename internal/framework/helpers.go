package framework

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// IsIdentifier checks s is usable as a type or field name in a schema
// file. ASN.1 names may contain hyphens.
func IsIdentifier(s string) error {
	if len(s) == 0 {
		return fmt.Errorf("empty string")
	}
	if len(s) > 128 {
		return fmt.Errorf("string too long")
	}
	for i, c := range s {
		if i == 0 && !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return fmt.Errorf("first character must be a letter")
		}
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-') {
			return fmt.Errorf("invalid character %c", c)
		}
	}
	return nil
}

// Config is a loosely typed block read from YAML. Consume functions remove
// the keys they read so CheckFields can report what is left over.
type Config map[string]any

// AsConfig converts a nested YAML mapping into a Config.
func AsConfig(v any) (Config, bool) {
	switch m := v.(type) {
	case Config:
		return m, true
	case map[string]any:
		return Config(m), true
	}
	return nil, false
}

func Variations(fields ...string) []string {
	var fieldsToTry []string

	for _, field := range fields {
		fieldsToTry = append(fieldsToTry, field)
		if strings.HasSuffix(field, "s") {
			fieldsToTry = append(fieldsToTry, field[:len(field)-1])
		} else {
			fieldsToTry = append(fieldsToTry, field+"s")
		}
		if strings.HasSuffix(field, "y") {
			fieldsToTry = append(fieldsToTry, field[:len(field)-1]+"ies")
		}
	}
	return fieldsToTry
}

func CheckFields(args Config, fields ...string) error {
	fieldVariations := Variations(fields...)
	unexpectedfields := make([]string, 0)
	for k := range args {
		if !slices.Contains(fieldVariations, k) {
			unexpectedfields = append(unexpectedfields, fmt.Sprintf("%q", k))
		}
	}
	if len(unexpectedfields) > 0 {
		slices.Sort(unexpectedfields)
		return fmt.Errorf("unexpected fields: %s", strings.Join(unexpectedfields, ", "))
	}
	return nil
}

// convert widens what YAML produced (int, float64, []any) to the type the
// caller asked for.
func convert(v any, requiredType reflect.Type, field string) (reflect.Value, error) {
	got := reflect.ValueOf(v)
	if v == nil {
		return reflect.Value{}, fmt.Errorf("field %q is empty", field)
	}
	if got.Type().AssignableTo(requiredType) {
		return got, nil
	}
	switch requiredType.Kind() {
	case reflect.Slice, reflect.Array:
		elemType := requiredType.Elem()
		if got.Kind() != reflect.Slice && got.Kind() != reflect.Array {
			elem, err := convert(v, elemType, field)
			if err != nil {
				return reflect.Value{}, err
			}
			one := reflect.MakeSlice(requiredType, 1, 1)
			one.Index(0).Set(elem)
			return one, nil
		}
		count := got.Len()
		list := reflect.MakeSlice(requiredType, count, count)
		for i := 0; i < count; i++ {
			elem := got.Index(i)
			if elem.Kind() == reflect.Interface && elem.NumMethod() == 0 {
				elem = elem.Elem()
			}
			if !elem.IsValid() || !elem.CanConvert(elemType) {
				return reflect.Value{}, fmt.Errorf("invalid type in list for field %q, expected %s", field, elemType)
			}
			list.Index(i).Set(elem.Convert(elemType))
		}
		return list, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch got.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if requiredType.Kind() >= reflect.Uint && got.Int() < 0 {
				return reflect.Value{}, fmt.Errorf("field %q must not be negative", field)
			}
			return got.Convert(requiredType), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return got.Convert(requiredType), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("invalid type %s for field %q, expected %s", got.Type(), field, requiredType)
}

// consumeOptionalArg also removes the field from the cfg
func consumeOptionalArg[T any](cfg Config, field string) (*T, error) {
	requiredType := reflect.TypeOf((*T)(nil)).Elem()
	for _, fieldToTry := range Variations(field) {
		v, ok := cfg[fieldToTry]
		if !ok {
			continue
		}
		if tv, ok := v.(T); ok {
			delete(cfg, fieldToTry)
			return &tv, nil
		}
		rv, err := convert(v, requiredType, fieldToTry)
		if err != nil {
			return nil, err
		}
		tv := rv.Interface().(T)
		delete(cfg, fieldToTry)
		return &tv, nil
	}
	return nil, nil
}

func ConsumeOptionalArg[T any](cfg Config, field string, defaultValue T) (T, error) {
	tp, err := consumeOptionalArg[T](cfg, field)
	if err != nil {
		return defaultValue, err
	}
	if tp == nil {
		return defaultValue, nil
	}
	return *tp, nil
}

func ConsumeArg[T any](cfg Config, field string) (T, error) {
	tp, err := consumeOptionalArg[T](cfg, field)
	if err != nil {
		var null T
		return null, err
	}
	if tp == nil {
		var null T
		return null, fmt.Errorf("missing required field %q", field)
	}
	return *tp, nil
}

// ConsumeRaw removes and returns a field without converting it.
func ConsumeRaw(cfg Config, field string) (any, bool) {
	for _, fieldToTry := range Variations(field) {
		if v, ok := cfg[fieldToTry]; ok {
			delete(cfg, fieldToTry)
			return v, true
		}
	}
	return nil, false
}
