package asn1reflect

import (
	"reflect"
	"time"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1ber"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

var (
	timeType      = reflect.TypeOf((*time.Time)(nil)).Elem()
	oidType       = reflect.TypeOf((*pdu.OID)(nil)).Elem()
	bitStringType = reflect.TypeOf((*pdu.BitString)(nil)).Elem()
	nullType      = reflect.TypeOf((*pdu.Null)(nil)).Elem()
)

// TypeNamer lets a Go type choose the name its schema is registered under.
// Other struct types are registered as "<package path>.<type name>".
type TypeNamer interface {
	ASN1TypeName() string
}

// Mapper derives schemas from Go struct types and converts between Go
// values and pdu values. Derived schemas live in the mapper's registry, so
// each is built once and can also be looked up by name.
type Mapper struct {
	registry *asn1schema.Registry
	encoder  *asn1ber.Encoder
	decoder  *asn1ber.Decoder
}

func NewMapper(registry *asn1schema.Registry, encoder *asn1ber.Encoder, decoder *asn1ber.Decoder) *Mapper {
	return &Mapper{registry: registry, encoder: encoder, decoder: decoder}
}

// Default maps into asn1schema.Default with the default codec options.
var Default = NewMapper(asn1schema.Default, asn1ber.NewEncoder(asn1ber.EncodeOptions{}), asn1ber.NewDecoder(asn1ber.DecodeOptions{}))

func (m *Mapper) Registry() *asn1schema.Registry {
	return m.registry
}

// TypeName returns the registry name used for rType.
func TypeName(rType reflect.Type) (string, error) {
	for rType.Kind() == reflect.Pointer {
		rType = rType.Elem()
	}
	if rType.Kind() == reflect.Struct {
		if namer, ok := reflect.New(rType).Interface().(TypeNamer); ok {
			return namer.ASN1TypeName(), nil
		}
	}
	if rType.Name() == "" {
		return "", asn1core.NewSchemaError(asn1core.ErrInvalidSchema, rType.String(), "only named types can be registered")
	}
	return rType.PkgPath() + "." + rType.Name(), nil
}

// define registers a lazily built schema for the struct type rType and
// returns its name. A name that is already defined is left alone.
func (m *Mapper) define(rType reflect.Type) (string, error) {
	name, err := TypeName(rType)
	if err != nil {
		return "", err
	}
	m.registry.DefineIfAbsent(name, func() (*asn1schema.TypeSchema, error) {
		return m.structSchema(rType, name)
	})
	return name, nil
}

// SchemaOf returns the compiled schema of a struct type.
func (m *Mapper) SchemaOf(rType reflect.Type) (*asn1schema.TypeSchema, error) {
	for rType.Kind() == reflect.Pointer {
		rType = rType.Elem()
	}
	if rType.Kind() != reflect.Struct {
		return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, rType.String(), "%s is not a struct", rType.Kind())
	}
	name, err := m.define(rType)
	if err != nil {
		return nil, err
	}
	return m.registry.SchemaFor(name)
}

// ToValue converts a struct, or a pointer to one, into its pdu form.
func (m *Mapper) ToValue(v any) (pdu.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, asn1core.NewEncodeError(asn1core.ErrInvalidValue, "", "nil value")
	}
	return m.toValue(rv, rv.Type().String())
}

// FromValue stores a pdu value into the struct v points to.
func (m *Mapper) FromValue(value pdu.Value, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return asn1core.NewErrorf("asn1: FromValue needs a non-nil pointer, not %T", v).WithType(asn1core.ImplmentationError)
	}
	return m.fromValue(value, rv.Elem(), rv.Type().Elem().String())
}

// Marshal returns the BER encoding of the struct v.
func (m *Mapper) Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, asn1core.NewEncodeError(asn1core.ErrInvalidValue, "", "nil value")
	}
	schema, err := m.SchemaOf(rv.Type())
	if err != nil {
		return nil, err
	}
	value, err := m.toValue(rv, schema.String())
	if err != nil {
		return nil, err
	}
	return m.encoder.Encode(schema, value)
}

// Unmarshal decodes data, which must hold exactly one value, into the
// struct v points to.
func (m *Mapper) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return asn1core.NewErrorf("asn1: Unmarshal needs a non-nil pointer, not %T", v).WithType(asn1core.ImplmentationError)
	}
	schema, err := m.SchemaOf(rv.Type())
	if err != nil {
		return err
	}
	value, err := m.decoder.DecodeAll(schema, data)
	if err != nil {
		return err
	}
	return m.fromValue(value, rv.Elem(), schema.String())
}

func SchemaOf(rType reflect.Type) (*asn1schema.TypeSchema, error) {
	return Default.SchemaOf(rType)
}

func Marshal(v any) ([]byte, error) {
	return Default.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return Default.Unmarshal(data, v)
}
