package asn1schema

import (
	"fmt"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

// Kind selects how a TypeSchema is laid out on the wire.
type Kind int

const (
	KindPrimitive = Kind(iota)
	KindSequence
	KindSet
	KindSequenceOf
	KindSetOf
	KindChoice
	KindRef
)

var kindMap asn1core.Mapping[Kind]

// PrimitiveKind selects the content rules of a primitive type.
type PrimitiveKind int

const (
	Integer = PrimitiveKind(iota + 1)
	Unsigned
	Boolean
	OctetString
	BitString
	Enumerated
	Real
	Null
	VisibleString
	UTF8String
	ObjectIdentifier
	GeneralizedTime
)

var primitiveMap asn1core.Mapping[PrimitiveKind]

var primitiveTags = map[PrimitiveKind]asn1core.Tag{
	Integer:          asn1core.TagInteger,
	Unsigned:         asn1core.TagInteger,
	Boolean:          asn1core.TagBoolean,
	OctetString:      asn1core.TagOctetString,
	BitString:        asn1core.TagBitString,
	Enumerated:       asn1core.TagEnum,
	Real:             asn1core.TagReal,
	Null:             asn1core.TagNull,
	VisibleString:    asn1core.TagVisibleString,
	UTF8String:       asn1core.TagUTF8String,
	ObjectIdentifier: asn1core.TagOID,
	GeneralizedTime:  asn1core.TagGeneralizedTime,
}

func init() {
	kindMap.Add("primitive", KindPrimitive)
	kindMap.Add("sequence", KindSequence)
	kindMap.Add("set", KindSet)
	kindMap.Add("sequenceOf", KindSequenceOf)
	kindMap.Add("setOf", KindSetOf)
	kindMap.Add("choice", KindChoice)
	kindMap.Add("ref", KindRef)

	primitiveMap.Add("integer", Integer, "int")
	primitiveMap.Add("unsigned", Unsigned)
	primitiveMap.Add("boolean", Boolean, "bool")
	primitiveMap.Add("octetString", OctetString, "octets")
	primitiveMap.Add("bitString", BitString)
	primitiveMap.Add("enumerated", Enumerated, "enum")
	primitiveMap.Add("real", Real)
	primitiveMap.Add("null", Null)
	primitiveMap.Add("visibleString", VisibleString, "string")
	primitiveMap.Add("utf8String", UTF8String)
	primitiveMap.Add("objectIdentifier", ObjectIdentifier, "oid")
	primitiveMap.Add("generalizedTime", GeneralizedTime)
}

func (k Kind) String() string {
	name, err := kindMap.Name(k)
	if err != nil {
		return fmt.Sprintf("kind=%d", int(k))
	}
	return name
}

func ParseKind(s string) (Kind, error) {
	return kindMap.Value(s)
}

func (k PrimitiveKind) String() string {
	name, err := primitiveMap.Name(k)
	if err != nil {
		return fmt.Sprintf("primitive=%d", int(k))
	}
	return name
}

func ParsePrimitiveKind(s string) (PrimitiveKind, error) {
	return primitiveMap.Value(s)
}

// NamedValue is one member of an ENUMERATED type.
type NamedValue struct {
	Name  string
	Value int64
}

// TypeSchema describes the wire layout of one type. Schemas returned by a
// Registry are compiled: tags are filled in and the tree must not be
// modified.
type TypeSchema struct {
	Name string
	Kind Kind

	// Tag is the outermost tag. A nil Tag means the universal tag of the
	// kind. Choices and references have no tag of their own.
	Tag *asn1core.TagDescriptor

	// Fields holds Sequence and Set members or Choice alternatives.
	Fields []*FieldSchema

	// Element is the repeated type of SequenceOf and SetOf.
	Element *TypeSchema

	Primitive  PrimitiveKind
	Bits       int
	EnumValues []NamedValue

	Ref      string
	registry *Registry
}

// FieldSchema describes one member of a structured type or one alternative
// of a choice.
type FieldSchema struct {
	Name     string
	Tag      *asn1core.TagDescriptor
	Explicit bool
	Optional bool
	Default  pdu.Value
	Type     *TypeSchema
}

// IsOptional reports whether the field may be absent on the wire.
func (f *FieldSchema) IsOptional() bool {
	return f.Optional || f.Default != nil
}

// IsConstructed reports whether the universal encoding of t is constructed.
// References must be resolved first.
func (t *TypeSchema) IsConstructed() bool {
	switch t.Kind {
	case KindSequence, KindSet, KindSequenceOf, KindSetOf:
		return true
	}
	return false
}

// WireTag returns the tag t is encoded with when no field tag applies.
func (t *TypeSchema) WireTag() asn1core.TagDescriptor {
	if t.Tag != nil {
		return t.Tag.WithConstructed(t.IsConstructed())
	}
	switch t.Kind {
	case KindSequence, KindSequenceOf:
		return asn1core.Universal(asn1core.TagSequence, true)
	case KindSet, KindSetOf:
		return asn1core.Universal(asn1core.TagSet, true)
	case KindPrimitive:
		return asn1core.Universal(primitiveTags[t.Primitive], false)
	}
	return asn1core.TagDescriptor{}
}

// Resolve follows references to the compiled schema they name.
func (t *TypeSchema) Resolve() (*TypeSchema, error) {
	for hops := 0; t.Kind == KindRef; hops++ {
		if hops > maxRefHops {
			return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, t.Ref, "reference chain is too long")
		}
		r := t.registry
		if r == nil {
			r = Default
		}
		next, err := r.SchemaFor(t.Ref)
		if err != nil {
			return nil, err
		}
		t = next
	}
	return t, nil
}

// Field returns the member or alternative called name.
func (t *TypeSchema) Field(name string) *FieldSchema {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EnumName returns the name of an ENUMERATED value, if one is declared.
func (t *TypeSchema) EnumName(v int64) (string, bool) {
	for _, nv := range t.EnumValues {
		if nv.Value == v {
			return nv.Name, true
		}
	}
	return "", false
}

func (t *TypeSchema) String() string {
	switch {
	case t.Kind == KindRef:
		return t.Ref
	case t.Name != "":
		return t.Name
	case t.Kind == KindPrimitive:
		return t.Primitive.String()
	}
	return t.Kind.String()
}

const maxRefHops = 32

//--------------------------------------------------------------------------------------------
// builders

func newPrimitive(kind PrimitiveKind, bits int) *TypeSchema {
	return &TypeSchema{Kind: KindPrimitive, Primitive: kind, Bits: bits}
}

func IntegerType() *TypeSchema { return newPrimitive(Integer, 0) }
func IntegerBits(bits int) *TypeSchema { return newPrimitive(Integer, bits) }
func UnsignedType(bits int) *TypeSchema { return newPrimitive(Unsigned, bits) }
func BooleanType() *TypeSchema { return newPrimitive(Boolean, 0) }
func OctetStringType() *TypeSchema { return newPrimitive(OctetString, 0) }
func BitStringType() *TypeSchema { return newPrimitive(BitString, 0) }
func RealType() *TypeSchema { return newPrimitive(Real, 0) }
func NullType() *TypeSchema { return newPrimitive(Null, 0) }
func VisibleStringType() *TypeSchema { return newPrimitive(VisibleString, 0) }
func UTF8StringType() *TypeSchema { return newPrimitive(UTF8String, 0) }
func ObjectIdentifierType() *TypeSchema { return newPrimitive(ObjectIdentifier, 0) }
func GeneralizedTimeType() *TypeSchema { return newPrimitive(GeneralizedTime, 0) }
func PrimitiveType(k PrimitiveKind) *TypeSchema { return newPrimitive(k, 0) }

// EnumeratedType returns an ENUMERATED type. With no values any integer is
// accepted.
func EnumeratedType(values ...NamedValue) *TypeSchema {
	t := newPrimitive(Enumerated, 0)
	t.EnumValues = values
	return t
}

func Sequence(fields ...*FieldSchema) *TypeSchema {
	return &TypeSchema{Kind: KindSequence, Fields: fields}
}

func Set(fields ...*FieldSchema) *TypeSchema {
	return &TypeSchema{Kind: KindSet, Fields: fields}
}

func Choice(alternatives ...*FieldSchema) *TypeSchema {
	return &TypeSchema{Kind: KindChoice, Fields: alternatives}
}

func SequenceOf(element *TypeSchema) *TypeSchema {
	return &TypeSchema{Kind: KindSequenceOf, Element: element}
}

func SetOf(element *TypeSchema) *TypeSchema {
	return &TypeSchema{Kind: KindSetOf, Element: element}
}

// Ref refers to the type registered under name.
func Ref(name string) *TypeSchema {
	return &TypeSchema{Kind: KindRef, Ref: name}
}

// WithTag sets an implicit outer tag on t, as in [APPLICATION 1] IMPLICIT
// SEQUENCE, and returns t.
func (t *TypeSchema) WithTag(td asn1core.TagDescriptor) *TypeSchema {
	t.Tag = &td
	return t
}

// FieldOption customises a FieldSchema built by Field.
type FieldOption func(f *FieldSchema)

// Field returns a member or alternative of type t.
func Field(name string, t *TypeSchema, options ...FieldOption) *FieldSchema {
	f := &FieldSchema{Name: name, Type: t}
	for _, option := range options {
		option(f)
	}
	return f
}

// Tagged tags the field with td. Tagging is implicit unless Explicit is
// also given or the field type is a choice.
func Tagged(td asn1core.TagDescriptor) FieldOption {
	return func(f *FieldSchema) {
		f.Tag = &td
	}
}

// ContextTag is Tagged with a context-specific tag number.
func ContextTag(n uint) FieldOption {
	return Tagged(asn1core.Context(n))
}

func Explicit() FieldOption {
	return func(f *FieldSchema) {
		f.Explicit = true
	}
}

func Optional() FieldOption {
	return func(f *FieldSchema) {
		f.Optional = true
	}
}

// WithDefault makes the field optional with v recorded when it is absent.
func WithDefault(v pdu.Value) FieldOption {
	return func(f *FieldSchema) {
		f.Default = v
	}
}
