package asn1ber

import (
	"strconv"
	"time"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1binary"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1go"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

// DefaultPolicy decides whether a member equal to its declared default is
// written.
type DefaultPolicy int

const (
	OmitDefaults = DefaultPolicy(iota)
	EncodeDefaults
)

type EncodeOptions struct {
	DefaultPolicy DefaultPolicy
	// IndefiniteLength writes constructed encodings with the 0x80 length
	// and an end-of-contents marker.
	IndefiniteLength bool
}

// Encoder walks a compiled schema and a value tree. It holds no state
// besides its options and may be shared.
type Encoder struct {
	opts EncodeOptions
}

func NewEncoder(opts EncodeOptions) *Encoder {
	return &Encoder{opts: opts}
}

var defaultEncoder = NewEncoder(EncodeOptions{})

// Encode encodes v with the default options.
func Encode(schema *asn1schema.TypeSchema, v pdu.Value) ([]byte, error) {
	return defaultEncoder.Encode(schema, v)
}

// Encode returns the encoding of v. On error no output is returned.
func (e *Encoder) Encode(schema *asn1schema.TypeSchema, v pdu.Value) ([]byte, error) {
	out, err := e.encodeType(nil, schema, nil, v, schema.String())
	if err != nil {
		return nil, err
	}
	return out, nil
}

func invalid(path string, format string, args ...any) *asn1core.EncodeError {
	return asn1core.NewEncodeError(asn1core.ErrInvalidValue, path, format, args...)
}

func join(path, name string) string {
	return path + "." + name
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func (e *Encoder) wrap(dst []byte, tag asn1core.TagDescriptor, content []byte) []byte {
	if e.opts.IndefiniteLength && tag.Constructed {
		dst = asn1binary.AppendHeader(dst, asn1binary.Header{Tag: tag, Length: asn1binary.LengthIndefinite})
		dst = append(dst, content...)
		return asn1binary.AppendEndOfContents(dst)
	}
	return asn1binary.AppendTLV(dst, tag, content)
}

func (e *Encoder) encodeField(dst []byte, f *asn1schema.FieldSchema, v pdu.Value, path string) ([]byte, error) {
	switch {
	case f.Tag == nil:
		return e.encodeType(dst, f.Type, nil, v, path)
	case f.Explicit:
		inner, err := e.encodeType(nil, f.Type, nil, v, path)
		if err != nil {
			return nil, err
		}
		return e.wrap(dst, f.Tag.WithConstructed(true), inner), nil
	}
	return e.encodeType(dst, f.Type, f.Tag, v, path)
}

// encodeType appends the encoding of v. A non-nil tag replaces the type's
// own tag.
func (e *Encoder) encodeType(dst []byte, t *asn1schema.TypeSchema, tag *asn1core.TagDescriptor, v pdu.Value, path string) ([]byte, error) {
	t, err := t.Resolve()
	if err != nil {
		return nil, err
	}
	if t.Kind == asn1schema.KindChoice {
		return e.encodeChoice(dst, t, v, path)
	}
	wire := t.WireTag()
	if tag != nil {
		wire = *tag
	}

	switch t.Kind {
	case asn1schema.KindPrimitive:
		content, err := e.primitive(t, v, path)
		if err != nil {
			return nil, err
		}
		return asn1binary.AppendTLV(dst, wire, content), nil

	case asn1schema.KindSequence, asn1schema.KindSet:
		content, err := e.fields(t, v, path)
		if err != nil {
			return nil, err
		}
		return e.wrap(dst, wire, content), nil

	case asn1schema.KindSequenceOf, asn1schema.KindSetOf:
		list, ok := asList(v)
		if !ok {
			return nil, invalid(path, "%T is not a list", v)
		}
		var content []byte
		for i, item := range list {
			content, err = e.encodeType(content, t.Element, nil, item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
		}
		return e.wrap(dst, wire, content), nil
	}
	return nil, invalid(path, "unsupported kind %s", t.Kind)
}

func asList(v pdu.Value) (pdu.List, bool) {
	switch tv := v.(type) {
	case pdu.List:
		return tv, true
	case []pdu.Value:
		return pdu.List(tv), true
	}
	return nil, false
}

func asRecord(v pdu.Value) (*pdu.Record, bool) {
	switch tv := v.(type) {
	case *pdu.Record:
		return tv, true
	case pdu.Record:
		return &tv, true
	}
	return nil, false
}

func (e *Encoder) fields(t *asn1schema.TypeSchema, v pdu.Value, path string) ([]byte, error) {
	rec, ok := asRecord(v)
	if !ok {
		return nil, invalid(path, "%T is not a record", v)
	}
	for _, rf := range rec.Fields() {
		if t.Field(rf.Name) == nil {
			return nil, invalid(path, "no member named %q", rf.Name)
		}
	}

	var content []byte
	for _, f := range t.Fields {
		fv, present := rec.Get(f.Name)
		if !present || fv == nil {
			if f.IsOptional() {
				continue
			}
			return nil, asn1core.NewEncodeError(asn1core.ErrMissingRequiredField, path, "no value").WithField(f.Name)
		}
		fpath := join(path, f.Name)
		if f.Default != nil && e.opts.DefaultPolicy == OmitDefaults {
			isDefault, err := equalsDefault(f, fv, fpath)
			if err != nil {
				return nil, err
			}
			if isDefault {
				continue
			}
		}
		var err error
		content, err = e.encodeField(content, f, fv, fpath)
		if err != nil {
			return nil, err
		}
	}
	return content, nil
}

func equalsDefault(f *asn1schema.FieldSchema, v pdu.Value, path string) (bool, error) {
	t, err := f.Type.Resolve()
	if err != nil {
		return false, err
	}
	def, err := asn1schema.Normalize(t, f.Default, path)
	if err != nil {
		return false, err
	}
	nv, err := asn1schema.Normalize(t, v, path)
	if err != nil {
		return false, err
	}
	return pdu.Equal(def, nv), nil
}

func (e *Encoder) encodeChoice(dst []byte, t *asn1schema.TypeSchema, v pdu.Value, path string) ([]byte, error) {
	var c pdu.Choice
	switch tv := v.(type) {
	case pdu.Choice:
		c = tv
	case *pdu.Choice:
		if tv == nil {
			return nil, invalid(path, "nil choice")
		}
		c = *tv
	default:
		return nil, invalid(path, "%T is not a choice", v)
	}
	alt := t.Field(c.Name)
	if alt == nil {
		return nil, asn1core.NewEncodeError(asn1core.ErrUnknownAlternative, path, "no alternative named %q", c.Name)
	}
	if c.Value == nil {
		return nil, asn1core.NewEncodeError(asn1core.ErrMissingRequiredField, path, "alternative has no value").WithField(c.Name)
	}
	return e.encodeField(dst, alt, c.Value, join(path, c.Name))
}

func (e *Encoder) primitive(t *asn1schema.TypeSchema, v pdu.Value, path string) ([]byte, error) {
	nv, err := asn1schema.Normalize(t, v, path)
	if err != nil {
		return nil, err
	}
	switch t.Primitive {
	case asn1schema.Integer, asn1schema.Enumerated:
		return asn1go.AppendInteger(nil, nv.(int64)), nil
	case asn1schema.Unsigned:
		return asn1go.AppendUnsigned(nil, nv.(uint64)), nil
	case asn1schema.Boolean:
		return asn1go.AppendBoolean(nil, nv.(bool)), nil
	case asn1schema.OctetString:
		return nv.([]byte), nil
	case asn1schema.BitString:
		out, err := asn1go.AppendBitString(nil, nv.(pdu.BitString))
		if err != nil {
			return nil, invalid(path, "bad bit string").WithCause(err)
		}
		return out, nil
	case asn1schema.Real:
		return asn1go.AppendReal(nil, nv.(float64)), nil
	case asn1schema.Null:
		return nil, nil
	case asn1schema.VisibleString, asn1schema.UTF8String:
		return []byte(nv.(string)), nil
	case asn1schema.ObjectIdentifier:
		out, err := asn1go.AppendOID(nil, nv.(pdu.OID))
		if err != nil {
			return nil, invalid(path, "bad object identifier").WithCause(err)
		}
		return out, nil
	case asn1schema.GeneralizedTime:
		return asn1go.AppendGeneralizedTime(nil, nv.(time.Time)), nil
	}
	return nil, invalid(path, "unsupported primitive %s", t.Primitive)
}
