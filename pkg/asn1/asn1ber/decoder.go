package asn1ber

import (
	"errors"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1binary"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1go"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

type DecodeOptions struct {
	// Strict rejects what DER forbids: non-minimal integers and lengths,
	// indefinite lengths, booleans other than 0x00 and 0xFF, segmented
	// strings and unknown trailing members.
	Strict bool
	// MaxDepth bounds nesting. Zero means asn1binary.DefaultMaxDepth.
	MaxDepth int
}

// Decoder walks a compiled schema over a byte buffer. Every step is a
// function of (schema, data, offset) returning the offset after what it
// consumed, so decoders share nothing but the input.
type Decoder struct {
	opts DecodeOptions
}

func NewDecoder(opts DecodeOptions) *Decoder {
	return &Decoder{opts: opts}
}

var defaultDecoder = NewDecoder(DecodeOptions{})

// Decode decodes one value at offset with the default options.
func Decode(schema *asn1schema.TypeSchema, data []byte, offset int) (pdu.Value, int, error) {
	return defaultDecoder.Decode(schema, data, offset)
}

// Decode decodes one value of schema starting at offset and returns it with
// the number of bytes consumed.
func (d *Decoder) Decode(schema *asn1schema.TypeSchema, data []byte, offset int) (pdu.Value, int, error) {
	s := &decodeState{
		r:    &asn1binary.Reader{Data: data, Strict: d.opts.Strict, MaxDepth: d.opts.MaxDepth},
		opts: d.opts,
	}
	v, end, err := s.decodeType(schema, nil, offset, len(data), 0, schema.String())
	if err != nil {
		return nil, 0, err
	}
	return v, end - offset, nil
}

// DecodeAll decodes data, which must hold exactly one value.
func (d *Decoder) DecodeAll(schema *asn1schema.TypeSchema, data []byte) (pdu.Value, error) {
	v, n, err := d.Decode(schema, data, 0)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, asn1core.NewDecodeError(asn1core.ErrUnexpectedElement, n, schema.String()).Withf("%d trailing byte(s)", len(data)-n)
	}
	return v, nil
}

func DecodeAll(schema *asn1schema.TypeSchema, data []byte) (pdu.Value, error) {
	return defaultDecoder.DecodeAll(schema, data)
}

type decodeState struct {
	r    *asn1binary.Reader
	opts DecodeOptions
}

// located fills in the path of errors raised below the schema walk.
func located(err error, path string) error {
	var de *asn1core.DecodeError
	if errors.As(err, &de) && de.Path == "" {
		de.Path = path
	}
	return err
}

func (s *decodeState) decodeField(f *asn1schema.FieldSchema, offset, limit, depth int, path string) (pdu.Value, int, error) {
	switch {
	case f.Tag == nil:
		return s.decodeType(f.Type, nil, offset, limit, depth, path)
	case f.Explicit:
		el, err := s.r.ReadElement(offset, limit, depth)
		if err != nil {
			return nil, 0, located(err, path)
		}
		if !el.Tag.Matches(*f.Tag) || !el.Tag.Constructed {
			return nil, 0, asn1core.NewDecodeError(asn1core.ErrTagMismatch, offset, path).WithTags(f.Tag, &el.Tag)
		}
		v, end, err := s.decodeType(f.Type, nil, el.ContentOffset, el.ContentEnd, depth+1, path)
		if err != nil {
			return nil, 0, err
		}
		if end != el.ContentEnd {
			return nil, 0, asn1core.NewDecodeError(asn1core.ErrUnexpectedElement, end, path).Withf("explicit tag %s holds more than one value", f.Tag)
		}
		return v, el.End, nil
	}
	return s.decodeType(f.Type, f.Tag, offset, limit, depth, path)
}

// matches reports whether a field can start with tag.
func matches(f *asn1schema.FieldSchema, tag asn1core.TagDescriptor) (bool, error) {
	if f.Tag != nil {
		return f.Tag.Matches(tag), nil
	}
	t, err := f.Type.Resolve()
	if err != nil {
		return false, err
	}
	if t.Kind != asn1schema.KindChoice {
		return t.WireTag().Matches(tag), nil
	}
	for _, alt := range t.Fields {
		ok, err := matches(alt, tag)
		if ok || err != nil {
			return ok, err
		}
	}
	return false, nil
}

// firstTag is the tag reported as expected when a field is missing.
func firstTag(f *asn1schema.FieldSchema) *asn1core.TagDescriptor {
	if f.Tag != nil {
		return f.Tag
	}
	t, err := f.Type.Resolve()
	if err != nil || t.Kind == asn1schema.KindChoice {
		return nil
	}
	tag := t.WireTag()
	return &tag
}

func (s *decodeState) decodeType(t *asn1schema.TypeSchema, tag *asn1core.TagDescriptor, offset, limit, depth int, path string) (pdu.Value, int, error) {
	t, err := t.Resolve()
	if err != nil {
		return nil, 0, err
	}
	if t.Kind == asn1schema.KindChoice {
		return s.decodeChoice(t, offset, limit, depth, path)
	}
	expected := t.WireTag()
	if tag != nil {
		expected = *tag
	}
	el, err := s.r.ReadElement(offset, limit, depth)
	if err != nil {
		return nil, 0, located(err, path)
	}
	if !el.Tag.Matches(expected) {
		return nil, 0, asn1core.NewDecodeError(asn1core.ErrTagMismatch, offset, path).WithTags(&expected, &el.Tag)
	}
	if t.IsConstructed() && !el.Tag.Constructed {
		return nil, 0, asn1core.NewDecodeError(asn1core.ErrTagMismatch, offset, path).WithTags(&expected, &el.Tag).Withf("primitive encoding of a constructed type")
	}

	var v pdu.Value
	switch t.Kind {
	case asn1schema.KindPrimitive:
		v, err = s.decodePrimitive(t, el, depth, path)
	case asn1schema.KindSequence:
		v, err = s.decodeSequence(t, el, depth, path)
	case asn1schema.KindSet:
		v, err = s.decodeSet(t, el, depth, path)
	case asn1schema.KindSequenceOf, asn1schema.KindSetOf:
		v, err = s.decodeList(t, el, depth, path)
	default:
		err = asn1core.NewDecodeError(asn1core.ErrInvalidValue, offset, path).Withf("unsupported kind %s", t.Kind)
	}
	if err != nil {
		return nil, 0, err
	}
	return v, el.End, nil
}

func (s *decodeState) decodeChoice(t *asn1schema.TypeSchema, offset, limit, depth int, path string) (pdu.Value, int, error) {
	found, err := s.r.PeekTag(offset, limit)
	if err != nil {
		return nil, 0, located(err, path)
	}
	for _, alt := range t.Fields {
		ok, err := matches(alt, found)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			continue
		}
		v, end, err := s.decodeField(alt, offset, limit, depth, join(path, alt.Name))
		if err != nil {
			return nil, 0, err
		}
		return pdu.Choice{Name: alt.Name, Value: v}, end, nil
	}
	return nil, 0, asn1core.NewDecodeError(asn1core.ErrUnknownAlternative, offset, path).WithTags(nil, &found)
}

// defaultValue returns the declared default of f in canonical form.
func defaultValue(f *asn1schema.FieldSchema, offset int, path string) (pdu.Value, error) {
	t, err := f.Type.Resolve()
	if err != nil {
		return nil, err
	}
	v, err := asn1schema.Normalize(t, f.Default, path)
	if err != nil {
		return nil, asn1core.NewDecodeError(asn1core.ErrInvalidValue, offset, path).WithCause(err)
	}
	return v, nil
}

func (s *decodeState) absent(rec *pdu.Record, f *asn1schema.FieldSchema, offset int, path string, found *asn1core.TagDescriptor) error {
	if !f.IsOptional() {
		return asn1core.NewDecodeError(asn1core.ErrMissingRequiredField, offset, path).WithField(f.Name).WithTags(firstTag(f), found)
	}
	if f.Default != nil {
		v, err := defaultValue(f, offset, join(path, f.Name))
		if err != nil {
			return err
		}
		rec.Set(f.Name, v)
	}
	return nil
}

func (s *decodeState) decodeSequence(t *asn1schema.TypeSchema, el asn1binary.Element, depth int, path string) (pdu.Value, error) {
	rec := pdu.NewRecord()
	pos, end := el.ContentOffset, el.ContentEnd
	for _, f := range t.Fields {
		if pos >= end {
			if err := s.absent(rec, f, pos, path, nil); err != nil {
				return nil, err
			}
			continue
		}
		found, err := s.r.PeekTag(pos, end)
		if err != nil {
			return nil, located(err, path)
		}
		ok, err := matches(f, found)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := s.absent(rec, f, pos, path, &found); err != nil {
				return nil, err
			}
			continue
		}
		v, next, err := s.decodeField(f, pos, end, depth+1, join(path, f.Name))
		if err != nil {
			return nil, err
		}
		rec.Set(f.Name, v)
		pos = next
	}
	if err := s.skipRest(pos, end, depth, path); err != nil {
		return nil, err
	}
	return rec, nil
}

// skipRest steps over members the schema does not know, which later
// versions of a protocol may add. Strict decoding rejects them.
func (s *decodeState) skipRest(pos, end, depth int, path string) error {
	for pos < end {
		extra, err := s.r.ReadElement(pos, end, depth+1)
		if err != nil {
			return located(err, path)
		}
		if s.opts.Strict {
			return asn1core.NewDecodeError(asn1core.ErrUnexpectedElement, pos, path).WithTags(nil, &extra.Tag)
		}
		pos = extra.End
	}
	return nil
}

func (s *decodeState) decodeSet(t *asn1schema.TypeSchema, el asn1binary.Element, depth int, path string) (pdu.Value, error) {
	children, err := s.r.Children(el, depth)
	if err != nil {
		return nil, located(err, path)
	}
	values := make(map[string]pdu.Value, len(t.Fields))
	for _, child := range children {
		var field *asn1schema.FieldSchema
		for _, f := range t.Fields {
			ok, err := matches(f, child.Tag)
			if err != nil {
				return nil, err
			}
			if ok {
				field = f
				break
			}
		}
		if field == nil {
			if s.opts.Strict {
				return nil, asn1core.NewDecodeError(asn1core.ErrUnexpectedElement, child.Offset, path).WithTags(nil, &child.Tag)
			}
			continue
		}
		if _, seen := values[field.Name]; seen {
			return nil, asn1core.NewDecodeError(asn1core.ErrUnexpectedElement, child.Offset, path).WithField(field.Name).Withf("member appears twice")
		}
		v, _, err := s.decodeField(field, child.Offset, child.End, depth+1, join(path, field.Name))
		if err != nil {
			return nil, err
		}
		values[field.Name] = v
	}

	rec := pdu.NewRecord()
	for _, f := range t.Fields {
		if v, ok := values[f.Name]; ok {
			rec.Set(f.Name, v)
			continue
		}
		if err := s.absent(rec, f, el.ContentEnd, path, nil); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (s *decodeState) decodeList(t *asn1schema.TypeSchema, el asn1binary.Element, depth int, path string) (pdu.Value, error) {
	list := pdu.List{}
	for pos := el.ContentOffset; pos < el.ContentEnd; {
		v, next, err := s.decodeType(t.Element, nil, pos, el.ContentEnd, depth+1, indexPath(path, len(list)))
		if err != nil {
			return nil, err
		}
		list = append(list, v)
		pos = next
	}
	return list, nil
}

// segmentable kinds may arrive as constructed encodings in BER.
func segmentTag(k asn1schema.PrimitiveKind) (asn1core.Tag, bool) {
	switch k {
	case asn1schema.OctetString, asn1schema.VisibleString, asn1schema.UTF8String:
		return asn1core.TagOctetString, true
	case asn1schema.BitString:
		return asn1core.TagBitString, true
	}
	return 0, false
}

// segments collects the primitive pieces of a constructed string.
func (s *decodeState) segments(el asn1binary.Element, tag asn1core.Tag, depth int, path string, out [][]byte) ([][]byte, error) {
	children, err := s.r.Children(el, depth)
	if err != nil {
		return nil, located(err, path)
	}
	expected := asn1core.Universal(tag, false)
	for _, child := range children {
		if !child.Tag.Matches(expected) {
			return nil, asn1core.NewDecodeError(asn1core.ErrTagMismatch, child.Offset, path).WithTags(&expected, &child.Tag)
		}
		if child.Tag.Constructed {
			out, err = s.segments(child, tag, depth+1, path, out)
			if err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, child.Content(s.r.Data))
	}
	return out, nil
}

func (s *decodeState) content(t *asn1schema.TypeSchema, el asn1binary.Element, depth int, path string) ([]byte, error) {
	if !el.Tag.Constructed {
		return el.Content(s.r.Data), nil
	}
	tag, ok := segmentTag(t.Primitive)
	if !ok || s.opts.Strict {
		return nil, asn1core.NewDecodeError(asn1core.ErrInvalidValue, el.Offset, path).WithTags(nil, &el.Tag).Withf("constructed encoding of %s", t.Primitive)
	}
	pieces, err := s.segments(el, tag, depth, path, nil)
	if err != nil {
		return nil, err
	}
	if t.Primitive != asn1schema.BitString {
		var joined []byte
		for _, p := range pieces {
			joined = append(joined, p...)
		}
		return joined, nil
	}

	// each bit string segment leads with its own unused bit count
	joined := []byte{0}
	for i, p := range pieces {
		if len(p) == 0 {
			return nil, asn1core.NewDecodeError(asn1core.ErrInvalidValue, el.Offset, path).Withf("empty bit string segment")
		}
		if p[0] != 0 && i != len(pieces)-1 {
			return nil, asn1core.NewDecodeError(asn1core.ErrInvalidValue, el.Offset, path).Withf("unused bits in a middle segment")
		}
		joined[0] = p[0]
		joined = append(joined, p[1:]...)
	}
	return joined, nil
}

func (s *decodeState) decodePrimitive(t *asn1schema.TypeSchema, el asn1binary.Element, depth int, path string) (pdu.Value, error) {
	b, err := s.content(t, el, depth, path)
	if err != nil {
		return nil, err
	}
	v, err := s.parse(t, b)
	if err != nil {
		return nil, asn1core.NewDecodeError(asn1core.ErrInvalidValue, el.Offset, path).WithTags(nil, &el.Tag).WithCause(err)
	}
	return v, nil
}

func (s *decodeState) parse(t *asn1schema.TypeSchema, b []byte) (pdu.Value, error) {
	strict := s.opts.Strict
	switch t.Primitive {
	case asn1schema.Integer:
		v, err := asn1go.ParseInteger(b, strict)
		if err != nil {
			return nil, err
		}
		if !asn1go.SignedFits(v, t.Bits) {
			return nil, asn1core.NewErrorf("%d does not fit %d bits", v, t.Bits)
		}
		return v, nil
	case asn1schema.Unsigned:
		v, err := asn1go.ParseUnsigned(b, strict)
		if err != nil {
			return nil, err
		}
		if !asn1go.UnsignedFits(v, t.Bits) {
			return nil, asn1core.NewErrorf("%d does not fit %d bits", v, t.Bits)
		}
		return v, nil
	case asn1schema.Enumerated:
		v, err := asn1go.ParseInteger(b, strict)
		if err != nil {
			return nil, err
		}
		if _, known := t.EnumName(v); strict && len(t.EnumValues) > 0 && !known {
			return nil, asn1core.NewErrorf("%d is not a declared enumeration", v)
		}
		return v, nil
	case asn1schema.Boolean:
		return asn1go.ParseBoolean(b, strict)
	case asn1schema.OctetString:
		return append([]byte{}, b...), nil
	case asn1schema.BitString:
		return asn1go.ParseBitString(b, strict)
	case asn1schema.Real:
		return asn1go.ParseReal(b)
	case asn1schema.Null:
		if err := asn1go.ParseNull(b); err != nil {
			return nil, err
		}
		return pdu.Null{}, nil
	case asn1schema.VisibleString:
		if err := asn1go.ValidateVisibleString(b); err != nil {
			return nil, err
		}
		return string(b), nil
	case asn1schema.UTF8String:
		if err := asn1go.ValidateUTF8String(b); err != nil {
			return nil, err
		}
		return string(b), nil
	case asn1schema.ObjectIdentifier:
		return asn1go.ParseOID(b)
	case asn1schema.GeneralizedTime:
		return asn1go.ParseGeneralizedTime(b)
	}
	return nil, asn1core.NewUnimplementedError("primitive %s", t.Primitive)
}
