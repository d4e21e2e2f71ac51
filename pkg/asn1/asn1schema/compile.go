package asn1schema

import (
	"errors"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1binary"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
)

type compiler struct {
	r       *Registry
	root    string
	pending []string
	seen    map[string]bool
}

// compile copies the definition of name into an immutable schema with every
// tag filled in. Every type reachable through references is validated too,
// so a malformed nested type fails its parent.
func (r *Registry) compile(name string) (*TypeSchema, error) {
	def, err := r.definition(name)
	if err != nil {
		return nil, err
	}
	c := &compiler{r: r, root: name, seen: map[string]bool{name: true}}
	out, err := c.copyType(def, "")
	if err != nil {
		return nil, err
	}
	out.Name = name

	for len(c.pending) > 0 {
		next := c.pending[0]
		c.pending = c.pending[1:]
		nested, err := r.definition(next)
		if err != nil {
			return nil, err
		}
		c.root = next
		if _, err := c.copyType(nested, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *compiler) errorf(kind error, path string, format string, args ...any) *asn1core.SchemaError {
	return asn1core.NewSchemaError(kind, c.root, format, args...).InField(path)
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func (c *compiler) copyType(t *TypeSchema, path string) (*TypeSchema, error) {
	if t == nil {
		return nil, c.errorf(asn1core.ErrInvalidSchema, path, "missing type")
	}
	out := &TypeSchema{Name: t.Name, Kind: t.Kind, Primitive: t.Primitive, Bits: t.Bits, Ref: t.Ref}
	if t.Tag != nil {
		if t.Kind == KindRef || t.Kind == KindChoice {
			return nil, c.errorf(asn1core.ErrInvalidSchema, path, "a %s cannot carry its own tag, tag the field instead", t.Kind)
		}
		if err := c.checkTag(t.Tag, path); err != nil {
			return nil, err
		}
	}

	switch t.Kind {
	case KindPrimitive:
		if err := c.checkPrimitive(t, path); err != nil {
			return nil, err
		}
		out.EnumValues = append([]NamedValue(nil), t.EnumValues...)

	case KindSequence, KindSet, KindChoice:
		if t.Kind == KindChoice && len(t.Fields) == 0 {
			return nil, c.errorf(asn1core.ErrInvalidSchema, path, "choice has no alternatives")
		}
		names := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if f == nil || f.Name == "" {
				return nil, c.errorf(asn1core.ErrInvalidSchema, path, "unnamed field")
			}
			if names[f.Name] {
				return nil, c.errorf(asn1core.ErrInvalidSchema, join(path, f.Name), "duplicate field name")
			}
			names[f.Name] = true
			cf, err := c.copyField(t.Kind, f, join(path, f.Name))
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, cf)
		}
		if err := c.checkTags(out, path); err != nil {
			return nil, err
		}

	case KindSequenceOf, KindSetOf:
		element, err := c.copyType(t.Element, join(path, "element"))
		if err != nil {
			return nil, err
		}
		out.Element = element

	case KindRef:
		if !c.r.Defined(t.Ref) {
			return nil, c.errorf(asn1core.ErrUndefinedType, path, "reference to %q", t.Ref)
		}
		out.registry = c.r
		if !c.seen[t.Ref] {
			c.seen[t.Ref] = true
			c.pending = append(c.pending, t.Ref)
		}
		return out, nil

	default:
		return nil, c.errorf(asn1core.ErrInvalidSchema, path, "unknown kind %s", t.Kind)
	}

	if t.Kind != KindChoice {
		tag := t.WireTag()
		out.Tag = &tag
	}
	return out, nil
}

func (c *compiler) checkPrimitive(t *TypeSchema, path string) error {
	if _, ok := primitiveTags[t.Primitive]; !ok {
		return c.errorf(asn1core.ErrInvalidSchema, path, "unknown primitive %s", t.Primitive)
	}
	switch t.Primitive {
	case Integer, Unsigned:
		switch t.Bits {
		case 0, 8, 16, 32, 64:
		default:
			return c.errorf(asn1core.ErrInvalidSchema, path, "unsupported integer width %d", t.Bits)
		}
	default:
		if t.Bits != 0 {
			return c.errorf(asn1core.ErrInvalidSchema, path, "%s has no width", t.Primitive)
		}
	}
	if len(t.EnumValues) > 0 && t.Primitive != Enumerated {
		return c.errorf(asn1core.ErrInvalidSchema, path, "%s cannot have named values", t.Primitive)
	}
	names := make(map[string]bool)
	values := make(map[int64]bool)
	for _, nv := range t.EnumValues {
		if names[nv.Name] || values[nv.Value] {
			return c.errorf(asn1core.ErrInvalidSchema, path, "duplicate enumeration %s(%d)", nv.Name, nv.Value)
		}
		names[nv.Name] = true
		values[nv.Value] = true
	}
	return nil
}

func (c *compiler) copyField(parent Kind, f *FieldSchema, path string) (*FieldSchema, error) {
	if parent == KindChoice && f.IsOptional() {
		return nil, c.errorf(asn1core.ErrInvalidSchema, path, "choice alternatives cannot be optional")
	}
	ft, err := c.copyType(f.Type, path)
	if err != nil {
		return nil, err
	}
	out := &FieldSchema{
		Name:     f.Name,
		Explicit: f.Explicit,
		Optional: f.Optional,
		Default:  f.Default,
		Type:     ft,
	}
	if f.Default != nil {
		target, err := c.target(f.Type, path)
		if err != nil {
			return nil, err
		}
		def, err := Normalize(target, f.Default, path)
		if err != nil {
			return nil, c.errorf(asn1core.ErrInvalidSchema, path, "bad default: %v", err)
		}
		out.Default = def
	}
	if f.Tag == nil {
		if f.Explicit {
			return nil, c.errorf(asn1core.ErrInvalidSchema, path, "explicit without a tag")
		}
		return out, nil
	}
	if err := c.checkTag(f.Tag, path); err != nil {
		return nil, err
	}
	target, err := c.target(f.Type, path)
	if err != nil {
		return nil, err
	}
	if target.Kind == KindChoice {
		out.Explicit = true
	}
	tag := f.Tag.WithConstructed(out.Explicit || target.IsConstructed())
	out.Tag = &tag
	return out, nil
}

// checkTag rejects tags the decoder could not read back.
func (c *compiler) checkTag(tag *asn1core.TagDescriptor, path string) error {
	if !tag.Class.Valid() {
		return c.errorf(asn1core.ErrInvalidSchema, path, "invalid tag class %s", tag.Class)
	}
	if tag.Number > asn1binary.MaxTagNumber {
		return c.errorf(asn1core.ErrInvalidSchema, path, "tag number %d exceeds %d", tag.Number, asn1binary.MaxTagNumber)
	}
	return nil
}

// lookup returns the definition of name. A definition whose source failed
// reports that failure instead of an undefined type.
func (c *compiler) lookup(name, path string) (*TypeSchema, error) {
	def, err := c.r.definition(name)
	if err == nil {
		return def, nil
	}
	if errors.Is(err, asn1core.ErrUndefinedType) {
		return nil, c.errorf(asn1core.ErrUndefinedType, path, "reference to %q", name)
	}
	return nil, err
}

// target follows references through the definitions.
func (c *compiler) target(t *TypeSchema, path string) (*TypeSchema, error) {
	for hops := 0; t.Kind == KindRef; hops++ {
		if hops > maxRefHops {
			return nil, c.errorf(asn1core.ErrInvalidSchema, path, "reference chain is too long")
		}
		next, err := c.lookup(t.Ref, path)
		if err != nil {
			return nil, err
		}
		t = next
	}
	return t, nil
}

// fieldTags returns the tags a field may start with on the wire.
func (c *compiler) fieldTags(f *FieldSchema, path string, stack map[string]bool) ([]asn1core.TagDescriptor, error) {
	if f.Tag != nil {
		return []asn1core.TagDescriptor{*f.Tag}, nil
	}
	return c.firstTags(f.Type, path, stack)
}

func (c *compiler) firstTags(t *TypeSchema, path string, stack map[string]bool) ([]asn1core.TagDescriptor, error) {
	switch t.Kind {
	case KindRef:
		if stack[t.Ref] {
			return nil, c.errorf(asn1core.ErrInvalidSchema, path, "untagged recursion through %q", t.Ref)
		}
		def, err := c.lookup(t.Ref, path)
		if err != nil {
			return nil, err
		}
		stack[t.Ref] = true
		defer delete(stack, t.Ref)
		return c.firstTags(def, path, stack)
	case KindChoice:
		var tags []asn1core.TagDescriptor
		for _, alt := range t.Fields {
			altTags, err := c.fieldTags(alt, join(path, alt.Name), stack)
			if err != nil {
				return nil, err
			}
			tags = append(tags, altTags...)
		}
		return tags, nil
	}
	return []asn1core.TagDescriptor{t.WireTag()}, nil
}

func overlap(a, b []asn1core.TagDescriptor) (asn1core.TagDescriptor, bool) {
	for _, x := range a {
		for _, y := range b {
			if x.Matches(y) {
				return x, true
			}
		}
	}
	return asn1core.TagDescriptor{}, false
}

// checkTags enforces that the decoder can pick every field by its tag.
func (c *compiler) checkTags(t *TypeSchema, path string) error {
	tags := make([][]asn1core.TagDescriptor, len(t.Fields))
	for i, f := range t.Fields {
		ft, err := c.fieldTags(f, join(path, f.Name), map[string]bool{})
		if err != nil {
			return err
		}
		tags[i] = ft
	}

	switch t.Kind {
	case KindChoice, KindSet:
		kind := asn1core.ErrDuplicateAlternativeTag
		if t.Kind == KindSet {
			kind = asn1core.ErrDuplicateSetTag
		}
		for i := range t.Fields {
			for j := 0; j < i; j++ {
				if tag, ok := overlap(tags[i], tags[j]); ok {
					return c.errorf(kind, join(path, t.Fields[i].Name), "tag %s is also used by %q", tag, t.Fields[j].Name)
				}
			}
		}
		// inner duplicates of an untagged nested choice
		for i, f := range t.Fields {
			for a := range tags[i] {
				for b := 0; b < a; b++ {
					if tags[i][a].Matches(tags[i][b]) {
						return c.errorf(kind, join(path, f.Name), "tag %s appears twice", tags[i][a])
					}
				}
			}
		}

	case KindSequence:
		for i, f := range t.Fields {
			if !f.IsOptional() {
				continue
			}
			for j := i + 1; j < len(t.Fields); j++ {
				if tag, ok := overlap(tags[i], tags[j]); ok {
					return c.errorf(asn1core.ErrAmbiguousOptional, join(path, f.Name), "tag %s is also used by %q", tag, t.Fields[j].Name)
				}
				if !t.Fields[j].IsOptional() {
					break
				}
			}
		}
	}
	return nil
}
