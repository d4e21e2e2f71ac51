package asn1reflect

import (
	"reflect"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
)

type fieldInfo struct {
	index    int
	name     string
	params   *Parameters
	optional bool
}

// fieldsHelper is what a struct type's tags say about its layout. A blank
// "_" field carries the options of the struct itself.
type fieldsHelper struct {
	choice bool
	kind   asn1schema.Kind
	tag    *asn1core.TagDescriptor
	fields []fieldInfo
}

var lock sync.RWMutex
var fieldHelperCache = make(map[reflect.Type]*fieldsHelper)

func memberName(goName string) string {
	r, n := utf8.DecodeRuneInString(goName)
	return string(unicode.ToLower(r)) + goName[n:]
}

func fieldHelperFor(rType reflect.Type) (*fieldsHelper, error) {
	lock.RLock()
	helper, ok := fieldHelperCache[rType]
	lock.RUnlock()
	if ok {
		return helper, nil
	}
	helper = &fieldsHelper{kind: asn1schema.KindSequence}

	nFields := rType.NumField()
	for i := 0; i < nFields; i++ {
		field := rType.Field(i)
		params, err := ParseParameters(field.Tag.Get("asn1"))
		if err != nil {
			return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, rType.String(), "bad asn1 tag: %w", err).InField(field.Name)
		}
		if field.Name == "_" {
			helper.choice = params.Choice
			helper.tag = params.TagDescriptor()
			if params.Kind != nil {
				helper.kind = *params.Kind
			}
			continue
		}
		if !field.IsExported() || params.Skip {
			continue
		}
		info := fieldInfo{index: i, name: params.Name, params: params}
		if info.name == "" {
			info.name = memberName(field.Name)
		}
		if helper.choice {
			if field.Type.Kind() != reflect.Pointer {
				return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, rType.String(), "choice alternatives must be pointers").InField(info.name)
			}
		} else {
			info.optional = params.Optional || params.Default != nil || field.Type.Kind() == reflect.Pointer
		}
		helper.fields = append(helper.fields, info)
	}
	if len(helper.fields) == 0 {
		return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, rType.String(), "no fields")
	}

	lock.Lock()
	defer lock.Unlock()
	fieldHelperCache[rType] = helper
	return helper, nil
}

func (m *Mapper) structSchema(rType reflect.Type, name string) (*asn1schema.TypeSchema, error) {
	helper, err := fieldHelperFor(rType)
	if err != nil {
		return nil, err
	}
	var fields []*asn1schema.FieldSchema
	for _, info := range helper.fields {
		t, err := m.typeSchema(rType.Field(info.index).Type, info.params)
		if err != nil {
			if se, ok := err.(*asn1core.SchemaError); ok && se.Field == "" {
				se.TypeName = name
				se.InField(info.name)
			}
			return nil, err
		}
		var opts []asn1schema.FieldOption
		if td := info.params.TagDescriptor(); td != nil {
			opts = append(opts, asn1schema.Tagged(*td))
		}
		if info.params.Explicit {
			opts = append(opts, asn1schema.Explicit())
		}
		if info.optional {
			opts = append(opts, asn1schema.Optional())
		}
		if info.params.Default != nil {
			v, err := parseDefault(rType.Field(info.index).Type, *info.params.Default)
			if err != nil {
				return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, name, "bad default %q", *info.params.Default).InField(info.name)
			}
			opts = append(opts, asn1schema.WithDefault(v))
		}
		fields = append(fields, asn1schema.Field(info.name, t, opts...))
	}

	var t *asn1schema.TypeSchema
	switch {
	case helper.choice:
		t = asn1schema.Choice(fields...)
	case helper.kind == asn1schema.KindSet:
		t = asn1schema.Set(fields...)
	default:
		t = asn1schema.Sequence(fields...)
	}
	if helper.tag != nil {
		t = t.WithTag(*helper.tag)
	}
	return t, nil
}

// typeSchema maps a Go type to a schema node. Struct types become references
// to their registered definitions.
func (m *Mapper) typeSchema(rType reflect.Type, params *Parameters) (*asn1schema.TypeSchema, error) {
	for rType.Kind() == reflect.Pointer {
		rType = rType.Elem()
	}
	if t, ok := specialSchema(rType); ok {
		return t, nil
	}
	switch rType.Kind() {
	case reflect.Struct:
		name, err := m.define(rType)
		if err != nil {
			return nil, err
		}
		return asn1schema.Ref(name), nil
	case reflect.Slice:
		if rType.Elem().Kind() == reflect.Uint8 {
			return primitiveSchema(rType, params)
		}
		elem, err := m.typeSchema(rType.Elem(), &Parameters{Primitive: params.Primitive, Bits: params.Bits})
		if err != nil {
			return nil, err
		}
		if params.Kind != nil && *params.Kind == asn1schema.KindSetOf {
			return asn1schema.SetOf(elem), nil
		}
		return asn1schema.SequenceOf(elem), nil
	}
	return primitiveSchema(rType, params)
}

func (m *Mapper) structToValue(rv reflect.Value, path string) (pdu.Value, error) {
	helper, err := fieldHelperFor(rv.Type())
	if err != nil {
		return nil, err
	}
	if helper.choice {
		var chosen *pdu.Choice
		for _, info := range helper.fields {
			fv := rv.Field(info.index)
			if fv.IsNil() {
				continue
			}
			if chosen != nil {
				return nil, asn1core.NewEncodeError(asn1core.ErrInvalidValue, path, "both %s and %s are set", chosen.Name, info.name)
			}
			v, err := m.toValue(fv, path+"."+info.name)
			if err != nil {
				return nil, err
			}
			chosen = &pdu.Choice{Name: info.name, Value: v}
		}
		if chosen == nil {
			return nil, asn1core.NewEncodeError(asn1core.ErrInvalidValue, path, "no alternative is set")
		}
		return *chosen, nil
	}

	rec := pdu.NewRecord()
	for _, info := range helper.fields {
		fv := rv.Field(info.index)
		if info.optional && isEmpty(fv) {
			continue
		}
		v, err := m.toValue(fv, path+"."+info.name)
		if err != nil {
			return nil, err
		}
		rec.Set(info.name, v)
	}
	return rec, nil
}

func isEmpty(fv reflect.Value) bool {
	switch fv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Interface, reflect.Map:
		return fv.IsNil()
	}
	return false
}

func (m *Mapper) structFromValue(value pdu.Value, rv reflect.Value, path string) error {
	helper, err := fieldHelperFor(rv.Type())
	if err != nil {
		return err
	}
	if helper.choice {
		c, ok := value.(pdu.Choice)
		if !ok {
			return mismatch(path, "choice", value)
		}
		found := false
		for _, info := range helper.fields {
			fv := rv.Field(info.index)
			if info.name != c.Name {
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
			found = true
			if err := m.fromValue(c.Value, fv, path+"."+info.name); err != nil {
				return err
			}
		}
		if !found {
			return asn1core.NewErrorf("%s: no alternative named %q: %w", path, c.Name, asn1core.ErrUnknownAlternative).WithType(asn1core.StructuralError)
		}
		return nil
	}

	rec, ok := value.(*pdu.Record)
	if !ok {
		return mismatch(path, "record", value)
	}
	for _, info := range helper.fields {
		fv := rv.Field(info.index)
		v, present := rec.Get(info.name)
		if !present {
			fv.Set(reflect.Zero(fv.Type()))
			continue
		}
		if err := m.fromValue(v, fv, path+"."+info.name); err != nil {
			return err
		}
	}
	return nil
}
