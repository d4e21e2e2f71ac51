package asn1schema

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/davidjspooner/mms-ber/internal/framework"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"gopkg.in/yaml.v3"
)

type schemaFile struct {
	Types map[string]framework.Config `yaml:"types"`
}

// LoadYAML reads type definitions from r and defines them in reg. Every type
// is parsed and checked against the names already in reg before any is
// defined, so a bad file defines nothing. A concurrent Define of the same
// name can still leave the file partly loaded.
//
//	types:
//	  Unsigned32: {kind: unsigned, bits: 32}
//	  Cancel-ErrorPDU:
//	    kind: sequence
//	    fields:
//	      - {name: originalInvokeID, tag: 0, type: Unsigned32}
//	      - {name: serviceError, tag: 1, type: ServiceError}
func LoadYAML(reg *Registry, r io.Reader) ([]string, error) {
	var file schemaFile
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&file); err != nil {
		return nil, fmt.Errorf("could not parse schema file: %w", err)
	}

	names := make([]string, 0, len(file.Types))
	for name := range file.Types {
		names = append(names, name)
	}
	slices.Sort(names)

	parsed := make([]*TypeSchema, len(names))
	for i, name := range names {
		if err := framework.IsIdentifier(name); err != nil {
			return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, name, "invalid type name: %s", err)
		}
		t, err := parseType(file.Types[name])
		if err != nil {
			return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, name, "%s", err)
		}
		parsed[i] = t
	}
	for _, name := range names {
		if reg.Defined(name) {
			return nil, asn1core.NewSchemaError(asn1core.ErrInvalidSchema, name, "already defined")
		}
	}
	for i, name := range names {
		if err := reg.Define(name, parsed[i]); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// LoadYAMLFile is LoadYAML for a named file.
func LoadYAMLFile(reg *Registry, filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	names, err := LoadYAML(reg, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return names, nil
}

// typeFromValue accepts either a type name or an inline definition.
func typeFromValue(v any) (*TypeSchema, error) {
	switch tv := v.(type) {
	case string:
		if k, err := ParsePrimitiveKind(tv); err == nil {
			return PrimitiveType(k), nil
		}
		return Ref(tv), nil
	default:
		cfg, ok := framework.AsConfig(v)
		if !ok {
			return nil, fmt.Errorf("type must be a name or a mapping, not %T", v)
		}
		return parseType(cfg)
	}
}

func parseTag(cfg config) (*asn1core.TagDescriptor, error) {
	number, err := framework.ConsumeOptionalArg(cfg, "tag", -1)
	if err != nil {
		return nil, err
	}
	className, err := framework.ConsumeOptionalArg(cfg, "class", "")
	if err != nil {
		return nil, err
	}
	if number < 0 {
		if className != "" {
			return nil, fmt.Errorf("class %q given without a tag", className)
		}
		return nil, nil
	}
	td := asn1core.Context(uint(number))
	if className != "" {
		td.Class, err = asn1core.ParseClass(className)
		if err != nil {
			return nil, err
		}
	}
	return &td, nil
}

// config is the loosely typed YAML block a type is read from.
type config = framework.Config

func parseType(cfg config) (*TypeSchema, error) {
	kindName, err := framework.ConsumeArg[string](cfg, "kind")
	if err != nil {
		return nil, err
	}
	tag, err := parseTag(cfg)
	if err != nil {
		return nil, err
	}

	if pk, err := ParsePrimitiveKind(kindName); err == nil {
		if err := framework.CheckFields(cfg, "bits", "values"); err != nil {
			return nil, err
		}
		t := PrimitiveType(pk)
		t.Tag = tag
		t.Bits, err = framework.ConsumeOptionalArg(cfg, "bits", 0)
		if err != nil {
			return nil, err
		}
		values, err := framework.ConsumeOptionalArg(cfg, "values", map[string]any{})
		if err != nil {
			return nil, err
		}
		for name, v := range values {
			n, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("enumeration %q must be an integer", name)
			}
			t.EnumValues = append(t.EnumValues, NamedValue{Name: name, Value: int64(n)})
		}
		slices.SortFunc(t.EnumValues, func(a, b NamedValue) int {
			return cmp.Compare(a.Value, b.Value)
		})
		return t, nil
	}

	kind, err := ParseKind(kindName)
	if err != nil {
		return nil, fmt.Errorf("unknown kind %q", kindName)
	}
	t := &TypeSchema{Kind: kind, Tag: tag}
	switch kind {
	case KindSequence, KindSet, KindChoice:
		if err := framework.CheckFields(cfg, "fields"); err != nil {
			return nil, err
		}
		fields, err := framework.ConsumeArg[[]any](cfg, "fields")
		if err != nil {
			return nil, err
		}
		for i, fv := range fields {
			fcfg, ok := framework.AsConfig(fv)
			if !ok {
				return nil, fmt.Errorf("field %d is not a mapping", i)
			}
			f, err := parseField(fcfg)
			if err != nil {
				return nil, fmt.Errorf("field %d: %w", i, err)
			}
			t.Fields = append(t.Fields, f)
		}
	case KindSequenceOf, KindSetOf:
		if err := framework.CheckFields(cfg, "element"); err != nil {
			return nil, err
		}
		ev, ok := framework.ConsumeRaw(cfg, "element")
		if !ok {
			return nil, fmt.Errorf("missing required field %q", "element")
		}
		t.Element, err = typeFromValue(ev)
		if err != nil {
			return nil, err
		}
	case KindRef:
		if err := framework.CheckFields(cfg, "type"); err != nil {
			return nil, err
		}
		t.Ref, err = framework.ConsumeArg[string](cfg, "type")
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("kind %q cannot be declared", kindName)
	}
	return t, nil
}

func parseField(cfg config) (*FieldSchema, error) {
	f := &FieldSchema{}
	var err error
	f.Name, err = framework.ConsumeArg[string](cfg, "name")
	if err != nil {
		return nil, err
	}
	if err := framework.IsIdentifier(f.Name); err != nil {
		return nil, fmt.Errorf("invalid field name %q: %s", f.Name, err)
	}
	f.Tag, err = parseTag(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	f.Explicit, err = framework.ConsumeOptionalArg(cfg, "explicit", false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	f.Optional, err = framework.ConsumeOptionalArg(cfg, "optional", false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	f.Default, _ = framework.ConsumeRaw(cfg, "default")

	tv, ok := framework.ConsumeRaw(cfg, "type")
	if !ok {
		return nil, fmt.Errorf("%s: missing required field %q", f.Name, "type")
	}
	f.Type, err = typeFromValue(tv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	if err := framework.CheckFields(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return f, nil
}
