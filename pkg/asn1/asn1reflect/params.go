package asn1reflect

import (
	"strconv"
	"strings"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
)

// Parameters are the options of one struct field, read from its asn1 tag:
//
//	Code    *int64 `asn1:"tag=1,optional"`
//	Message string `asn1:"tag=2,visibleString"`
type Parameters struct {
	Name      string
	Tag       *uint
	Class     *asn1core.Class
	Explicit  bool
	Optional  bool
	Default   *string
	Kind      *asn1schema.Kind
	Primitive asn1schema.PrimitiveKind
	Bits      int
	Choice    bool
	Skip      bool
}

// TagDescriptor returns the field tag, if one was given. The class defaults
// to context specific.
func (p *Parameters) TagDescriptor() *asn1core.TagDescriptor {
	if p.Tag == nil {
		return nil
	}
	td := asn1core.Context(*p.Tag)
	if p.Class != nil {
		td.Class = *p.Class
	}
	return &td
}

func (p *Parameters) setKind(s string) error {
	if k, err := asn1schema.ParsePrimitiveKind(s); err == nil {
		p.Primitive = k
		return nil
	}
	k, err := asn1schema.ParseKind(s)
	if err != nil {
		return err
	}
	switch k {
	case asn1schema.KindSequence, asn1schema.KindSet, asn1schema.KindSequenceOf, asn1schema.KindSetOf:
		p.Kind = &k
		return nil
	}
	return asn1core.NewErrorf("kind %s cannot be selected by a struct tag", k)
}

func ParseParameters(s string) (*Parameters, error) {
	params := &Parameters{}
	if strings.TrimSpace(s) == "-" {
		params.Skip = true
		return params, nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, ok := strings.Cut(part, "="); ok {
			switch strings.ToLower(key) {
			case "name":
				params.Name = value
				continue
			case "tag":
				n, err := strconv.ParseUint(value, 10, 28)
				if err != nil {
					return nil, asn1core.NewErrorf("bad tag %q", value).WithCause(err)
				}
				tag := uint(n)
				params.Tag = &tag
				continue
			case "class":
				class, err := asn1core.ParseClass(value)
				if err != nil {
					return nil, err
				}
				params.Class = &class
				continue
			case "default":
				params.Default = &value
				continue
			case "kind":
				if err := params.setKind(value); err != nil {
					return nil, err
				}
				continue
			case "bits":
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, asn1core.NewErrorf("bad bits %q", value).WithCause(err)
				}
				params.Bits = n
				continue
			}
		} else {
			switch strings.ToLower(part) {
			case "explicit":
				params.Explicit = true
				continue
			case "optional":
				params.Optional = true
				continue
			case "choice":
				params.Choice = true
				continue
			}
			class, err := asn1core.ParseClass(part)
			if err == nil {
				params.Class = &class
				continue
			}
			if err := params.setKind(part); err == nil {
				continue
			}
		}
		return nil, asn1core.NewErrorf("unknown parameter %q", part)
	}
	if params.Class != nil && params.Tag == nil {
		return nil, asn1core.NewErrorf("class parameter requires a tag")
	}
	if params.Explicit && params.Tag == nil {
		return nil, asn1core.NewErrorf("explicit parameter requires a tag")
	}
	return params, nil
}
