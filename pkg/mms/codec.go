package mms

import (
	"reflect"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1reflect"
)

// Codec encodes and decodes MMS PDUs with the schemas its mapper derives.
type Codec struct {
	mapper *asn1reflect.Mapper
}

func NewCodec(mapper *asn1reflect.Mapper) *Codec {
	return &Codec{mapper: mapper}
}

var defaultCodec = NewCodec(asn1reflect.Default)

// Register defines every MMS type in the mapper's registry, so the schemas
// can be looked up by their ASN.1 names.
func Register(mapper *asn1reflect.Mapper) error {
	_, err := mapper.SchemaOf(reflect.TypeOf((*PDU)(nil)).Elem())
	return err
}

func (c *Codec) Encode(p *PDU) ([]byte, error) {
	return c.mapper.Marshal(p)
}

// Decode decodes data, which must hold exactly one PDU.
func (c *Codec) Decode(data []byte) (*PDU, error) {
	p := &PDU{}
	if err := c.mapper.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func Encode(p *PDU) ([]byte, error) {
	return defaultCodec.Encode(p)
}

func Decode(data []byte) (*PDU, error) {
	return defaultCodec.Decode(data)
}

// Name returns the ASN.1 name of the alternative p holds.
func (p *PDU) Name() string {
	switch {
	case p.RejectPDU != nil:
		return "rejectPDU"
	case p.CancelRequestPDU != nil:
		return "cancel-RequestPDU"
	case p.CancelResponsePDU != nil:
		return "cancel-ResponsePDU"
	case p.CancelErrorPDU != nil:
		return "cancel-ErrorPDU"
	case p.InitiateErrorPDU != nil:
		return "initiate-ErrorPDU"
	case p.ConcludeRequestPDU != nil:
		return "conclude-RequestPDU"
	case p.ConcludeResponsePDU != nil:
		return "conclude-ResponsePDU"
	case p.ConcludeErrorPDU != nil:
		return "conclude-ErrorPDU"
	}
	return ""
}
