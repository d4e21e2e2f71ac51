package mms

import (
	"errors"
	"testing"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1ber"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1reflect"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

var ignoreMarkers = cmpopts.IgnoreUnexported(PDU{}, ErrorClass{}, ServiceSpecificInformation{}, RejectReason{})

type pduTest struct {
	Name  string
	PDU   *PDU
	Bytes []byte
}

var pduTests = []pduTest{
	{
		Name: "cancel error",
		PDU: &PDU{CancelErrorPDU: &CancelErrorPDU{
			OriginalInvokeID: 5,
			ServiceError: ServiceError{
				ErrorClass:     ErrorClass{Service: ptr(ServicePDUSize)},
				AdditionalCode: ptr[int64](7),
			},
		}},
		Bytes: []byte{
			0xA7, 0x0D,
			0x80, 0x01, 0x05,
			0xA1, 0x08,
			0xA0, 0x03, 0x84, 0x01, 0x03,
			0x81, 0x01, 0x07,
		},
	},
	{
		Name: "initiate error with service specific information",
		PDU: &PDU{InitiateErrorPDU: &ServiceError{
			ErrorClass:                 ErrorClass{Access: ptr(AccessObjectAccessDenied)},
			AdditionalDescription:      ptr("busy"),
			ServiceSpecificInformation: &ServiceSpecificInformation{DeleteNamedType: ptr[uint32](9)},
		}},
		Bytes: []byte{
			0xAA, 0x10,
			0xA0, 0x03, 0x87, 0x01, 0x03,
			0x82, 0x04, 'b', 'u', 's', 'y',
			0xA3, 0x03, 0x87, 0x01, 0x09,
		},
	},
	{
		Name:  "cancel request",
		PDU:   &PDU{CancelRequestPDU: ptr[uint32](300)},
		Bytes: []byte{0x85, 0x02, 0x01, 0x2C},
	},
	{
		Name:  "conclude request",
		PDU:   &PDU{ConcludeRequestPDU: &pdu.Null{}},
		Bytes: []byte{0x8B, 0x00},
	},
	{
		Name: "conclude error",
		PDU: &PDU{ConcludeErrorPDU: &ServiceError{
			ErrorClass: ErrorClass{Conclude: ptr[int64](1)},
		}},
		Bytes: []byte{0xAD, 0x05, 0xA0, 0x03, 0x89, 0x01, 0x01},
	},
	{
		Name: "reject",
		PDU: &PDU{RejectPDU: &RejectPDU{
			OriginalInvokeID: ptr[uint32](3),
			RejectReason:     RejectReason{PDUError: ptr[int64](1)},
		}},
		Bytes: []byte{0xA4, 0x06, 0x80, 0x01, 0x03, 0x85, 0x01, 0x01},
	},
	{
		Name: "reject without invoke id",
		PDU: &PDU{RejectPDU: &RejectPDU{
			RejectReason: RejectReason{CancelErrorPDU: ptr[int64](0)},
		}},
		Bytes: []byte{0xA4, 0x03, 0x88, 0x01, 0x00},
	},
}

func newCodec() (*Codec, *asn1reflect.Mapper) {
	m := asn1reflect.NewMapper(asn1schema.NewRegistry(), asn1ber.NewEncoder(asn1ber.EncodeOptions{}), asn1ber.NewDecoder(asn1ber.DecodeOptions{}))
	return NewCodec(m), m
}

func TestPDUs(t *testing.T) {
	c, _ := newCodec()
	for _, test := range pduTests {
		t.Run(test.Name, func(t *testing.T) {
			got, err := c.Encode(test.PDU)
			require.NoError(t, err)
			require.Equal(t, test.Bytes, got, "got 0x%X", got)

			back, err := c.Decode(test.Bytes)
			require.NoError(t, err)
			require.Empty(t, cmp.Diff(test.PDU, back, ignoreMarkers))
			require.Equal(t, test.PDU.Name(), back.Name())
		})
	}
}

func TestAgainstSchemaFile(t *testing.T) {
	_, m := newCodec()
	dynamic := asn1schema.NewRegistry()
	_, err := asn1schema.LoadYAMLFile(dynamic, "../../schemas/mms.yaml")
	require.NoError(t, err)
	schema, err := dynamic.SchemaFor("MMSpdu")
	require.NoError(t, err)

	for _, test := range pduTests {
		t.Run(test.Name, func(t *testing.T) {
			v, err := m.ToValue(test.PDU)
			require.NoError(t, err)
			encoded, err := asn1ber.Encode(schema, v)
			require.NoError(t, err)
			require.Equal(t, test.Bytes, encoded)

			decoded, err := asn1ber.DecodeAll(schema, test.Bytes)
			require.NoError(t, err)
			require.True(t, pdu.Equal(v, decoded), pdu.Sprint(decoded))
		})
	}
}

func TestMissingServiceError(t *testing.T) {
	c, _ := newCodec()
	_, err := c.Decode([]byte{0xA7, 0x03, 0x80, 0x01, 0x05})
	require.ErrorIs(t, err, asn1core.ErrMissingRequiredField)
	var de *asn1core.DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "serviceError", de.Field)
}

func TestTruncated(t *testing.T) {
	c, _ := newCodec()
	for _, test := range pduTests {
		for n := 0; n < len(test.Bytes); n++ {
			_, err := c.Decode(test.Bytes[:n:n])
			require.ErrorIs(t, err, asn1core.ErrTruncatedInput, "%s prefix %d", test.Name, n)
		}
	}
}

func TestUnmodelledPDU(t *testing.T) {
	c, _ := newCodec()
	// confirmed-RequestPDU is not part of the modelled subset
	_, err := c.Decode([]byte{0xA0, 0x03, 0x02, 0x01, 0x01})
	require.ErrorIs(t, err, asn1core.ErrUnknownAlternative)
}

func TestRegister(t *testing.T) {
	_, m := newCodec()
	require.NoError(t, Register(m))
	require.Equal(t, []string{
		"Cancel-ErrorPDU",
		"ErrorClass",
		"MMSpdu",
		"RejectPDU",
		"RejectReason",
		"ServiceError",
		"ServiceSpecificInformation",
	}, m.Registry().Names())
}

func TestEncodeErrors(t *testing.T) {
	c, _ := newCodec()
	_, err := c.Encode(&PDU{})
	require.ErrorIs(t, err, asn1core.ErrInvalidValue)

	_, err = c.Encode(&PDU{CancelRequestPDU: ptr[uint32](1), ConcludeRequestPDU: &pdu.Null{}})
	require.ErrorIs(t, err, asn1core.ErrInvalidValue)

	_, err = c.Encode(&PDU{CancelErrorPDU: &CancelErrorPDU{OriginalInvokeID: 1}})
	require.ErrorIs(t, err, asn1core.ErrInvalidValue)
}

func TestDefaultCodec(t *testing.T) {
	encoded, err := Encode(&PDU{ConcludeResponsePDU: &pdu.Null{}})
	require.NoError(t, err)
	require.Equal(t, []byte{0x8C, 0x00}, encoded)
	back, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, "conclude-ResponsePDU", back.Name())
}
