package asn1schema

import (
	"strings"
	"testing"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/stretchr/testify/require"
)

const cancelErrorYAML = `
types:
  Unsigned32: {kind: unsigned, bits: 32}
  ErrorClass:
    kind: choice
    fields:
      - {name: vmd-state, tag: 0, type: integer}
      - {name: service, tag: 4, type: integer}
  ServiceError:
    kind: sequence
    fields:
      - {name: errorClass, tag: 0, type: ErrorClass}
      - {name: additionalCode, tag: 1, type: integer, optional: true}
      - {name: additionalDescription, tag: 2, type: visibleString, optional: true}
  Cancel-ErrorPDU:
    kind: sequence
    fields:
      - {name: originalInvokeID, tag: 0, type: Unsigned32}
      - {name: serviceError, tag: 1, type: ServiceError}
  Priority:
    kind: enumerated
    values: {low: 0, normal: 64, high: 127}
  Message:
    kind: sequence
    tag: 3
    class: application
    fields:
      - {name: priority, type: Priority, default: 64}
      - name: path
        type: {kind: sequenceOf, element: visibleString}
`

func TestLoadYAML(t *testing.T) {
	r := NewRegistry()
	names, err := LoadYAML(r, strings.NewReader(cancelErrorYAML))
	require.NoError(t, err)
	require.Equal(t, []string{"Cancel-ErrorPDU", "ErrorClass", "Message", "Priority", "ServiceError", "Unsigned32"}, names)

	pdu, err := r.SchemaFor("Cancel-ErrorPDU")
	require.NoError(t, err)
	require.Len(t, pdu.Fields, 2)
	require.Equal(t, asn1core.Context(0), *pdu.Fields[0].Tag)

	u32, err := pdu.Fields[0].Type.Resolve()
	require.NoError(t, err)
	require.Equal(t, Unsigned, u32.Primitive)
	require.Equal(t, 32, u32.Bits)

	msg, err := r.SchemaFor("Message")
	require.NoError(t, err)
	require.Equal(t, asn1core.TagDescriptor{Class: asn1core.ClassApplication, Number: 3, Constructed: true}, *msg.Tag)
	require.Equal(t, int64(64), msg.Field("priority").Default, "defaults are canonical once compiled")
	require.Equal(t, KindSequenceOf, msg.Field("path").Type.Kind)

	priority, err := r.SchemaFor("Priority")
	require.NoError(t, err)
	name, ok := priority.EnumName(127)
	require.True(t, ok)
	require.Equal(t, "high", name)
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown top level key", "schemas: {}\n"},
		{"unknown kind", "types:\n  A: {kind: banana}\n"},
		{"unknown field key", "types:\n  A:\n    kind: sequence\n    fields:\n      - {name: a, type: integer, colour: red}\n"},
		{"missing type", "types:\n  A:\n    kind: sequence\n    fields:\n      - {name: a}\n"},
		{"class without tag", "types:\n  A:\n    kind: sequence\n    fields:\n      - {name: a, type: integer, class: private}\n"},
		{"bad type name", "types:\n  1A: {kind: integer}\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := LoadYAML(r, strings.NewReader(test.yaml))
			require.Error(t, err)
			require.Empty(t, r.Names(), "nothing is defined from a bad file")
		})
	}
}

func TestLoadYAMLBadDefault(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{"string for an integer", "{name: priority, type: integer, default: abc}"},
		{"unknown enumeration", "{name: priority, type: {kind: enumerated, values: {low: 0}}, default: urgent}"},
		{"out of range", "{name: priority, type: {kind: unsigned, bits: 8}, default: 256}"},
		{"list for a boolean", "{name: priority, type: boolean, default: [1]}"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := NewRegistry()
			_, err := LoadYAML(r, strings.NewReader("types:\n  Msg:\n    kind: sequence\n    fields:\n      - "+test.field+"\n"))
			require.NoError(t, err)
			_, err = r.SchemaFor("Msg")
			require.ErrorIs(t, err, asn1core.ErrInvalidSchema)
		})
	}
}

func TestLoadYAMLClashDefinesNothing(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("Taken", BooleanType()))
	_, err := LoadYAML(r, strings.NewReader("types:\n  Alpha: {kind: integer}\n  Taken: {kind: integer}\n  Zulu: {kind: boolean}\n"))
	require.ErrorIs(t, err, asn1core.ErrInvalidSchema)
	require.Equal(t, []string{"Taken"}, r.Names())
	require.False(t, r.Defined("Alpha"))

	taken, err := r.SchemaFor("Taken")
	require.NoError(t, err)
	require.Equal(t, Boolean, taken.Primitive)
}
