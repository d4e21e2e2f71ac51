package asn1binary

import (
	"testing"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/stretchr/testify/require"
)

type headerTest struct {
	Name   string
	Header Header
	Bytes  []byte
}

func TestHeaderRoundTrip(t *testing.T) {
	tests := []headerTest{
		{"short length", Header{Tag: asn1core.Universal(asn1core.TagInteger, false), Length: 1}, []byte{0x02, 0x01}},
		{"longest short length", Header{Tag: asn1core.Universal(asn1core.TagOctetString, false), Length: 127}, []byte{0x04, 0x7F}},
		{"one octet long length", Header{Tag: asn1core.Universal(asn1core.TagOctetString, false), Length: 128}, []byte{0x04, 0x81, 0x80}},
		{"two octet long length", Header{Tag: asn1core.Universal(asn1core.TagSequence, true), Length: 0x1234}, []byte{0x30, 0x82, 0x12, 0x34}},
		{"context constructed", Header{Tag: asn1core.Context(1).WithConstructed(true), Length: 8}, []byte{0xA1, 0x08}},
		{"application", Header{Tag: asn1core.Application(3), Length: 0}, []byte{0x43, 0x00}},
		{"high tag", Header{Tag: asn1core.Context(40), Length: 2}, []byte{0x9F, 0x28, 0x02}},
		{"two octet high tag", Header{Tag: asn1core.Context(200), Length: 0}, []byte{0x9F, 0x81, 0x48, 0x00}},
		{"indefinite", Header{Tag: asn1core.Universal(asn1core.TagSequence, true), Length: LengthIndefinite}, []byte{0x30, 0x80}},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			got := AppendHeader(nil, test.Header)
			require.Equal(t, test.Bytes, got, "got 0x%X", got)
			require.Equal(t, len(test.Bytes), test.Header.Len())

			r := &Reader{Data: test.Bytes, Strict: true}
			if test.Header.Length == LengthIndefinite {
				r.Strict = false
			}
			h, next, err := r.ReadHeader(0)
			require.NoError(t, err)
			require.Equal(t, test.Header, h)
			require.Equal(t, len(test.Bytes), next)
		})
	}
}

func TestReadHeaderErrors(t *testing.T) {
	tests := []struct {
		Name   string
		Bytes  []byte
		Strict bool
		Kind   error
	}{
		{"empty", []byte{}, false, asn1core.ErrTruncatedInput},
		{"no length", []byte{0x02}, false, asn1core.ErrTruncatedInput},
		{"cut high tag", []byte{0x9F, 0x81}, false, asn1core.ErrTruncatedInput},
		{"cut long length", []byte{0x04, 0x82, 0x01}, false, asn1core.ErrTruncatedInput},
		{"reserved length", []byte{0x04, 0xFF}, false, asn1core.ErrInvalidLength},
		{"indefinite primitive", []byte{0x04, 0x80}, false, asn1core.ErrInvalidLength},
		{"strict indefinite", []byte{0x30, 0x80}, true, asn1core.ErrInvalidLength},
		{"strict long form for short length", []byte{0x04, 0x81, 0x05}, true, asn1core.ErrInvalidLength},
		{"strict leading zero length", []byte{0x04, 0x82, 0x00, 0x80}, true, asn1core.ErrInvalidLength},
		{"strict high form for low tag", []byte{0x9F, 0x05, 0x00}, true, asn1core.ErrInvalidValue},
		{"non minimal high tag", []byte{0x9F, 0x80, 0x28, 0x00}, false, asn1core.ErrInvalidValue},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			r := &Reader{Data: test.Bytes, Strict: test.Strict}
			_, _, err := r.ReadHeader(0)
			require.ErrorIs(t, err, test.Kind)
		})
	}
}

func TestReadElement(t *testing.T) {
	// SEQUENCE { INTEGER 5, [1] { BOOLEAN TRUE } } with the inner value
	// using the indefinite form
	data := []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0xA1, 0x80, 0x01, 0x01, 0xFF, 0x00, 0x00, 0x00, 0x00}
	r := NewReader(data)

	el, err := r.ReadElement(0, len(data), 0)
	require.NoError(t, err)
	require.True(t, el.Indefinite())
	require.Equal(t, 2, el.ContentOffset)
	require.Equal(t, 12, el.ContentEnd)
	require.Equal(t, len(data), el.End)

	children, err := r.Children(el, 0)
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, []byte{0x05}, children[0].Content(data))
	require.Equal(t, asn1core.Context(1).WithConstructed(true), children[1].Tag)
	require.Equal(t, 12, children[1].End)

	tag, err := r.PeekTag(5, el.ContentEnd)
	require.NoError(t, err)
	require.Equal(t, asn1core.Context(1).WithConstructed(true), tag)
}

func TestReadElementBounds(t *testing.T) {
	t.Run("every prefix is truncated", func(t *testing.T) {
		full := []byte{0x30, 0x80, 0x02, 0x01, 0x05, 0xA1, 0x80, 0x01, 0x01, 0xFF, 0x00, 0x00, 0x00, 0x00}
		for n := 0; n < len(full); n++ {
			r := NewReader(full[:n:n])
			_, err := r.ReadElement(0, n, 0)
			require.ErrorIs(t, err, asn1core.ErrTruncatedInput, "prefix %d", n)
		}
	})

	t.Run("past the container", func(t *testing.T) {
		data := []byte{0x30, 0x03, 0x04, 0x05, 0x41, 0x42, 0x43, 0x44, 0x45}
		r := NewReader(data)
		_, err := r.ReadElement(2, 5, 1)
		require.ErrorIs(t, err, asn1core.ErrInvalidLength)
	})

	t.Run("bad end of contents", func(t *testing.T) {
		r := NewReader([]byte{0x30, 0x80, 0x00, 0x01})
		_, err := r.ReadElement(0, 4, 0)
		require.ErrorIs(t, err, asn1core.ErrInvalidLength)
	})

	t.Run("nesting limit", func(t *testing.T) {
		var data []byte
		for i := 0; i < 10; i++ {
			data = append(data, 0x30, 0x80)
		}
		for i := 0; i < 10; i++ {
			data = AppendEndOfContents(data)
		}
		r := &Reader{Data: data, MaxDepth: 5}
		_, err := r.ReadElement(0, len(data), 0)
		require.ErrorIs(t, err, asn1core.ErrNestingTooDeep)

		r.MaxDepth = 10
		el, err := r.ReadElement(0, len(data), 0)
		require.NoError(t, err)
		require.Equal(t, len(data), el.End)
	})
}

func TestVisibleString(t *testing.T) {
	require.NoError(t, VisibleStringValidator.ValidateBytes([]byte("domain/LLN0$ST~")))
	require.Error(t, VisibleStringValidator.ValidateBytes([]byte("tab\t")))
	require.Error(t, VisibleStringValidator.ValidateBytes([]byte{0x7F}))
	require.NoError(t, PrintableStringValidator.ValidateBytes([]byte("Hello World")))
	require.Error(t, PrintableStringValidator.ValidateBytes([]byte("a@b")))
}
