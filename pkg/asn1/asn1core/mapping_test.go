package asn1core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapping(t *testing.T) {
	var m Mapping[uint8]
	m.Add("Zero", 0)
	m.Add("Two", 2, "Deux", "Zwei")
	m.Add("One", 1)

	for _, name := range []string{"two", "DEUX", "Zwei"} {
		v, err := m.Value(name)
		require.NoError(t, err, name)
		require.Equal(t, uint8(2), v)
	}
	name, err := m.Name(2)
	require.NoError(t, err)
	require.Equal(t, "Two", name, "aliases never replace the canonical name")
	require.Equal(t, []string{"Zero", "One", "Two"}, m.Names())

	_, err = m.Name(9)
	require.Error(t, err)
	_, err = m.Value("three")
	require.EqualError(t, err, `unknown name "three", should be one of Zero,One,Two`)

	require.Panics(t, func() { m.Add("Again", 1) })
	require.Panics(t, func() { m.Add("Three", 3, "zero") })
}

func TestParseClassAndTag(t *testing.T) {
	c, err := ParseClass("context")
	require.NoError(t, err)
	require.Equal(t, ClassContextSpecific, c)
	require.Equal(t, "ContextSpecific", c.String())

	tag, err := ParseTag("ObjectIdentifier")
	require.NoError(t, err)
	require.Equal(t, TagOID, tag)
}
