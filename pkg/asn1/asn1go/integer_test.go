package asn1go

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

type IntegerTest struct {
	Bytes  []byte
	String string
}

func TestInteger(t *testing.T) {
	integerTests := []IntegerTest{
		{Bytes: []byte{0x00}, String: "0"},
		{Bytes: []byte{0x01}, String: "1"},
		{Bytes: []byte{0x7F}, String: "127"},
		{Bytes: []byte{0x00, 0x80}, String: "128"},
		{Bytes: []byte{0x80}, String: "-128"},
		{Bytes: []byte{0xFF, 0x7F}, String: "-129"},
		{Bytes: []byte{0xFF}, String: "-1"},
		{Bytes: []byte{0x07, 0xE4}, String: "2020"},
		{Bytes: []byte{0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, String: "9223372036854775807"},
		{Bytes: []byte{0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, String: "-9223372036854775808"},
	}
	for _, test := range integerTests {
		n, err := strconv.ParseInt(test.String, 10, 64)
		require.NoError(t, err)
		t.Run("decode to "+test.String, func(t *testing.T) {
			v, err := ParseInteger(test.Bytes, true)
			require.NoError(t, err)
			require.Equal(t, n, v)
		})
		t.Run("encode "+test.String, func(t *testing.T) {
			got := AppendInteger(nil, n)
			require.Equal(t, test.Bytes, got, "got 0x%X, want 0x%X", got, test.Bytes)
			require.Equal(t, len(test.Bytes), IntegerLen(n))
		})
	}
}

func TestIntegerNonMinimal(t *testing.T) {
	padded := []byte{0x00, 0x00, 0x05}
	_, err := ParseInteger(padded, true)
	require.Error(t, err)

	v, err := ParseInteger(padded, false)
	require.NoError(t, err)
	require.Equal(t, int64(5), v)

	v, err = ParseInteger([]byte{0xFF, 0xFF, 0x80}, false)
	require.NoError(t, err)
	require.Equal(t, int64(-128), v)

	_, err = ParseInteger(nil, false)
	require.Error(t, err)

	_, err = ParseInteger([]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0}, false)
	require.Error(t, err)
}

func TestUnsigned(t *testing.T) {
	tests := []struct {
		value uint64
		bytes []byte
	}{
		{0, []byte{0x00}},
		{255, []byte{0x00, 0xFF}},
		{4294967295, []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF}},
		{math.MaxUint64, []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, test := range tests {
		t.Run(strconv.FormatUint(test.value, 10), func(t *testing.T) {
			require.Equal(t, test.bytes, AppendUnsigned(nil, test.value))
			v, err := ParseUnsigned(test.bytes, true)
			require.NoError(t, err)
			require.Equal(t, test.value, v)
		})
	}

	_, err := ParseUnsigned([]byte{0xFF}, false)
	require.Error(t, err, "negative values are not unsigned")
}

func TestFits(t *testing.T) {
	require.True(t, SignedFits(int64(127), 8))
	require.False(t, SignedFits(int64(128), 8))
	require.True(t, SignedFits(int64(-128), 8))
	require.False(t, SignedFits(int64(-129), 8))
	require.True(t, SignedFits(int64(math.MinInt64), 64))

	require.True(t, UnsignedFits(uint64(4294967295), 32))
	require.False(t, UnsignedFits(uint64(4294967296), 32))
	require.True(t, UnsignedFits(uint64(math.MaxUint64), 0))
}
