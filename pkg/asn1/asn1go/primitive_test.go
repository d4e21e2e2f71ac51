package asn1go

import (
	"math"
	"testing"
	"time"

	"github.com/davidjspooner/mms-ber/pkg/asn1/pdu"
	"github.com/stretchr/testify/require"
)

func TestBoolean(t *testing.T) {
	require.Equal(t, []byte{0xFF}, AppendBoolean(nil, true))
	require.Equal(t, []byte{0x00}, AppendBoolean(nil, false))

	v, err := ParseBoolean([]byte{0x01}, false)
	require.NoError(t, err)
	require.True(t, v)

	_, err = ParseBoolean([]byte{0x01}, true)
	require.Error(t, err)

	_, err = ParseBoolean([]byte{0x00, 0x00}, false)
	require.Error(t, err)
}

func TestReal(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		bytes []byte
	}{
		{"zero", 0, []byte{}},
		{"one", 1, []byte{0x80, 0x00, 0x01}},
		{"minus one", -1, []byte{0xC0, 0x00, 0x01}},
		{"half", 0.5, []byte{0x80, 0xFF, 0x01}},
		{"ten", 10, []byte{0x80, 0x01, 0x05}},
		{"plus infinity", math.Inf(1), []byte{0x40}},
		{"minus infinity", math.Inf(-1), []byte{0x41}},
		{"minus zero", math.Copysign(0, -1), []byte{0x43}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := AppendReal(nil, test.value)
			require.Equal(t, test.bytes, append([]byte{}, got...))
			v, err := ParseReal(test.bytes)
			require.NoError(t, err)
			require.True(t, pdu.Equal(test.value, v), "got %v", v)
		})
	}

	t.Run("round trip", func(t *testing.T) {
		for _, f := range []float64{3.141592653589793, -2.5e-300, 1e300, math.SmallestNonzeroFloat64, math.MaxFloat64} {
			v, err := ParseReal(AppendReal(nil, f))
			require.NoError(t, err)
			require.Equal(t, f, v)
		}
	})

	t.Run("not a number", func(t *testing.T) {
		v, err := ParseReal(AppendReal(nil, math.NaN()))
		require.NoError(t, err)
		require.True(t, math.IsNaN(v))
	})

	t.Run("decimal", func(t *testing.T) {
		v, err := ParseReal(append([]byte{0x03}, "12.5E0"...))
		require.NoError(t, err)
		require.Equal(t, 12.5, v)
		v, err = ParseReal(append([]byte{0x02}, " 1,25"...))
		require.NoError(t, err)
		require.Equal(t, 1.25, v)
	})

	t.Run("base 16 with scale", func(t *testing.T) {
		// 0xA0: binary, base 16, F=0, 1 exponent octet; 3 * 16^1 = 48
		v, err := ParseReal([]byte{0xA0, 0x01, 0x03})
		require.NoError(t, err)
		require.Equal(t, 48.0, v)
		// 0x84: base 2, F=1; 3 * 2^1 * 2^2 = 24
		v, err = ParseReal([]byte{0x84, 0x02, 0x03})
		require.NoError(t, err)
		require.Equal(t, 24.0, v)
	})
}

func TestOID(t *testing.T) {
	tests := []struct {
		oid   string
		bytes []byte
	}{
		{"1.2.840.113549", []byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D}},
		{"1.0.9506.2.1", []byte{0x28, 0xCA, 0x22, 0x02, 0x01}},
		{"2.999.3", []byte{0x88, 0x37, 0x03}},
	}
	for _, test := range tests {
		t.Run(test.oid, func(t *testing.T) {
			oid, err := pdu.ParseOID(test.oid)
			require.NoError(t, err)
			got, err := AppendOID(nil, oid)
			require.NoError(t, err)
			require.Equal(t, test.bytes, got)
			back, err := ParseOID(test.bytes)
			require.NoError(t, err)
			require.Equal(t, test.oid, back.String())
		})
	}

	_, err := AppendOID(nil, pdu.OID{1})
	require.Error(t, err)
	_, err = AppendOID(nil, pdu.OID{1, 40})
	require.Error(t, err)
	_, err = ParseOID([]byte{0x2A, 0x86})
	require.Error(t, err)
}

func TestBitString(t *testing.T) {
	bs := pdu.BitString{Bytes: []byte{0xB5, 0xFF}, BitLength: 12}
	got, err := AppendBitString(nil, bs)
	require.NoError(t, err)
	require.Equal(t, []byte{0x04, 0xB5, 0xF0}, got)

	back, err := ParseBitString(got, true)
	require.NoError(t, err)
	require.True(t, back.Equal(pdu.BitString{Bytes: []byte{0xB5, 0xF0}, BitLength: 12}))
	require.Equal(t, 1, back.At(0))
	require.Equal(t, 0, back.At(1))

	_, err = ParseBitString([]byte{0x04, 0xB5, 0xF1}, true)
	require.Error(t, err)
	_, err = ParseBitString([]byte{0x08, 0x00}, false)
	require.Error(t, err)

	empty, err := AppendBitString(nil, pdu.BitString{})
	require.NoError(t, err)
	require.Equal(t, []byte{0x00}, empty)
}

func TestGeneralizedTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 5, 250000000, time.UTC)
	got := AppendGeneralizedTime(nil, ts)
	require.Equal(t, "20240301123005.25Z", string(got))

	back, err := ParseGeneralizedTime(got)
	require.NoError(t, err)
	require.True(t, ts.Equal(back))

	back, err = ParseGeneralizedTime([]byte("20240301133005+0100"))
	require.NoError(t, err)
	require.True(t, time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC).Equal(back))

	_, err = ParseGeneralizedTime([]byte("yesterday"))
	require.Error(t, err)
}

func TestStrings(t *testing.T) {
	require.NoError(t, ValidateVisibleString([]byte("AnIn1 mag.f")))
	require.Error(t, ValidateVisibleString([]byte("tab\t")))
	require.NoError(t, ValidateUTF8String([]byte("grüße")))
	require.Error(t, ValidateUTF8String([]byte{0xFF}))
}
