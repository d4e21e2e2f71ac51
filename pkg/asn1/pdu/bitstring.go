package pdu

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// BitString is a BIT STRING value. Bits are stored most significant first;
// trailing bits of the last byte beyond BitLength are zero.
type BitString struct {
	Bytes     []byte
	BitLength int
}

// At returns the bit at position i, or 0 when i is out of range.
func (b BitString) At(i int) int {
	if i < 0 || i >= b.BitLength {
		return 0
	}
	return int(b.Bytes[i/8]>>(7-uint(i%8))) & 1
}

func (b BitString) Equal(other BitString) bool {
	if b.BitLength != other.BitLength {
		return false
	}
	n := (b.BitLength + 7) / 8
	if len(b.Bytes) < n || len(other.Bytes) < n {
		return false
	}
	return bytes.Equal(b.Bytes[:n], other.Bytes[:n])
}

func (b BitString) String() string {
	return fmt.Sprintf("%s (%d bits)", hex.EncodeToString(b.Bytes), b.BitLength)
}
