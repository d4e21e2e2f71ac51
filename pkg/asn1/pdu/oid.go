package pdu

import (
	"fmt"
	"strconv"
	"strings"
)

type OID []uint64

func (o OID) Equal(other OID) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

func (o OID) String() string {
	sb := strings.Builder{}
	for i, v := range o {
		if i != 0 {
			sb.WriteString(".")
		}
		sb.WriteString(strconv.FormatUint(v, 10))
	}
	return sb.String()
}

func ParseOID(s string) (OID, error) {
	parts := strings.Split(s, ".")
	oid := make(OID, 0, len(parts))
	for i, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("OID element %d of %q is empty", i, s)
		}
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("OID element %d of %q is not a number", i, s)
		}
		oid = append(oid, n)
	}
	return oid, nil
}
