// Package pdu holds the generic in-memory form of encoded values.
//
// A Value is one of
//
//	int64        INTEGER, ENUMERATED
//	uint64       unsigned INTEGER
//	bool         BOOLEAN
//	[]byte       OCTET STRING
//	BitString    BIT STRING
//	float64      REAL
//	Null         NULL
//	string       VisibleString, UTF8String
//	OID          OBJECT IDENTIFIER
//	time.Time    GeneralizedTime
//	*Record      SEQUENCE, SET
//	List         SEQUENCE OF, SET OF
//	Choice       CHOICE
//
// Values are plain trees. A decode call builds a fresh tree and an encode
// call only reads one.
package pdu
