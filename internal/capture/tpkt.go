package capture

import (
	"encoding/binary"
	"fmt"
)

const (
	tpktVersion = 0x03
	cotpData    = 0xF0
)

// ISOPort is the ISO transport over TCP port (RFC 1006) that MMS runs on.
const ISOPort = 102

// SplitTPKT returns the user data of every COTP data unit carried in the
// TPKT packets of a TCP payload. Connection management units are skipped.
//
// Each data unit is returned on its own: a TSDU split over several units
// without the end of TSDU flag is not joined, and a TPKT split across TCP
// segments is an error. On a full ISO stack the user data starts with the
// session SPDU and presentation PPDU headers, not the MMS PDU.
func SplitTPKT(data []byte) ([][]byte, error) {
	var out [][]byte
	for offset := 0; offset < len(data); {
		if len(data)-offset < 4 {
			return nil, fmt.Errorf("tpkt header truncated at offset %d", offset)
		}
		if data[offset] != tpktVersion {
			return nil, fmt.Errorf("tpkt version 0x%02X at offset %d", data[offset], offset)
		}
		length := int(binary.BigEndian.Uint16(data[offset+2:]))
		if length < 7 || offset+length > len(data) {
			return nil, fmt.Errorf("tpkt length %d at offset %d exceeds payload", length, offset)
		}
		packet := data[offset+4 : offset+length]
		offset += length

		li := int(packet[0])
		if li+1 > len(packet) {
			return nil, fmt.Errorf("cotp header length %d exceeds packet", li)
		}
		if packet[1]&0xF0 != cotpData {
			continue
		}
		if user := packet[li+1:]; len(user) > 0 {
			out = append(out, user)
		}
	}
	return out, nil
}
