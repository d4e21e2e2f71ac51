package capture

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"
)

var (
	clientMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 1}
	serverMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 2}
	clientIP  = net.IP{10, 0, 0, 1}
	serverIP  = net.IP{10, 0, 0, 2}
)

func ipv4(proto layers.IPProtocol, flags layers.IPv4Flag) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: proto,
		Flags:    flags,
		SrcIP:    clientIP,
		DstIP:    serverIP,
	}
}

func ethernet(t layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{SrcMAC: clientMAC, DstMAC: serverMAC, EthernetType: t}
}

type capture struct {
	t   *testing.T
	buf bytes.Buffer
	w   *pcapgo.Writer
	at  time.Time
}

func newCapture(t *testing.T) *capture {
	c := &capture{t: t, at: time.Date(2024, 9, 14, 0, 0, 0, 0, time.UTC)}
	c.w = pcapgo.NewWriter(&c.buf)
	require.NoError(t, c.w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	return c
}

func (c *capture) add(l ...gopacket.SerializableLayer) {
	buf := gopacket.NewSerializeBuffer()
	require.NoError(c.t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, l...))
	data := buf.Bytes()
	c.at = c.at.Add(time.Millisecond)
	require.NoError(c.t, c.w.WritePacket(gopacket.CaptureInfo{Timestamp: c.at, CaptureLength: len(data), Length: len(data)}, data))
}

func (c *capture) tcp(dstPort layers.TCPPort, payload []byte) {
	c.add(ethernet(layers.EthernetTypeIPv4), ipv4(layers.IPProtocolTCP, 0),
		&layers.TCP{SrcPort: 40000, DstPort: dstPort, PSH: true, ACK: true, Window: 1024}, gopacket.Payload(payload))
}

func (c *capture) udp(dstPort layers.UDPPort, payload []byte) {
	c.add(ethernet(layers.EthernetTypeIPv4), ipv4(layers.IPProtocolUDP, 0),
		&layers.UDP{SrcPort: 40001, DstPort: dstPort}, gopacket.Payload(payload))
}

type seen struct {
	number uint64
	proto  layers.IPProtocol
	src    string
	dst    string
	data   []byte
}

func replay(t *testing.T, c *capture, filter Filter) ([]seen, error) {
	var got []seen
	err := ReplayStream(context.Background(), bytes.NewReader(c.buf.Bytes()), filter, HandlerFunc(func(ctx context.Context, f *Frame) error {
		got = append(got, seen{f.Number, f.IPProtocol, f.Source(), f.Destination(), bytes.Clone(f.Data)})
		return nil
	}))
	return got, err
}

func TestReplayStream(t *testing.T) {
	c := newCapture(t)
	c.tcp(ISOPort, []byte{0x8B, 0x00})
	c.add(ethernet(layers.EthernetTypeARP), &layers.ARP{
		AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
		HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPRequest,
		SourceHwAddress: clientMAC, SourceProtAddress: clientIP,
		DstHwAddress: net.HardwareAddr{0, 0, 0, 0, 0, 0}, DstProtAddress: serverIP,
	})
	c.udp(161, []byte{0x30, 0x00})
	c.tcp(ISOPort, nil)

	tests := []struct {
		name   string
		filter Filter
		want   []seen
	}{
		{"everything", Filter{}, []seen{
			{1, layers.IPProtocolTCP, "10.0.0.1:40000", "10.0.0.2:102", []byte{0x8B, 0x00}},
			{3, layers.IPProtocolUDP, "10.0.0.1:40001", "10.0.0.2:161", []byte{0x30, 0x00}},
		}},
		{"tcp only", Filter{Protocol: layers.IPProtocolTCP}, []seen{
			{1, layers.IPProtocolTCP, "10.0.0.1:40000", "10.0.0.2:102", []byte{0x8B, 0x00}},
		}},
		{"by port", Filter{Port: 161}, []seen{
			{3, layers.IPProtocolUDP, "10.0.0.1:40001", "10.0.0.2:161", []byte{0x30, 0x00}},
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := replay(t, c, test.filter)
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}

func TestReplayFragment(t *testing.T) {
	c := newCapture(t)
	c.add(ethernet(layers.EthernetTypeIPv4), ipv4(layers.IPProtocolUDP, layers.IPv4MoreFragments),
		&layers.UDP{SrcPort: 1, DstPort: 2}, gopacket.Payload([]byte{1}))
	_, err := replay(t, c, Filter{})
	require.ErrorIs(t, err, ErrReassemblyNeeded)
}

func TestReplayBadStream(t *testing.T) {
	err := ReplayStream(context.Background(), bytes.NewReader([]byte("not a pcap")), Filter{}, HandlerFunc(func(context.Context, *Frame) error {
		return nil
	}))
	require.Error(t, err)
}

func TestSplitTPKT(t *testing.T) {
	connect := []byte{0x03, 0x00, 0x00, 0x0B, 0x06, 0xE0, 0x00, 0x00, 0x00, 0x01, 0x00}
	data := []byte{0x03, 0x00, 0x00, 0x09, 0x02, 0xF0, 0x80, 0x8B, 0x00}

	tests := []struct {
		name    string
		payload []byte
		want    [][]byte
		wantErr bool
	}{
		{"data", data, [][]byte{{0x8B, 0x00}}, false},
		{"connect then data", append(bytes.Clone(connect), data...), [][]byte{{0x8B, 0x00}}, false},
		{"two data units", append(bytes.Clone(data), data...), [][]byte{{0x8B, 0x00}, {0x8B, 0x00}}, false},
		{
			"segments are not joined",
			[]byte{0x03, 0x00, 0x00, 0x08, 0x02, 0xF0, 0x00, 0x8B, 0x03, 0x00, 0x00, 0x08, 0x02, 0xF0, 0x80, 0x00},
			[][]byte{{0x8B}, {0x00}},
			false,
		},
		{"short header", data[:3], nil, true},
		{"bad version", append([]byte{0x04}, data[1:]...), nil, true},
		{"length past payload", data[:8], nil, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := SplitTPKT(test.payload)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}
