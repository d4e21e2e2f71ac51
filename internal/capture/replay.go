// Package capture replays pcap files and hands the transport payload of each
// frame to a handler.
//
// Frames are handled one at a time. There is no TCP stream reassembly and no
// unwrapping of the ISO session and presentation layers, so captures of a
// full ISO stack need a fixed skip in front of the PDU to decode, and PDUs
// spread over several segments fail to decode.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/davidjspooner/mms-ber/pkg/logevent"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var ErrReassemblyNeeded = errors.New("reassembly needed")

// Frame is reused between calls, so handlers must copy what they keep.
type Frame struct {
	Number     uint64
	IsFragment bool
	IPProtocol layers.IPProtocol
	SrcAddr    net.IPAddr
	DstAddr    net.IPAddr
	SrcPort    uint16
	DstPort    uint16
	Data       []byte
}

func (f *Frame) Source() string {
	return net.JoinHostPort(f.SrcAddr.IP.String(), fmt.Sprint(f.SrcPort))
}

func (f *Frame) Destination() string {
	return net.JoinHostPort(f.DstAddr.IP.String(), fmt.Sprint(f.DstPort))
}

type Handler interface {
	HandleFrame(ctx context.Context, frame *Frame) error
}

type HandlerFunc func(ctx context.Context, frame *Frame) error

func (f HandlerFunc) HandleFrame(ctx context.Context, frame *Frame) error {
	return f(ctx, frame)
}

// Filter selects frames by transport. A zero Port matches any port.
type Filter struct {
	Protocol layers.IPProtocol
	Port     uint16
}

func (f Filter) match(frame *Frame) bool {
	if f.Protocol != 0 && f.Protocol != frame.IPProtocol {
		return false
	}
	return f.Port == 0 || f.Port == frame.SrcPort || f.Port == frame.DstPort
}

func ReplayFile(ctx context.Context, filename string, filter Filter, handler Handler) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayStream(ctx, f, filter, handler)
}

// ReplayStream reads a pcap stream and calls handler for every IP frame with
// a non-empty TCP or UDP payload that passes filter.
func ReplayStream(ctx context.Context, r io.Reader, filter Filter, handler Handler) error {
	logger := logevent.LoggerFromContext(ctx).WithGroup("capture")

	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("failed to create pcap reader: %w", err)
	}

	packetSource := gopacket.NewPacketSource(reader, reader.LinkType())
	frame := &Frame{}
	for packet := range packetSource.Packets() {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame.Number++
		if !decodeFrame(packet, frame) {
			logger.Debug("frame skipped", "frame", frame.Number, logevent.Event("frame_skipped"))
			continue
		}
		if !filter.match(frame) || len(frame.Data) == 0 {
			continue
		}
		if frame.IsFragment {
			return fmt.Errorf("frame %d: %w", frame.Number, ErrReassemblyNeeded)
		}
		if err := handler.HandleFrame(ctx, frame); err != nil {
			return fmt.Errorf("failed to handle frame %d: %w", frame.Number, err)
		}
	}
	return nil
}

func decodeFrame(packet gopacket.Packet, frame *Frame) bool {
	var payload []byte
	if ipV4 := packet.Layer(layers.LayerTypeIPv4); ipV4 != nil {
		ip := ipV4.(*layers.IPv4)
		frame.IsFragment = ip.Flags&layers.IPv4MoreFragments != 0 || ip.FragOffset != 0
		frame.IPProtocol = ip.Protocol
		frame.SrcAddr = net.IPAddr{IP: ip.SrcIP}
		frame.DstAddr = net.IPAddr{IP: ip.DstIP}
		payload = ip.Payload
	} else if ipV6 := packet.Layer(layers.LayerTypeIPv6); ipV6 != nil {
		ip := ipV6.(*layers.IPv6)
		frame.IsFragment = packet.Layer(layers.LayerTypeIPv6Fragment) != nil
		frame.IPProtocol = ip.NextHeader
		frame.SrcAddr = net.IPAddr{IP: ip.SrcIP}
		frame.DstAddr = net.IPAddr{IP: ip.DstIP}
		payload = ip.Payload
	} else {
		return false
	}
	if frame.IsFragment {
		// transport headers are only in the first fragment
		frame.SrcPort = 0
		frame.DstPort = 0
		frame.Data = payload
		return true
	}
	if tcp := packet.Layer(layers.LayerTypeTCP); tcp != nil {
		tcp := tcp.(*layers.TCP)
		frame.IPProtocol = layers.IPProtocolTCP
		frame.SrcPort = uint16(tcp.SrcPort)
		frame.DstPort = uint16(tcp.DstPort)
		frame.Data = tcp.Payload
	} else if udp := packet.Layer(layers.LayerTypeUDP); udp != nil {
		udp := udp.(*layers.UDP)
		frame.IPProtocol = layers.IPProtocolUDP
		frame.SrcPort = uint16(udp.SrcPort)
		frame.DstPort = uint16(udp.DstPort)
		frame.Data = udp.Payload
	} else {
		return false
	}
	return true
}
