package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/davidjspooner/mms-ber/internal/capture"
	"github.com/davidjspooner/mms-ber/internal/report"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1ber"
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1schema"
	"github.com/davidjspooner/mms-ber/pkg/logevent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "berdump_frames_total",
	Help: "Count values decoded by result",
}, []string{"result"})

// Dumper decodes every value in a payload against the root type.
type Dumper struct {
	root    *asn1schema.TypeSchema
	decoder *asn1ber.Decoder
	tpkt    bool
	skip    int
	frames  []report.Frame
}

func NewDumper(root *asn1schema.TypeSchema, decoder *asn1ber.Decoder, cc CaptureConfig) *Dumper {
	return &Dumper{root: root, decoder: decoder, tpkt: cc.TPKT, skip: cc.Skip}
}

func (d *Dumper) Frames() []report.Frame {
	return d.frames
}

// HandleFrame lets the dumper consume a pcap replay. Decode failures become
// error frames rather than stopping the replay.
func (d *Dumper) HandleFrame(ctx context.Context, frame *capture.Frame) error {
	units := [][]byte{frame.Data}
	if d.tpkt {
		var err error
		units, err = capture.SplitTPKT(frame.Data)
		if err != nil {
			logevent.LoggerFromContext(ctx).Warn("not a tpkt payload", "frame", frame.Number, "error", err, logevent.Event("bad_tpkt"))
			return nil
		}
	}
	for _, unit := range units {
		d.Payload(ctx, frame.Number, frame.Source(), frame.Destination(), bytes.Clone(unit))
	}
	return nil
}

// Payload decodes consecutive values until data is used up or a value fails
// to decode.
func (d *Dumper) Payload(ctx context.Context, number uint64, src, dst string, data []byte) {
	logger := logevent.LoggerFromContext(ctx).WithGroup("decode")
	offset := min(d.skip, len(data))
	for offset < len(data) {
		frame := report.Frame{
			Number:      number,
			Source:      src,
			Destination: dst,
			Offset:      offset,
			Type:        d.root.String(),
		}
		v, n, err := d.decoder.Decode(d.root, data, offset)
		if err != nil {
			frame.Data = data[offset:]
			frame.Err = err
			d.frames = append(d.frames, frame)
			framesTotal.WithLabelValues("error").Inc()
			logger.Warn("decode failed", "frame", number, "offset", offset, "error", err, logevent.Event("decode_failed"))
			return
		}
		frame.Data = data[offset : offset+n]
		frame.Value = v
		d.frames = append(d.frames, frame)
		framesTotal.WithLabelValues("ok").Inc()
		logger.Debug("decoded", "frame", number, "offset", offset, "bytes", n, logevent.Event("decoded"))
		offset += n
	}
}

// ParseHex accepts hex with optional whitespace, colon or 0x separators.
func ParseHex(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, "0x", "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bad hex input: %w", err)
	}
	return data, nil
}
