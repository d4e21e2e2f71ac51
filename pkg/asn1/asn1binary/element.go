package asn1binary

import (
	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
)

// DefaultMaxDepth bounds how deeply constructed encodings may nest.
const DefaultMaxDepth = 64

// Reader locates encodings inside an immutable buffer. It keeps no cursor:
// every method takes an offset and returns the offsets it computed, so
// nested decoders can share one Reader.
type Reader struct {
	Data     []byte
	Strict   bool
	MaxDepth int
}

func NewReader(data []byte) *Reader {
	return &Reader{Data: data, MaxDepth: DefaultMaxDepth}
}

// Element is the extent of one encoding within Reader.Data. For indefinite
// length encodings ContentEnd is the offset of the end-of-contents marker
// and End the offset just after it.
type Element struct {
	Header
	Offset        int
	ContentOffset int
	ContentEnd    int
	End           int
}

// Content returns the content octets of e.
func (e Element) Content(data []byte) []byte {
	return data[e.ContentOffset:e.ContentEnd]
}

// Indefinite reports whether e used the indefinite length form.
func (e Element) Indefinite() bool {
	return e.Length == LengthIndefinite
}

// ReadElement parses the encoding at offset, which must end at or before
// limit. Running past the input is reported as truncated input; running past
// a limit inside the input means an enclosing length is inconsistent.
func (r *Reader) ReadElement(offset, limit, depth int) (Element, error) {
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if depth > maxDepth {
		return Element{}, asn1core.NewDecodeError(asn1core.ErrNestingTooDeep, offset, "").Withf("limit is %d", maxDepth)
	}
	if limit > len(r.Data) {
		limit = len(r.Data)
	}
	if offset >= limit {
		return Element{}, r.overrun(offset, limit).Withf("no identifier octet")
	}
	h, contentOffset, err := r.ReadHeader(offset)
	if err != nil {
		return Element{}, err
	}
	if contentOffset > limit {
		return Element{}, r.overrun(offset, limit).Withf("header runs past the enclosing value")
	}
	e := Element{Header: h, Offset: offset, ContentOffset: contentOffset}
	if h.Length != LengthIndefinite {
		if h.Length > limit-contentOffset {
			return Element{}, r.overrun(offset, limit).WithTags(nil, &h.Tag).Withf("length %d exceeds the %d octet(s) available", h.Length, limit-contentOffset)
		}
		e.ContentEnd = contentOffset + h.Length
		e.End = e.ContentEnd
		return e, nil
	}

	pos := contentOffset
	for {
		if pos >= limit {
			return Element{}, r.overrun(offset, limit).WithTags(nil, &h.Tag).Withf("missing end-of-contents")
		}
		if r.Data[pos] == 0x00 {
			if pos+1 >= limit {
				return Element{}, r.overrun(pos, limit).Withf("end-of-contents marker is cut short")
			}
			if r.Data[pos+1] != 0x00 {
				return Element{}, asn1core.NewDecodeError(asn1core.ErrInvalidLength, pos, "").Withf("end-of-contents marker has a non-zero length")
			}
			e.ContentEnd = pos
			e.End = pos + 2
			return e, nil
		}
		child, err := r.ReadElement(pos, limit, depth+1)
		if err != nil {
			return Element{}, err
		}
		pos = child.End
	}
}

// Children splits the contents of a constructed element into its nested
// encodings.
func (r *Reader) Children(e Element, depth int) ([]Element, error) {
	var children []Element
	for pos := e.ContentOffset; pos < e.ContentEnd; {
		child, err := r.ReadElement(pos, e.ContentEnd, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		pos = child.End
	}
	return children, nil
}

// PeekTag returns the tag of the encoding at offset without checking its
// length.
func (r *Reader) PeekTag(offset, limit int) (asn1core.TagDescriptor, error) {
	if limit > len(r.Data) {
		limit = len(r.Data)
	}
	if offset >= limit {
		return asn1core.TagDescriptor{}, r.overrun(offset, limit).Withf("no identifier octet")
	}
	h, _, err := r.ReadHeader(offset)
	if err != nil {
		return asn1core.TagDescriptor{}, err
	}
	return h.Tag, nil
}

func (r *Reader) overrun(offset, limit int) *asn1core.DecodeError {
	if limit >= len(r.Data) {
		return asn1core.NewDecodeError(asn1core.ErrTruncatedInput, offset, "")
	}
	return asn1core.NewDecodeError(asn1core.ErrInvalidLength, offset, "")
}
