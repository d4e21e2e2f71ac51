package asn1core

import "fmt"

// Tag is a universal class tag number.
type Tag uint

const (
	TagEndOfContents    = Tag(0x00)
	TagBoolean          = Tag(0x01)
	TagInteger          = Tag(0x02)
	TagBitString        = Tag(0x03)
	TagOctetString      = Tag(0x04)
	TagNull             = Tag(0x05)
	TagOID              = Tag(0x06)
	TagObjectDescriptor = Tag(0x07)
	TagReal             = Tag(0x09)
	TagEnum             = Tag(0x0A)
	TagUTF8String       = Tag(0x0C)
	TagSequence         = Tag(0x10)
	TagSet              = Tag(0x11)
	TagNumericString    = Tag(0x12)
	TagPrintableString  = Tag(0x13)
	TagIA5String        = Tag(0x16)
	TagUTCTime          = Tag(0x17)
	TagGeneralizedTime  = Tag(0x18)
	TagVisibleString    = Tag(0x1A)
	TagGeneralString    = Tag(0x1B)
	TagBMPString        = Tag(0x1E)
)

var tagMap Mapping[Tag]

func init() {
	tagMap.Add("EndOfContents", TagEndOfContents)
	tagMap.Add("Boolean", TagBoolean)
	tagMap.Add("Integer", TagInteger)
	tagMap.Add("BitString", TagBitString)
	tagMap.Add("OctetString", TagOctetString)
	tagMap.Add("Null", TagNull)
	tagMap.Add("OID", TagOID, "ObjectIdentifier")
	tagMap.Add("ObjectDescriptor", TagObjectDescriptor)
	tagMap.Add("Real", TagReal)
	tagMap.Add("Enum", TagEnum, "Enumerated")
	tagMap.Add("UTF8String", TagUTF8String)
	tagMap.Add("Sequence", TagSequence, "SequenceOf")
	tagMap.Add("Set", TagSet, "SetOf")
	tagMap.Add("NumericString", TagNumericString)
	tagMap.Add("PrintableString", TagPrintableString)
	tagMap.Add("IA5String", TagIA5String)
	tagMap.Add("UTCTime", TagUTCTime)
	tagMap.Add("GeneralizedTime", TagGeneralizedTime)
	tagMap.Add("VisibleString", TagVisibleString)
	tagMap.Add("GeneralString", TagGeneralString)
	tagMap.Add("BMPString", TagBMPString)
}

func (t Tag) String() string {
	name, err := tagMap.Name(t)
	if err == nil {
		return name
	}
	return fmt.Sprintf("tag=%02X", uint(t))
}

func ParseTag(tag string) (Tag, error) {
	return tagMap.Value(tag)
}

// TagDescriptor identifies the wire tag of one value: its class, number and
// whether the contents are constructed from nested encodings.
type TagDescriptor struct {
	Class       Class
	Number      uint
	Constructed bool
}

// Universal returns the descriptor of a universal class tag.
func Universal(t Tag, constructed bool) TagDescriptor {
	return TagDescriptor{Class: ClassUniversal, Number: uint(t), Constructed: constructed}
}

// Context returns a primitive context-specific descriptor.
func Context(n uint) TagDescriptor {
	return TagDescriptor{Class: ClassContextSpecific, Number: n}
}

// Application returns a primitive application class descriptor.
func Application(n uint) TagDescriptor {
	return TagDescriptor{Class: ClassApplication, Number: n}
}

// Matches compares class and number, ignoring the constructed bit.
func (td TagDescriptor) Matches(other TagDescriptor) bool {
	return td.Class == other.Class && td.Number == other.Number
}

// WithConstructed returns a copy of td with the constructed bit set to c.
func (td TagDescriptor) WithConstructed(c bool) TagDescriptor {
	td.Constructed = c
	return td
}

// IsEndOfContents reports whether td is the universal 0 tag used by the
// end-of-contents marker.
func (td TagDescriptor) IsEndOfContents() bool {
	return td.Class == ClassUniversal && td.Number == 0 && !td.Constructed
}

func (td TagDescriptor) String() string {
	form := "p"
	if td.Constructed {
		form = "c"
	}
	switch td.Class {
	case ClassUniversal:
		return fmt.Sprintf("[%s/%s]", Tag(td.Number), form)
	case ClassContextSpecific:
		return fmt.Sprintf("[%d/%s]", td.Number, form)
	}
	return fmt.Sprintf("[%s %d/%s]", td.Class, td.Number, form)
}
