package asn1core

import "fmt"

// Class is the tag class held in the top two bits of the identifier octet.
type Class uint8

const (
	ClassUniversal       = Class(0)
	ClassApplication     = Class(1)
	ClassContextSpecific = Class(2)
	ClassPrivate         = Class(3)
)

var classMap Mapping[Class]

func init() {
	classMap.Add("Universal", ClassUniversal)
	classMap.Add("Application", ClassApplication)
	classMap.Add("ContextSpecific", ClassContextSpecific, "Context")
	classMap.Add("Private", ClassPrivate)
}

func (c Class) String() string {
	name, err := classMap.Name(c)
	if err == nil {
		return name
	}
	return fmt.Sprintf("class=%02X", int(c))
}

// Valid reports whether c is one of the four X.690 classes.
func (c Class) Valid() bool {
	return c <= ClassPrivate
}

func ParseClass(class string) (Class, error) {
	return classMap.Value(class)
}
