package pdu

import (
	"bytes"
	"math"
	"reflect"
	"time"
)

type Value = any

// Null is the value of a NULL type.
type Null struct{}

func (Null) String() string {
	return "null"
}

// Field is one named member of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered name to value mapping. Absent optional members are
// simply not present.
type Record struct {
	fields []Field
}

func NewRecord(fields ...Field) *Record {
	r := &Record{}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Set replaces the value of name, or appends it when not present.
func (r *Record) Set(name string, v Value) *Record {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = v
			return r
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: v})
	return r
}

func (r *Record) Get(name string) (Value, bool) {
	if r == nil {
		return nil, false
	}
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

func (r *Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

func (r *Record) Delete(name string) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			return
		}
	}
}

func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// Fields returns the members in insertion order. The slice is a copy.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	return append([]Field(nil), r.fields...)
}

// List holds the elements of a SEQUENCE OF or SET OF.
type List []Value

// Choice is the selected alternative of a CHOICE.
type Choice struct {
	Name  string
	Value Value
}

// Equal compares two values structurally. Record members are matched by
// name, so insertion order does not matter; list order does.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case *Record:
		bv, ok := b.(*Record)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, f := range av.Fields() {
			other, ok := bv.Get(f.Name)
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Choice:
		bv, ok := b.(Choice)
		return ok && av.Name == bv.Name && Equal(av.Value, bv.Value)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case BitString:
		bv, ok := b.(BitString)
		return ok && av.Equal(bv)
	case OID:
		bv, ok := b.(OID)
		return ok && av.Equal(bv)
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(av) {
			return math.IsNaN(bv)
		}
		return av == bv && math.Signbit(av) == math.Signbit(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	return reflect.DeepEqual(a, b)
}
