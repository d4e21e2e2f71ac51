package asn1core

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/constraints"
)

// Mapping translates between the names used in schema files and the
// constants behind them. Name lookups ignore case. Tables are filled from
// init functions and only read afterwards.
type Mapping[T constraints.Integer] struct {
	names  map[T]string
	values map[string]T
}

// Add records the canonical name of val and any aliases that also parse to
// it. Duplicates are programming errors and panic.
func (m *Mapping[T]) Add(name string, val T, aliases ...string) {
	if m.names == nil {
		m.names = make(map[T]string)
		m.values = make(map[string]T)
	}
	if prev, ok := m.names[val]; ok {
		panic(fmt.Sprintf("value %d already named %q", val, prev))
	}
	m.names[val] = name
	for _, s := range append([]string{name}, aliases...) {
		key := strings.ToLower(s)
		if _, ok := m.values[key]; ok {
			panic(fmt.Sprintf("duplicate name %q", s))
		}
		m.values[key] = val
	}
}

func (m *Mapping[T]) Name(val T) (string, error) {
	if name, ok := m.names[val]; ok {
		return name, nil
	}
	return "", NewErrorf("unknown value %d", val)
}

func (m *Mapping[T]) Value(name string) (T, error) {
	if val, ok := m.values[strings.ToLower(name)]; ok {
		return val, nil
	}
	var zero T
	return zero, NewErrorf("unknown name %q, should be one of %s", name, strings.Join(m.Names(), ","))
}

// Names returns the canonical names in value order.
func (m *Mapping[T]) Names() []string {
	vals := make([]T, 0, len(m.names))
	for val := range m.names {
		vals = append(vals, val)
	}
	slices.Sort(vals)
	names := make([]string, len(vals))
	for i, val := range vals {
		names[i] = m.names[val]
	}
	return names
}
