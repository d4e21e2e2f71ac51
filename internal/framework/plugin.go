package framework

import (
	"fmt"
	"slices"
	"strings"
)

// Plugin is one configured report or publisher.
type Plugin[T any] struct {
	Name    string
	Kind    string
	Reports []string
	Impl    T
}

// Required selects the keys Load takes from a plugin block before the rest
// is handed to the factory.
type Required int

const (
	// SupportName reads an optional "name". Unnamed plugins are numbered.
	SupportName Required = 1 << iota
	// RequireKind makes "kind" mandatory instead of falling back to
	// PluginMap.DefaultKind.
	RequireKind
	// RequireReports reads "report" or "reports", the reports to publish.
	RequireReports
)

type PluginMap[T any] struct {
	Class       string
	Factory     func(kind string, cfg Config) (T, error)
	Require     Required
	DefaultKind string

	plugins map[string]*Plugin[T]
}

func (pm *PluginMap[T]) Load(spec Config) error {
	name, err := pm.nameOf(spec)
	if err != nil {
		return err
	}
	kind, err := pm.kindOf(spec)
	if err != nil {
		return fmt.Errorf("%s %s: %w", pm.Class, name, err)
	}
	var reports []string
	if pm.Require&RequireReports != 0 {
		reports, err = ConsumeOptionalArg(spec, "report", []string{})
		if err != nil {
			return fmt.Errorf("%s %s: %w", pm.Class, name, err)
		}
	}
	impl, err := pm.Factory(kind, spec)
	if err != nil {
		return fmt.Errorf("failed to create %s %s : %s", pm.Class, name, err)
	}
	if pm.plugins == nil {
		pm.plugins = make(map[string]*Plugin[T], 1)
	}
	pm.plugins[name] = &Plugin[T]{Name: name, Kind: kind, Reports: reports, Impl: impl}
	return nil
}

func (pm *PluginMap[T]) nameOf(spec Config) (string, error) {
	name := ""
	if pm.Require&SupportName != 0 {
		var err error
		if name, err = ConsumeOptionalArg(spec, "name", ""); err != nil {
			return "", err
		}
	}
	if name == "" {
		name = fmt.Sprintf("#%d", len(pm.plugins)+1)
	}
	if _, ok := pm.plugins[name]; ok {
		return "", fmt.Errorf("%s %s already registered", pm.Class, name)
	}
	return name, nil
}

func (pm *PluginMap[T]) kindOf(spec Config) (string, error) {
	if pm.Require&RequireKind != 0 {
		return ConsumeArg[string](spec, "kind")
	}
	return ConsumeOptionalArg(spec, "kind", pm.DefaultKind)
}

func (pm *PluginMap[T]) LoadAll(specs []Config) error {
	for _, spec := range specs {
		if err := pm.Load(spec); err != nil {
			return err
		}
	}
	return nil
}

func (pm *PluginMap[T]) Find(name string) (*Plugin[T], error) {
	if p, ok := pm.plugins[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no %s named %s", pm.Class, name)
}

// ForEach visits plugins in name order.
func (pm *PluginMap[T]) ForEach(fn func(string, *Plugin[T]) error) error {
	for _, name := range pm.Names() {
		if err := fn(name, pm.plugins[name]); err != nil {
			return err
		}
	}
	return nil
}

func (pm *PluginMap[T]) Names() []string {
	names := make([]string, 0, len(pm.plugins))
	for name := range pm.plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Factories maps the kinds of one plugin class to their constructors. It is
// the Factory of a PluginMap once filled from init functions.
type Factories[T any] struct {
	Class string

	byKind map[string]func(Config) (T, error)
}

func (f *Factories[T]) Register(kind string, fn func(Config) (T, error)) {
	if f.byKind == nil {
		f.byKind = make(map[string]func(Config) (T, error))
	}
	f.byKind[kind] = fn
}

func (f *Factories[T]) New(kind string, args Config) (T, error) {
	if fn, ok := f.byKind[kind]; ok {
		return fn(args)
	}
	kinds := make([]string, 0, len(f.byKind))
	for k := range f.byKind {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	var zero T
	return zero, fmt.Errorf("unknown %s kind %s, should be one of %s", f.Class, kind, strings.Join(kinds, ","))
}
