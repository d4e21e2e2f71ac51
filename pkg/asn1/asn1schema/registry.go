package asn1schema

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/davidjspooner/mms-ber/pkg/asn1/asn1core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var compilationCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "asn1_schema_compilations_total",
	Help: "Count schema compilations by result",
}, []string{"result"})

// Source synthesizes the definition of a type on first use.
type Source func() (*TypeSchema, error)

type definition struct {
	source Source
	once   sync.Once
	schema *TypeSchema
	err    error
}

func (d *definition) get(name string) (*TypeSchema, error) {
	d.once.Do(func() {
		d.schema, d.err = d.source()
		if d.err == nil && d.schema == nil {
			d.err = asn1core.NewSchemaError(asn1core.ErrInvalidSchema, name, "source returned no schema")
		}
	})
	return d.schema, d.err
}

type compiled struct {
	schema *TypeSchema
	err    error
}

// Registry maps type names to compiled schemas. Each name is compiled at most
// once; concurrent first callers share the same build and every caller gets
// the same *TypeSchema. Cached entries are read without locking.
type Registry struct {
	lock         sync.RWMutex
	definitions  map[string]*definition
	cache        sync.Map
	group        singleflight.Group
	compilations atomic.Int64
}

// Default is the process wide registry used by the package level functions.
var Default = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]*definition)}
}

// Define registers the definition of name. The definition is copied when
// compiled; t may be discarded afterwards but must not be modified before.
func (r *Registry) Define(name string, t *TypeSchema) error {
	return r.DefineFunc(name, func() (*TypeSchema, error) { return t, nil })
}

// DefineFunc registers a source that is called at most once, the first time
// name or a type referring to it is compiled.
func (r *Registry) DefineFunc(name string, source Source) error {
	if name == "" {
		return asn1core.NewSchemaError(asn1core.ErrInvalidSchema, name, "type name is empty")
	}
	if !r.DefineIfAbsent(name, source) {
		return asn1core.NewSchemaError(asn1core.ErrInvalidSchema, name, "type is already defined")
	}
	return nil
}

// DefineIfAbsent registers source unless name is already defined and reports
// whether it did.
func (r *Registry) DefineIfAbsent(name string, source Source) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.definitions[name]; ok {
		return false
	}
	r.definitions[name] = &definition{source: source}
	// a new name may resolve a previously undefined reference
	r.cache.Range(func(key, value any) bool {
		if value.(*compiled).err != nil {
			r.cache.Delete(key)
		}
		return true
	})
	return true
}

func (r *Registry) Defined(name string) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	_, ok := r.definitions[name]
	return ok
}

// Names returns the defined type names in order.
func (r *Registry) Names() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) definition(name string) (*TypeSchema, error) {
	r.lock.RLock()
	d, ok := r.definitions[name]
	r.lock.RUnlock()
	if !ok {
		return nil, asn1core.NewSchemaError(asn1core.ErrUndefinedType, name, "no definition registered")
	}
	return d.get(name)
}

// SchemaFor returns the compiled schema of name, compiling it on first use.
// Failures are cached as well: a malformed schema stays malformed.
func (r *Registry) SchemaFor(name string) (*TypeSchema, error) {
	if v, ok := r.cache.Load(name); ok {
		c := v.(*compiled)
		return c.schema, c.err
	}
	v, err, _ := r.group.Do(name, func() (any, error) {
		if v, ok := r.cache.Load(name); ok {
			c := v.(*compiled)
			return c.schema, c.err
		}
		schema, err := r.compile(name)
		r.compilations.Add(1)
		if err != nil {
			compilationCounter.WithLabelValues("error").Inc()
		} else {
			compilationCounter.WithLabelValues("ok").Inc()
		}
		r.cache.Store(name, &compiled{schema: schema, err: err})
		return schema, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*TypeSchema), nil
}

// Compilations returns how many times a schema was built by r.
func (r *Registry) Compilations() int64 {
	return r.compilations.Load()
}

func Define(name string, t *TypeSchema) error {
	return Default.Define(name, t)
}

func DefineFunc(name string, source Source) error {
	return Default.DefineFunc(name, source)
}

func SchemaFor(name string) (*TypeSchema, error) {
	return Default.SchemaFor(name)
}
