package model

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

var (
	// ErrUnknownNamespace is returned when a namespace uri is not registered.
	ErrUnknownNamespace = errors.New("unknown namespace")
	// ErrUnknownClass is returned when a namespace does not declare a class name.
	ErrUnknownClass = errors.New("unknown class")
	// ErrAbstractClass is returned when instantiating an abstract class.
	ErrAbstractClass = errors.New("class is abstract")
)

// Registry is a dynamic registry for namespaces and their classes.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]*Namespace
}

// RegistryOption configures a Registry created with NewRegistry.
type RegistryOption func(*Registry)

// WithNamespaces registers namespaces on creation. It panics on conflicts.
func WithNamespaces(namespaces ...*Namespace) RegistryOption {
	return func(r *Registry) {
		r.MustRegister(namespaces...)
	}
}

// WithMetaNamespace registers the built-in meta namespace.
func WithMetaNamespace() RegistryOption {
	return WithNamespaces(Meta())
}

// NewRegistry creates a new registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		namespaces: make(map[string]*Namespace),
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewRegistry()
	maps.Copy(clone.namespaces, r.namespaces)
	return clone
}

// Register freezes and adds namespaces. Registering the same namespace twice
// is a no-op; registering a different namespace under a known uri fails.
func (r *Registry) Register(namespaces ...*Namespace) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ns := range namespaces {
		if existing, exists := r.namespaces[ns.URI]; exists {
			if existing == ns {
				continue
			}
			return fmt.Errorf("namespace %q is already registered", ns.URI)
		}
		if err := ns.seal(); err != nil {
			return fmt.Errorf("invalid namespace %q: %w", ns.URI, err)
		}
		r.namespaces[ns.URI] = ns
	}
	return nil
}

func (r *Registry) MustRegister(namespaces ...*Namespace) {
	if err := r.Register(namespaces...); err != nil {
		panic(err)
	}
}

func (r *Registry) IsRegistered(uri string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.namespaces[uri]
	return exists
}

// Namespace returns the namespace registered under uri.
func (r *Registry) Namespace(uri string) (*Namespace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.namespaces[uri]
	return ns, ok
}

// Namespaces returns all registered namespaces sorted by uri.
func (r *Registry) Namespaces() []*Namespace {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uris := slices.Sorted(maps.Keys(r.namespaces))
	result := make([]*Namespace, 0, len(uris))
	for _, uri := range uris {
		result = append(result, r.namespaces[uri])
	}
	return result
}

// ClassOf resolves a class by namespace uri and local name.
func (r *Registry) ClassOf(uri, name string) (*Class, error) {
	ns, ok := r.Namespace(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, uri)
	}
	c := ns.Class(name)
	if c == nil {
		return nil, fmt.Errorf("%w: %q in namespace %q", ErrUnknownClass, name, uri)
	}
	return c, nil
}

// Instantiate creates a new empty object of a registered, concrete class.
func (r *Registry) Instantiate(c *Class) (*Object, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot instantiate nil class")
	}
	if c.namespace == nil || !r.IsRegistered(c.namespace.URI) {
		return nil, fmt.Errorf("%w: class %s is not part of a registered namespace", ErrUnknownNamespace, c)
	}
	if c.Abstract {
		return nil, fmt.Errorf("%w: %s", ErrAbstractClass, c)
	}
	return newObject(c), nil
}

// MustInstantiate is Instantiate that panics on error.
func (r *Registry) MustInstantiate(c *Class) *Object {
	obj, err := r.Instantiate(c)
	if err != nil {
		panic(err)
	}
	return obj
}

// FeaturesOf returns the ordered feature list of a class.
func (r *Registry) FeaturesOf(c *Class) []*Feature {
	return c.Features()
}
