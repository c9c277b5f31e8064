package component

import (
	"fmt"
	"slices"
	"sync"
)

// NameBasedRegistration associates a unique name with a value and optional
// metadata. Values are frequently factory functions.
type NameBasedRegistration[V, MD any] struct {
	Name     string
	Value    V
	Metadata MD
}

// NameBasedRegistryOptions tunes the behavior of a NameBasedRegistry.
type NameBasedRegistryOptions struct {
	// AllowOverwriting permits a registration to replace an existing one with
	// the same name. When false, such a registration is an error.
	AllowOverwriting bool
}

// NameBasedRegistry stores registrations indexed by name.
type NameBasedRegistry[V, MD any] interface {
	// Register adds a registration. It fails if the name is empty or, unless
	// overwriting is allowed, already registered.
	Register(NameBasedRegistration[V, MD]) error
	// MustRegister is like Register but panics on error.
	MustRegister(NameBasedRegistration[V, MD])
	// Get returns the registration with the given name or a
	// NamedRegistrationNotFoundError.
	Get(name string) (NameBasedRegistration[V, MD], error)
	// Names returns all registered names in lexical order.
	Names() []string
}

// NewNameBasedRegistry returns the default NameBasedRegistry implementation,
// seeded with any provided registrations.
func NewNameBasedRegistry[V, MD any](
	opts *NameBasedRegistryOptions,
	registrations ...NameBasedRegistration[V, MD],
) (NameBasedRegistry[V, MD], error) {
	r := &namedRegistry[V, MD]{byName: map[string]NameBasedRegistration[V, MD]{}}
	if opts != nil {
		r.opts = *opts
	}
	for _, reg := range registrations {
		if err := r.Register(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewNameBasedRegistry is like NewNameBasedRegistry but panics on error.
func MustNewNameBasedRegistry[V, MD any](
	opts *NameBasedRegistryOptions,
	registrations ...NameBasedRegistration[V, MD],
) NameBasedRegistry[V, MD] {
	r, err := NewNameBasedRegistry(opts, registrations...)
	if err != nil {
		panic(err)
	}
	return r
}

// namedRegistry keeps its names sorted on insert so Names never sorts.
type namedRegistry[V, MD any] struct {
	opts   NameBasedRegistryOptions
	mu     sync.RWMutex
	byName map[string]NameBasedRegistration[V, MD]
	names  []string
}

func (n *namedRegistry[V, MD]) Register(reg NameBasedRegistration[V, MD]) error {
	if reg.Name == "" {
		return fmt.Errorf("registration name cannot be empty")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	i, exists := slices.BinarySearch(n.names, reg.Name)
	switch {
	case exists && !n.opts.AllowOverwriting:
		return fmt.Errorf(
			"cannot overwrite registration with name %q; overwriting is disabled",
			reg.Name,
		)
	case !exists:
		n.names = slices.Insert(n.names, i, reg.Name)
	}
	n.byName[reg.Name] = reg
	return nil
}

func (n *namedRegistry[V, MD]) MustRegister(reg NameBasedRegistration[V, MD]) {
	if err := n.Register(reg); err != nil {
		panic(err)
	}
}

func (n *namedRegistry[V, MD]) Get(name string) (NameBasedRegistration[V, MD], error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if reg, ok := n.byName[name]; ok {
		return reg, nil
	}
	return NameBasedRegistration[V, MD]{}, NamedRegistrationNotFoundError{Name: name}
}

func (n *namedRegistry[V, MD]) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.names)
}
