package component

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Predicate is a constraint for functions that decide whether an input of
// type A matches. An error aborts the lookup.
type Predicate[A any] interface {
	~func(context.Context, A) (bool, error)
}

// PredicateBasedRegistration associates a predicate with a value and optional
// metadata.
//
// Type parameters:
// - PA: the input type for the predicate
// - P: the predicate function type
// - V: the type stored in the registry
// - MD: the type of metadata stored in the registry
type PredicateBasedRegistration[PA any, P Predicate[PA], V, MD any] struct {
	Predicate P
	Value     V
	Metadata  MD
}

// PredicateBasedRegistry stores registrations that are selected by
// evaluating their predicates.
type PredicateBasedRegistry[PA any, P Predicate[PA], V, MD any] interface {
	// Register adds a registration. Registrations are evaluated in the order
	// they were added.
	Register(PredicateBasedRegistration[PA, P, V, MD]) error
	// MustRegister is like Register but panics on error.
	MustRegister(PredicateBasedRegistration[PA, P, V, MD])
	// Get returns the first registration whose predicate matches the input,
	// or a RegistrationNotFoundError.
	Get(context.Context, PA) (PredicateBasedRegistration[PA, P, V, MD], error)
}

// NewPredicateBasedRegistry returns the default PredicateBasedRegistry
// implementation, seeded with any provided registrations.
func NewPredicateBasedRegistry[PA any, P Predicate[PA], V, MD any](
	registrations ...PredicateBasedRegistration[PA, P, V, MD],
) (PredicateBasedRegistry[PA, P, V, MD], error) {
	r := &orderedRegistry[PA, P, V, MD]{}
	for _, reg := range registrations {
		if err := r.Register(reg); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewPredicateBasedRegistry is like NewPredicateBasedRegistry but panics
// on error.
func MustNewPredicateBasedRegistry[PA any, P Predicate[PA], V, MD any](
	registrations ...PredicateBasedRegistration[PA, P, V, MD],
) PredicateBasedRegistry[PA, P, V, MD] {
	r, err := NewPredicateBasedRegistry(registrations...)
	if err != nil {
		panic(err)
	}
	return r
}

// orderedRegistry evaluates predicates in registration order. Get works on a
// snapshot so a predicate may itself consult the registry.
type orderedRegistry[PA any, P Predicate[PA], V, MD any] struct {
	mu   sync.RWMutex
	regs []PredicateBasedRegistration[PA, P, V, MD]
}

func (o *orderedRegistry[PA, P, V, MD]) Register(
	reg PredicateBasedRegistration[PA, P, V, MD],
) error {
	if reg.Predicate == nil {
		return errors.New("registration has nil predicate function")
	}
	o.mu.Lock()
	o.regs = append(o.regs, reg)
	o.mu.Unlock()
	return nil
}

func (o *orderedRegistry[PA, P, V, MD]) MustRegister(
	reg PredicateBasedRegistration[PA, P, V, MD],
) {
	if err := o.Register(reg); err != nil {
		panic(err)
	}
}

func (o *orderedRegistry[PA, P, V, MD]) Get(
	ctx context.Context,
	arg PA,
) (found PredicateBasedRegistration[PA, P, V, MD], err error) {
	o.mu.RLock()
	snapshot := slices.Clone(o.regs)
	o.mu.RUnlock()
	for _, reg := range snapshot {
		var ok bool
		if ok, err = reg.Predicate(ctx, arg); err != nil || ok {
			if err == nil {
				found = reg
			}
			return found, err
		}
	}
	return found, RegistrationNotFoundError{}
}
