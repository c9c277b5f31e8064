package kubernetes

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/akuity/devportal/pkg/component"
)

// ErrExtensionPointClosed is returned when a registration arrives after the
// Kubernetes plugin has begun initializing.
var ErrExtensionPointClosed = errors.New(
	"kubernetes extension points are closed; registrations must happen " +
		"during module initialization",
)

// RegistrationKind discriminates Registration.
type RegistrationKind string

const (
	RegistrationKindObjectsProvider RegistrationKind = "objects-provider"
	RegistrationKindClusterSupplier RegistrationKind = "cluster-supplier"
	RegistrationKindAuthStrategy    RegistrationKind = "auth-strategy"
)

// Registration records one call to an extension point. Exactly the fields
// matching Kind are set.
type Registration struct {
	Kind            RegistrationKind
	ObjectsProvider ObjectsProvider
	ClusterSupplier ClustersSupplier
	AuthStrategyKey string
	AuthStrategy    AuthenticationStrategy
}

// Extensions collects registrations made through all three Kubernetes
// extension points. It implements each extension point interface.
type Extensions struct {
	mu             sync.Mutex
	registrations  []Registration
	authStrategies component.NameBasedRegistry[AuthenticationStrategy, struct{}]
	sealed         bool
}

// NewExtensions returns an empty, open Extensions.
func NewExtensions() *Extensions {
	return &Extensions{
		authStrategies: component.MustNewNameBasedRegistry[AuthenticationStrategy, struct{}](nil),
	}
}

// AddObjectsProvider implements ObjectsProviderExtensionPoint.
func (e *Extensions) AddObjectsProvider(provider ObjectsProvider) error {
	if provider == nil {
		return errors.New("objects provider must not be nil")
	}
	return e.add(Registration{
		Kind:            RegistrationKindObjectsProvider,
		ObjectsProvider: provider,
	})
}

// AddClusterSupplier implements ClusterSupplierExtensionPoint.
func (e *Extensions) AddClusterSupplier(supplier ClustersSupplier) error {
	if supplier == nil {
		return errors.New("cluster supplier must not be nil")
	}
	return e.add(Registration{
		Kind:            RegistrationKindClusterSupplier,
		ClusterSupplier: supplier,
	})
}

// AddAuthStrategy implements AuthStrategyExtensionPoint. Keys must be
// non-empty, must not contain dashes, and may be registered only once.
func (e *Extensions) AddAuthStrategy(
	key string,
	strategy AuthenticationStrategy,
) error {
	if strategy == nil {
		return fmt.Errorf("auth strategy %q must not be nil", key)
	}
	if strings.Contains(key, "-") {
		return fmt.Errorf("auth strategy name %q must not contain dashes", key)
	}
	return e.add(Registration{
		Kind:            RegistrationKindAuthStrategy,
		AuthStrategyKey: key,
		AuthStrategy:    strategy,
	})
}

func (e *Extensions) add(reg Registration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return ErrExtensionPointClosed
	}
	if reg.Kind == RegistrationKindAuthStrategy {
		if err := e.authStrategies.Register(
			component.NameBasedRegistration[AuthenticationStrategy, struct{}]{
				Name:  reg.AuthStrategyKey,
				Value: reg.AuthStrategy,
			},
		); err != nil {
			return fmt.Errorf("error adding auth strategy: %w", err)
		}
	}
	e.registrations = append(e.registrations, reg)
	return nil
}

// Snapshot is the immutable result of sealing an Extensions.
type Snapshot struct {
	// Registrations lists every registration in the order it was made.
	Registrations []Registration
}

// ObjectsProviders returns registered objects providers in registration
// order.
func (s Snapshot) ObjectsProviders() []ObjectsProvider {
	var providers []ObjectsProvider
	for _, reg := range s.Registrations {
		if reg.Kind == RegistrationKindObjectsProvider {
			providers = append(providers, reg.ObjectsProvider)
		}
	}
	return providers
}

// ClusterSuppliers returns registered cluster suppliers in registration
// order.
func (s Snapshot) ClusterSuppliers() []ClustersSupplier {
	var suppliers []ClustersSupplier
	for _, reg := range s.Registrations {
		if reg.Kind == RegistrationKindClusterSupplier {
			suppliers = append(suppliers, reg.ClusterSupplier)
		}
	}
	return suppliers
}

// AuthStrategies returns registered auth strategies by key.
func (s Snapshot) AuthStrategies() map[string]AuthenticationStrategy {
	strategies := map[string]AuthenticationStrategy{}
	for _, reg := range s.Registrations {
		if reg.Kind == RegistrationKindAuthStrategy {
			strategies[reg.AuthStrategyKey] = reg.AuthStrategy
		}
	}
	return strategies
}

// Seal closes the extension points and returns everything registered so far.
// Sealing is idempotent.
func (e *Extensions) Seal() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sealed = true
	regs := make([]Registration, len(e.registrations))
	copy(regs, e.registrations)
	return Snapshot{Registrations: regs}
}
