package gitprovider

import (
	"context"
	"fmt"

	"github.com/akuity/devportal/pkg/component"
)

// Registration holds details on how to instantiate a Git provider
// implementation.
type Registration struct {
	// Predicate reports whether the provider can handle repoURL, typically by
	// inspecting its host.
	Predicate func(repoURL string) bool
	// NewProvider instantiates the provider for repoURL.
	NewProvider func(repoURL string, opts *Options) (Interface, error)
}

type predicate = func(context.Context, string) (bool, error)

type providerRegistry = component.PredicateBasedRegistry[
	string,
	predicate,
	Registration,
	string,
]

var (
	// registeredProviders is consulted by New in registration order.
	registeredProviders providerRegistry = component.MustNewPredicateBasedRegistry[
		string,
		predicate,
		Registration,
		string,
	]()
	// providersByName is consulted when Options.Name is set.
	providersByName = component.MustNewNameBasedRegistry[Registration, struct{}](nil)
)

// Register is called by provider implementation packages to make themselves
// available to New. It panics if name is already registered.
func Register(name string, reg Registration) {
	providersByName.MustRegister(
		component.NameBasedRegistration[Registration, struct{}]{
			Name:  name,
			Value: reg,
		},
	)
	registeredProviders.MustRegister(
		component.PredicateBasedRegistration[string, predicate, Registration, string]{
			Predicate: func(_ context.Context, repoURL string) (bool, error) {
				return reg.Predicate(repoURL), nil
			},
			Value:    reg,
			Metadata: name,
		},
	)
}

// New returns an implementation of Interface for repoURL. If opts.Name is
// set, the provider registered under that name is used. Otherwise the first
// provider whose predicate matches repoURL is used.
func New(repoURL string, opts *Options) (Interface, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Name != "" {
		reg, err := providersByName.Get(opts.Name)
		if err != nil {
			return nil, fmt.Errorf("no Git provider registered with name %q", opts.Name)
		}
		return reg.Value.NewProvider(repoURL, opts)
	}
	reg, err := registeredProviders.Get(context.Background(), repoURL)
	if err != nil {
		return nil, fmt.Errorf("no Git provider registered for repository %q", repoURL)
	}
	return reg.Value.NewProvider(repoURL, opts)
}
