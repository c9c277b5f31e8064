package auth

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/akuity/devportal/pkg/component"
	"github.com/akuity/devportal/pkg/kubernetes"
)

type strategyRegistration = component.NameBasedRegistration[
	kubernetes.AuthenticationStrategy,
	struct{},
]

// Keys of the built-in strategies.
const (
	ServiceAccountKey    = "serviceAccount"
	OIDCKey              = "oidc"
	AWSKey               = "aws"
	GoogleKey            = "google"
	ClientCertificateKey = "clientCertificate"
	LocalProxyKey        = "localKubectlProxy"
)

// Builtins returns a fresh set of the built-in strategies keyed by name.
func Builtins() map[string]kubernetes.AuthenticationStrategy {
	return map[string]kubernetes.AuthenticationStrategy{
		ServiceAccountKey:    NewServiceAccountStrategy(),
		OIDCKey:              NewOIDCStrategy(),
		AWSKey:               NewAWSStrategy(),
		GoogleKey:            NewGoogleStrategy(),
		ClientCertificateKey: NewClientCertificateStrategy(),
		LocalProxyKey:        NewAnonymousStrategy(),
	}
}

// Resolver selects an AuthenticationStrategy for a cluster based on the
// cluster's AuthMetadataAuthProvider metadata.
type Resolver struct {
	strategies component.NameBasedRegistry[kubernetes.AuthenticationStrategy, struct{}]
}

// NewResolver returns a Resolver over builtins overlaid with custom. A custom
// strategy replaces a built-in one with the same key.
func NewResolver(
	builtins map[string]kubernetes.AuthenticationStrategy,
	custom map[string]kubernetes.AuthenticationStrategy,
) *Resolver {
	strategies := component.MustNewNameBasedRegistry[kubernetes.AuthenticationStrategy, struct{}](
		&component.NameBasedRegistryOptions{AllowOverwriting: true},
	)
	// Map iteration order is random, so sort for deterministic registration.
	for _, set := range []map[string]kubernetes.AuthenticationStrategy{builtins, custom} {
		for _, key := range slices.Sorted(maps.Keys(set)) {
			if key == "" || set[key] == nil {
				continue
			}
			strategies.MustRegister(strategyRegistration{Name: key, Value: set[key]})
		}
	}
	return &Resolver{strategies: strategies}
}

// Keys returns the names of all known strategies in lexical order.
func (r *Resolver) Keys() []string {
	return r.strategies.Names()
}

// StrategyFor returns the strategy for the cluster.
func (r *Resolver) StrategyFor(
	cluster kubernetes.ClusterDetails,
) (kubernetes.AuthenticationStrategy, error) {
	key := cluster.AuthProvider()
	if key == "" {
		return nil, fmt.Errorf(
			"cluster %q does not specify %s", cluster.Name,
			kubernetes.AuthMetadataAuthProvider,
		)
	}
	reg, err := r.strategies.Get(key)
	if err != nil {
		return nil, fmt.Errorf(
			"cluster %q uses unknown auth provider %q", cluster.Name, key,
		)
	}
	return reg.Value, nil
}

// GetCredential obtains a credential for the cluster using its strategy.
func (r *Resolver) GetCredential(
	ctx context.Context,
	cluster kubernetes.ClusterDetails,
	auth kubernetes.RequestAuth,
) (kubernetes.Credential, error) {
	strategy, err := r.StrategyFor(cluster)
	if err != nil {
		return kubernetes.Credential{}, err
	}
	cred, err := strategy.GetCredential(ctx, cluster, auth)
	if err != nil {
		return kubernetes.Credential{}, fmt.Errorf(
			"error getting %s credential for cluster %q: %w",
			cluster.AuthProvider(), cluster.Name, err,
		)
	}
	return cred, nil
}

// ValidateCluster returns every problem with the cluster's auth metadata,
// including an unknown or missing auth provider.
func (r *Resolver) ValidateCluster(cluster kubernetes.ClusterDetails) []error {
	strategy, err := r.StrategyFor(cluster)
	if err != nil {
		return []error{err}
	}
	return strategy.ValidateCluster(cluster.AuthMetadata)
}

// PresentAuthMetadata returns the cluster's presentable auth metadata. The
// auth provider is always included.
func (r *Resolver) PresentAuthMetadata(
	cluster kubernetes.ClusterDetails,
) kubernetes.AuthMetadata {
	md := kubernetes.AuthMetadata{}
	if strategy, err := r.StrategyFor(cluster); err == nil {
		maps.Copy(md, strategy.PresentAuthMetadata(cluster.AuthMetadata))
	}
	if p := cluster.AuthProvider(); p != "" {
		md[kubernetes.AuthMetadataAuthProvider] = p
	}
	return md
}

var errMissingMetadata = errors.New("missing required auth metadata")
