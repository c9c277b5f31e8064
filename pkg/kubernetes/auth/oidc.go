package auth

import (
	"context"
	"fmt"

	"github.com/akuity/devportal/pkg/kubernetes"
)

type oidcStrategy struct{}

// NewOIDCStrategy returns a strategy that forwards a token the caller
// obtained from an OIDC provider. The cluster's oidc-token-provider metadata
// names which of the request's tokens to use.
func NewOIDCStrategy() kubernetes.AuthenticationStrategy {
	return oidcStrategy{}
}

func (oidcStrategy) GetCredential(
	_ context.Context,
	cluster kubernetes.ClusterDetails,
	auth kubernetes.RequestAuth,
) (kubernetes.Credential, error) {
	provider := cluster.AuthMetadata[kubernetes.AuthMetadataOIDCTokenProvider]
	if provider == "" {
		return kubernetes.Credential{}, fmt.Errorf(
			"%w: %s", errMissingMetadata, kubernetes.AuthMetadataOIDCTokenProvider,
		)
	}
	token := auth.OIDC[provider]
	if token == "" {
		return kubernetes.Credential{}, fmt.Errorf(
			"auth token not found under oidc.%s in request", provider,
		)
	}
	return kubernetes.BearerTokenCredential(token), nil
}

func (oidcStrategy) ValidateCluster(md map[string]string) []error {
	if md[kubernetes.AuthMetadataOIDCTokenProvider] == "" {
		return []error{fmt.Errorf(
			"%w: oidc strategy requires %s",
			errMissingMetadata, kubernetes.AuthMetadataOIDCTokenProvider,
		)}
	}
	return nil
}

func (oidcStrategy) PresentAuthMetadata(md map[string]string) kubernetes.AuthMetadata {
	return kubernetes.AuthMetadata{
		kubernetes.AuthMetadataOIDCTokenProvider: md[kubernetes.AuthMetadataOIDCTokenProvider],
	}
}
