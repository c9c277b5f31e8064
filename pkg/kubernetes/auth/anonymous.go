package auth

import (
	"context"

	"github.com/akuity/devportal/pkg/kubernetes"
)

type anonymousStrategy struct{}

// NewAnonymousStrategy returns a strategy that never supplies credentials.
// It suits clusters reached through `kubectl proxy`.
func NewAnonymousStrategy() kubernetes.AuthenticationStrategy {
	return anonymousStrategy{}
}

func (anonymousStrategy) GetCredential(
	context.Context,
	kubernetes.ClusterDetails,
	kubernetes.RequestAuth,
) (kubernetes.Credential, error) {
	return kubernetes.AnonymousCredential(), nil
}

func (anonymousStrategy) ValidateCluster(map[string]string) []error {
	return nil
}

func (anonymousStrategy) PresentAuthMetadata(map[string]string) kubernetes.AuthMetadata {
	return kubernetes.AuthMetadata{}
}
