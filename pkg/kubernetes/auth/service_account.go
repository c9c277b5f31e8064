package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/akuity/devportal/pkg/kubernetes"
)

const inClusterTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

type serviceAccountStrategy struct {
	tokenPath string
}

// NewServiceAccountStrategy returns a strategy that authenticates with a
// service account token taken from the cluster's serviceAccountToken
// metadata or, failing that, from the token mounted into the pod the backend
// runs in. Without either, requests are anonymous.
func NewServiceAccountStrategy() kubernetes.AuthenticationStrategy {
	return &serviceAccountStrategy{tokenPath: inClusterTokenPath}
}

func (s *serviceAccountStrategy) GetCredential(
	_ context.Context,
	cluster kubernetes.ClusterDetails,
	_ kubernetes.RequestAuth,
) (kubernetes.Credential, error) {
	if token := cluster.AuthMetadata[kubernetes.AuthMetadataServiceAccount]; token != "" {
		return kubernetes.BearerTokenCredential(token), nil
	}
	tokenBytes, err := os.ReadFile(s.tokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return kubernetes.AnonymousCredential(), nil
		}
		return kubernetes.Credential{}, fmt.Errorf(
			"error reading service account token from %q: %w", s.tokenPath, err,
		)
	}
	return kubernetes.BearerTokenCredential(
		strings.TrimSpace(string(tokenBytes)),
	), nil
}

func (s *serviceAccountStrategy) ValidateCluster(map[string]string) []error {
	return nil
}

func (s *serviceAccountStrategy) PresentAuthMetadata(map[string]string) kubernetes.AuthMetadata {
	return kubernetes.AuthMetadata{}
}
