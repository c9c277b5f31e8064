package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/akuity/devportal/pkg/kubernetes"
)

const googleCloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

type googleStrategy struct {
	tokenSourceFn func(context.Context) (oauth2.TokenSource, error)
}

// NewGoogleStrategy returns a strategy that authenticates to GKE clusters
// with an access token from Google application default credentials.
func NewGoogleStrategy() kubernetes.AuthenticationStrategy {
	return &googleStrategy{
		tokenSourceFn: func(ctx context.Context) (oauth2.TokenSource, error) {
			return google.DefaultTokenSource(ctx, googleCloudPlatformScope)
		},
	}
}

func (g *googleStrategy) GetCredential(
	ctx context.Context,
	_ kubernetes.ClusterDetails,
	_ kubernetes.RequestAuth,
) (kubernetes.Credential, error) {
	ts, err := g.tokenSourceFn(ctx)
	if err != nil {
		return kubernetes.Credential{}, fmt.Errorf(
			"error finding Google default credentials: %w", err,
		)
	}
	tok, err := ts.Token()
	if err != nil {
		return kubernetes.Credential{}, fmt.Errorf(
			"error obtaining Google access token: %w", err,
		)
	}
	return kubernetes.BearerTokenCredential(tok.AccessToken), nil
}

func (g *googleStrategy) ValidateCluster(map[string]string) []error {
	return nil
}

func (g *googleStrategy) PresentAuthMetadata(map[string]string) kubernetes.AuthMetadata {
	return kubernetes.AuthMetadata{}
}
