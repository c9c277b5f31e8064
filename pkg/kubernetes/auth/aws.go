package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/patrickmn/go-cache"

	"github.com/akuity/devportal/pkg/kubernetes"
)

const (
	eksTokenPrefix  = "k8s-aws-v1."
	clusterIDHeader = "x-k8s-aws-id"
)

type awsStrategy struct {
	tokenCache *cache.Cache

	// The following behaviors are overridable for testing purposes:

	loadConfigFn func(context.Context) (aws.Config, error)
	presignFn    func(ctx context.Context, cfg aws.Config, clusterID string) (string, error)
}

// NewAWSStrategy returns a strategy that mints EKS bearer tokens from the
// ambient AWS credentials, optionally assuming the role named by the
// cluster's aws-assume-role metadata first.
func NewAWSStrategy() kubernetes.AuthenticationStrategy {
	return &awsStrategy{
		tokenCache: cache.New(
			// EKS tokens are valid for 15 minutes.
			10*time.Minute,
			time.Hour,
		),
		loadConfigFn: func(ctx context.Context) (aws.Config, error) {
			return config.LoadDefaultConfig(ctx)
		},
		presignFn: presignGetCallerIdentity,
	}
}

func (a *awsStrategy) GetCredential(
	ctx context.Context,
	cluster kubernetes.ClusterDetails,
	_ kubernetes.RequestAuth,
) (kubernetes.Credential, error) {
	roleARN := cluster.AuthMetadata[kubernetes.AuthMetadataAWSAssumeRole]
	externalID := cluster.AuthMetadata[kubernetes.AuthMetadataAWSExternalID]
	clusterID := cluster.AuthMetadata[kubernetes.AuthMetadataAWSClusterID]
	if clusterID == "" {
		clusterID = cluster.Name
	}
	cacheKey := strings.Join([]string{roleARN, externalID, clusterID}, "\x00")
	if entry, exists := a.tokenCache.Get(cacheKey); exists {
		return kubernetes.BearerTokenCredential(entry.(string)), nil // nolint: forcetypeassert
	}

	cfg, err := a.loadConfigFn(ctx)
	if err != nil {
		return kubernetes.Credential{}, fmt.Errorf("error loading AWS config: %w", err)
	}
	if roleARN != "" {
		provider := stscreds.NewAssumeRoleProvider(
			sts.NewFromConfig(cfg),
			roleARN,
			func(o *stscreds.AssumeRoleOptions) {
				if externalID != "" {
					o.ExternalID = aws.String(externalID)
				}
			},
		)
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	url, err := a.presignFn(ctx, cfg, clusterID)
	if err != nil {
		return kubernetes.Credential{}, fmt.Errorf(
			"error presigning GetCallerIdentity request: %w", err,
		)
	}
	token := eksTokenPrefix + base64.RawURLEncoding.EncodeToString([]byte(url))
	a.tokenCache.Set(cacheKey, token, cache.DefaultExpiration)
	return kubernetes.BearerTokenCredential(token), nil
}

func (a *awsStrategy) ValidateCluster(map[string]string) []error {
	return nil
}

func (a *awsStrategy) PresentAuthMetadata(md map[string]string) kubernetes.AuthMetadata {
	out := kubernetes.AuthMetadata{}
	if id := md[kubernetes.AuthMetadataAWSClusterID]; id != "" {
		out[kubernetes.AuthMetadataAWSClusterID] = id
	}
	return out
}

func presignGetCallerIdentity(
	ctx context.Context,
	cfg aws.Config,
	clusterID string,
) (string, error) {
	client := sts.NewPresignClient(sts.NewFromConfig(cfg))
	req, err := client.PresignGetCallerIdentity(
		ctx,
		&sts.GetCallerIdentityInput{},
		func(po *sts.PresignOptions) {
			po.ClientOptions = append(po.ClientOptions, func(o *sts.Options) {
				o.APIOptions = append(
					o.APIOptions,
					smithyhttp.AddHeaderValue(clusterIDHeader, clusterID),
				)
			})
		},
	)
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
