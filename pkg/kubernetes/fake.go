package kubernetes

import "context"

// FakeAuthenticationStrategy is an AuthenticationStrategy whose behavior is
// defined by function fields. It is used to facilitate testing.
type FakeAuthenticationStrategy struct {
	GetCredentialFn       func(context.Context, ClusterDetails, RequestAuth) (Credential, error)
	ValidateClusterFn     func(map[string]string) []error
	PresentAuthMetadataFn func(map[string]string) AuthMetadata
}

// GetCredential implements AuthenticationStrategy.
func (f *FakeAuthenticationStrategy) GetCredential(
	ctx context.Context,
	cluster ClusterDetails,
	auth RequestAuth,
) (Credential, error) {
	if f.GetCredentialFn == nil {
		return AnonymousCredential(), nil
	}
	return f.GetCredentialFn(ctx, cluster, auth)
}

// ValidateCluster implements AuthenticationStrategy.
func (f *FakeAuthenticationStrategy) ValidateCluster(md map[string]string) []error {
	if f.ValidateClusterFn == nil {
		return nil
	}
	return f.ValidateClusterFn(md)
}

// PresentAuthMetadata implements AuthenticationStrategy.
func (f *FakeAuthenticationStrategy) PresentAuthMetadata(md map[string]string) AuthMetadata {
	if f.PresentAuthMetadataFn == nil {
		return AuthMetadata{}
	}
	return f.PresentAuthMetadataFn(md)
}

// FakeObjectsProvider is an ObjectsProvider whose behavior is defined by
// function fields. It is used to facilitate testing.
type FakeObjectsProvider struct {
	GetKubernetesObjectsByEntityFn func(
		context.Context,
		ObjectsByEntityRequest,
	) (*ObjectsByEntityResponse, error)
	GetCustomResourcesByEntityFn func(
		context.Context,
		CustomResourcesByEntityRequest,
	) (*ObjectsByEntityResponse, error)
}

// GetKubernetesObjectsByEntity implements ObjectsProvider.
func (f *FakeObjectsProvider) GetKubernetesObjectsByEntity(
	ctx context.Context,
	req ObjectsByEntityRequest,
) (*ObjectsByEntityResponse, error) {
	if f.GetKubernetesObjectsByEntityFn == nil {
		return &ObjectsByEntityResponse{}, nil
	}
	return f.GetKubernetesObjectsByEntityFn(ctx, req)
}

// GetCustomResourcesByEntity implements ObjectsProvider.
func (f *FakeObjectsProvider) GetCustomResourcesByEntity(
	ctx context.Context,
	req CustomResourcesByEntityRequest,
) (*ObjectsByEntityResponse, error) {
	if f.GetCustomResourcesByEntityFn == nil {
		return &ObjectsByEntityResponse{}, nil
	}
	return f.GetCustomResourcesByEntityFn(ctx, req)
}
