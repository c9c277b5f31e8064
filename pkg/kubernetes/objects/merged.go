package objects

import (
	"context"

	"github.com/akuity/devportal/pkg/kubernetes"
)

type mergedProvider struct {
	providers []kubernetes.ObjectsProvider
}

// NewMergedProvider returns an ObjectsProvider that queries each of providers
// in order and concatenates their items. The first error aborts the request.
func NewMergedProvider(providers ...kubernetes.ObjectsProvider) kubernetes.ObjectsProvider {
	if len(providers) == 1 {
		return providers[0]
	}
	return &mergedProvider{providers: providers}
}

func (m *mergedProvider) GetKubernetesObjectsByEntity(
	ctx context.Context,
	req kubernetes.ObjectsByEntityRequest,
) (*kubernetes.ObjectsByEntityResponse, error) {
	return m.merge(func(p kubernetes.ObjectsProvider) (*kubernetes.ObjectsByEntityResponse, error) {
		return p.GetKubernetesObjectsByEntity(ctx, req)
	})
}

func (m *mergedProvider) GetCustomResourcesByEntity(
	ctx context.Context,
	req kubernetes.CustomResourcesByEntityRequest,
) (*kubernetes.ObjectsByEntityResponse, error) {
	return m.merge(func(p kubernetes.ObjectsProvider) (*kubernetes.ObjectsByEntityResponse, error) {
		return p.GetCustomResourcesByEntity(ctx, req)
	})
}

func (m *mergedProvider) merge(
	call func(kubernetes.ObjectsProvider) (*kubernetes.ObjectsByEntityResponse, error),
) (*kubernetes.ObjectsByEntityResponse, error) {
	merged := &kubernetes.ObjectsByEntityResponse{
		Items: []kubernetes.ClusterObjects{},
	}
	for _, p := range m.providers {
		resp, err := call(p)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			merged.Items = append(merged.Items, resp.Items...)
		}
	}
	return merged, nil
}
