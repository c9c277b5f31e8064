package backend

import (
	"context"
	"fmt"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/kubernetes/auth"
)

// ClusterSummary is the presentable view of a cluster.
type ClusterSummary struct {
	Name         string                  `json:"name"`
	Title        string                  `json:"title,omitempty"`
	DashboardURL string                  `json:"dashboardUrl,omitempty"`
	DashboardApp string                  `json:"dashboardApp,omitempty"`
	AuthProvider string                  `json:"authProvider"`
	AuthMetadata kubernetes.AuthMetadata `json:"authMetadata"`
}

// Service answers the Kubernetes backend's queries.
type Service struct {
	clusters kubernetes.ClustersSupplier
	resolver *auth.Resolver
	objects  kubernetes.ObjectsProvider
}

// NewService returns a Service.
func NewService(
	clusters kubernetes.ClustersSupplier,
	resolver *auth.Resolver,
	objects kubernetes.ObjectsProvider,
) *Service {
	return &Service{
		clusters: clusters,
		resolver: resolver,
		objects:  objects,
	}
}

// ListClusters returns every known cluster. Only auth metadata the cluster's
// strategy deems presentable is included.
func (s *Service) ListClusters(ctx context.Context) ([]ClusterSummary, error) {
	clusters, err := s.clusters.GetClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing clusters: %w", err)
	}
	summaries := make([]ClusterSummary, len(clusters))
	for i, c := range clusters {
		summaries[i] = ClusterSummary{
			Name:         c.Name,
			Title:        c.Title,
			DashboardURL: c.DashboardURL,
			DashboardApp: c.DashboardApp,
			AuthProvider: c.AuthProvider(),
			AuthMetadata: s.resolver.PresentAuthMetadata(c),
		}
	}
	return summaries, nil
}

// GetObjectsByEntity returns the objects belonging to an entity across all
// clusters.
func (s *Service) GetObjectsByEntity(
	ctx context.Context,
	req kubernetes.ObjectsByEntityRequest,
) (*kubernetes.ObjectsByEntityResponse, error) {
	return s.objects.GetKubernetesObjectsByEntity(ctx, req)
}

// GetCustomResourcesByEntity returns the requested custom resources
// belonging to an entity across all clusters.
func (s *Service) GetCustomResourcesByEntity(
	ctx context.Context,
	req kubernetes.CustomResourcesByEntityRequest,
) (*kubernetes.ObjectsByEntityResponse, error) {
	return s.objects.GetCustomResourcesByEntity(ctx, req)
}
