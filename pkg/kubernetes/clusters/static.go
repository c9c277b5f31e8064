package clusters

import (
	"context"
	"slices"

	"github.com/akuity/devportal/pkg/kubernetes"
)

type staticSupplier struct {
	clusters []kubernetes.ClusterDetails
}

// NewStaticSupplier returns a supplier of a fixed set of clusters, typically
// those listed in configuration.
func NewStaticSupplier(clusters []kubernetes.ClusterDetails) kubernetes.ClustersSupplier {
	return &staticSupplier{clusters: slices.Clone(clusters)}
}

func (s *staticSupplier) GetClusters(context.Context) ([]kubernetes.ClusterDetails, error) {
	return slices.Clone(s.clusters), nil
}
