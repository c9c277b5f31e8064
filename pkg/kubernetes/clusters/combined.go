package clusters

import (
	"context"
	"fmt"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/logging"
)

type combinedSupplier struct {
	suppliers []kubernetes.ClustersSupplier
}

// NewCombinedSupplier returns a supplier that concatenates the clusters of
// each of suppliers, in order. When two clusters share a name, the first one
// wins.
func NewCombinedSupplier(
	suppliers ...kubernetes.ClustersSupplier,
) kubernetes.ClustersSupplier {
	return &combinedSupplier{suppliers: suppliers}
}

func (c *combinedSupplier) GetClusters(
	ctx context.Context,
) ([]kubernetes.ClusterDetails, error) {
	logger := logging.LoggerFromContext(ctx)
	var clusters []kubernetes.ClusterDetails
	seen := map[string]struct{}{}
	for i, supplier := range c.suppliers {
		supplied, err := supplier.GetClusters(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting clusters from supplier %d: %w", i, err)
		}
		for _, cluster := range supplied {
			if _, dup := seen[cluster.Name]; dup {
				logger.Debug("ignoring duplicate cluster", "cluster", cluster.Name)
				continue
			}
			seen[cluster.Name] = struct{}{}
			clusters = append(clusters, cluster)
		}
	}
	return clusters, nil
}
