package clusters

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/akuity/devportal/pkg/kubernetes"
)

const clustersCacheKey = "clusters"

type cachedSupplier struct {
	supplier kubernetes.ClustersSupplier
	cache    *cache.Cache
}

// NewCachedSupplier returns a supplier that remembers the clusters returned
// by supplier for ttl. Errors are never cached.
func NewCachedSupplier(
	supplier kubernetes.ClustersSupplier,
	ttl time.Duration,
) kubernetes.ClustersSupplier {
	return &cachedSupplier{
		supplier: supplier,
		cache:    cache.New(ttl, 2*ttl),
	}
}

func (c *cachedSupplier) GetClusters(
	ctx context.Context,
) ([]kubernetes.ClusterDetails, error) {
	if entry, exists := c.cache.Get(clustersCacheKey); exists {
		return slices.Clone(entry.([]kubernetes.ClusterDetails)), nil // nolint: forcetypeassert
	}
	clusters, err := c.supplier.GetClusters(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(clustersCacheKey, slices.Clone(clusters), cache.DefaultExpiration)
	return clusters, nil
}
