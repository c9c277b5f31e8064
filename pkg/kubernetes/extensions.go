package kubernetes

import "github.com/akuity/devportal/pkg/plugin"

// Stable ids of the Kubernetes plugin's extension points.
const (
	ObjectsProviderExtensionPointID = "kubernetes.objects-provider"
	ClusterSupplierExtensionPointID = "kubernetes.cluster-supplier"
	AuthStrategyExtensionPointID    = "kubernetes.auth-strategy"
)

// ObjectsProviderExtensionPoint lets modules contribute ObjectsProviders.
type ObjectsProviderExtensionPoint interface {
	AddObjectsProvider(ObjectsProvider) error
}

// ClusterSupplierExtensionPoint lets modules contribute ClustersSuppliers.
type ClusterSupplierExtensionPoint interface {
	AddClusterSupplier(ClustersSupplier) error
}

// AuthStrategyExtensionPoint lets modules contribute AuthenticationStrategies
// under a key. Clusters select a strategy by setting the
// AuthMetadataAuthProvider metadata key to that key.
type AuthStrategyExtensionPoint interface {
	AddAuthStrategy(key string, strategy AuthenticationStrategy) error
}

var (
	// ObjectsProviderExtension is the extension point for configuring how
	// objects are fetched.
	ObjectsProviderExtension = plugin.NewExtensionPoint[ObjectsProviderExtensionPoint](
		ObjectsProviderExtensionPointID,
	)
	// ClusterSupplierExtension is the extension point for configuring where
	// clusters come from.
	ClusterSupplierExtension = plugin.NewExtensionPoint[ClusterSupplierExtensionPoint](
		ClusterSupplierExtensionPointID,
	)
	// AuthStrategyExtension is the extension point for adding authentication
	// strategies.
	AuthStrategyExtension = plugin.NewExtensionPoint[AuthStrategyExtensionPoint](
		AuthStrategyExtensionPointID,
	)
)
