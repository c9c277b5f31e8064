package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/kubernetes/auth"
	"github.com/akuity/devportal/pkg/kubernetes/clusters"
	"github.com/akuity/devportal/pkg/kubernetes/objects"
	"github.com/akuity/devportal/pkg/logging"
	"github.com/akuity/devportal/pkg/plugin"
)

// PluginID is the id of the Kubernetes backend plugin.
const PluginID = "kubernetes"

// Config configures the Kubernetes backend plugin.
type Config struct {
	// Clusters are statically configured clusters.
	Clusters []kubernetes.ClusterDetails
	// Kubeconfig, when non-empty, is a path to a kubeconfig file whose
	// contexts are offered as clusters.
	Kubeconfig string
	// ClusterCacheTTL, when positive, caches the combined cluster list.
	ClusterCacheTTL time.Duration
	// Objects configures the default objects provider.
	Objects objects.FanOutProviderOptions
}

// Plugin is the Kubernetes backend plugin. It owns the
// kubernetes.objects-provider, kubernetes.cluster-supplier, and
// kubernetes.auth-strategy extension points.
type Plugin struct {
	cfg        Config
	extensions *kubernetes.Extensions

	mu      sync.RWMutex
	service *Service
}

// NewPlugin returns a Kubernetes backend plugin.
func NewPlugin(cfg Config) *Plugin {
	return &Plugin{
		cfg:        cfg,
		extensions: kubernetes.NewExtensions(),
	}
}

// ID implements plugin.Plugin.
func (p *Plugin) ID() string {
	return PluginID
}

// Register implements plugin.Plugin.
func (p *Plugin) Register(r *plugin.Registrar) error {
	if err := plugin.Provide[kubernetes.ObjectsProviderExtensionPoint](
		r, kubernetes.ObjectsProviderExtension, p.extensions,
	); err != nil {
		return err
	}
	if err := plugin.Provide[kubernetes.ClusterSupplierExtensionPoint](
		r, kubernetes.ClusterSupplierExtension, p.extensions,
	); err != nil {
		return err
	}
	return plugin.Provide[kubernetes.AuthStrategyExtensionPoint](
		r, kubernetes.AuthStrategyExtension, p.extensions,
	)
}

// Init implements plugin.Plugin. It closes the extension points and wires
// the Service from the configuration and everything registered.
func (p *Plugin) Init(ctx context.Context) error {
	logger := logging.LoggerFromContext(ctx).WithValues("plugin", PluginID)
	snapshot := p.extensions.Seal()

	suppliers := []kubernetes.ClustersSupplier{
		clusters.NewStaticSupplier(p.cfg.Clusters),
	}
	if p.cfg.Kubeconfig != "" {
		suppliers = append(suppliers, clusters.NewKubeconfigSupplier(p.cfg.Kubeconfig))
	}
	suppliers = append(suppliers, snapshot.ClusterSuppliers()...)
	var supplier kubernetes.ClustersSupplier = clusters.NewCombinedSupplier(suppliers...)
	if p.cfg.ClusterCacheTTL > 0 {
		supplier = clusters.NewCachedSupplier(supplier, p.cfg.ClusterCacheTTL)
	}

	resolver := auth.NewResolver(auth.Builtins(), snapshot.AuthStrategies())
	supplier = newValidatingSupplier(supplier, resolver)

	var provider kubernetes.ObjectsProvider
	if registered := snapshot.ObjectsProviders(); len(registered) > 0 {
		provider = objects.NewMergedProvider(registered...)
	} else {
		provider = objects.NewFanOutProvider(supplier, resolver, p.cfg.Objects)
	}

	logger.Debug(
		"kubernetes backend wired",
		"clusterSuppliers", len(suppliers),
		"authStrategies", resolver.Keys(),
		"objectsProviders", len(snapshot.ObjectsProviders()),
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.service = NewService(supplier, resolver, provider)
	return nil
}

// Service returns the Service built during Init.
func (p *Plugin) Service() (*Service, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.service == nil {
		return nil, errors.New("kubernetes plugin has not been initialized")
	}
	return p.service, nil
}

// validatingSupplier drops clusters whose auth metadata is invalid for their
// strategy.
type validatingSupplier struct {
	supplier kubernetes.ClustersSupplier
	resolver *auth.Resolver
}

func newValidatingSupplier(
	supplier kubernetes.ClustersSupplier,
	resolver *auth.Resolver,
) kubernetes.ClustersSupplier {
	return &validatingSupplier{supplier: supplier, resolver: resolver}
}

func (v *validatingSupplier) GetClusters(
	ctx context.Context,
) ([]kubernetes.ClusterDetails, error) {
	logger := logging.LoggerFromContext(ctx)
	all, err := v.supplier.GetClusters(ctx)
	if err != nil {
		return nil, err
	}
	valid := make([]kubernetes.ClusterDetails, 0, len(all))
	for _, cluster := range all {
		if errs := v.resolver.ValidateCluster(cluster); len(errs) > 0 {
			logger.Info(
				"ignoring invalid cluster",
				"cluster", cluster.Name,
				"error", fmt.Sprint(errors.Join(errs...)),
			)
			continue
		}
		valid = append(valid, cluster)
	}
	return valid, nil
}
