package objects

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/logging"
)

// CredentialResolver obtains credentials for clusters.
type CredentialResolver interface {
	GetCredential(
		ctx context.Context,
		cluster kubernetes.ClusterDetails,
		auth kubernetes.RequestAuth,
	) (kubernetes.Credential, error)
}

// FanOutProviderOptions configures a FanOutProvider.
type FanOutProviderOptions struct {
	// Objects are fetched for every entity. DefaultObjects is used when
	// empty.
	Objects []ObjectToFetch
	// MaxConcurrentClusters bounds how many clusters are queried at once.
	// Zero means no bound.
	MaxConcurrentClusters int
	// RequestsPerSecond bounds the rate of list calls across all clusters.
	// Zero means no bound.
	RequestsPerSecond int
	// ClientCacheSize is the number of cluster clients kept for reuse.
	// DefaultClientCacheSize is used when it is zero.
	ClientCacheSize int
}

// DefaultClientCacheSize is the default number of cached cluster clients.
const DefaultClientCacheSize = 128

type fanOutProvider struct {
	clusters    kubernetes.ClustersSupplier
	credentials CredentialResolver
	objects     []ObjectToFetch
	limiter     ratelimit.Limiter
	concurrency int
	// clients are keyed by a digest of everything used to build them.
	clients *lru.Cache[string, client.Client]

	// The following behaviors are overridable for testing purposes:

	newClientFn func(*rest.Config) (client.Client, error)
}

// NewFanOutProvider returns an ObjectsProvider that lists an entity's objects
// in every cluster supplied by clusters.
func NewFanOutProvider(
	clusters kubernetes.ClustersSupplier,
	credentials CredentialResolver,
	opts FanOutProviderOptions,
) kubernetes.ObjectsProvider {
	p := &fanOutProvider{
		clusters:    clusters,
		credentials: credentials,
		objects:     opts.Objects,
		limiter:     ratelimit.NewUnlimited(),
		concurrency: opts.MaxConcurrentClusters,
		newClientFn: func(cfg *rest.Config) (client.Client, error) {
			return client.New(cfg, client.Options{})
		},
	}
	if len(p.objects) == 0 {
		p.objects = DefaultObjects
	}
	if opts.RequestsPerSecond > 0 {
		p.limiter = ratelimit.New(opts.RequestsPerSecond)
	}
	size := opts.ClientCacheSize
	if size <= 0 {
		size = DefaultClientCacheSize
	}
	p.clients, _ = lru.New[string, client.Client](size) // Only errors on size <= 0
	return p
}

// GetKubernetesObjectsByEntity implements kubernetes.ObjectsProvider. Each
// cluster's own custom resources are fetched along with the configured
// objects.
func (p *fanOutProvider) GetKubernetesObjectsByEntity(
	ctx context.Context,
	req kubernetes.ObjectsByEntityRequest,
) (*kubernetes.ObjectsByEntityResponse, error) {
	return p.fetch(
		ctx,
		req,
		func(cluster kubernetes.ClusterDetails) []ObjectToFetch {
			objs := slices.Clone(p.objects)
			for _, m := range cluster.CustomResources {
				objs = append(objs, fromMatcher(m))
			}
			return objs
		},
	)
}

// GetCustomResourcesByEntity implements kubernetes.ObjectsProvider. Only the
// requested custom resources are fetched.
func (p *fanOutProvider) GetCustomResourcesByEntity(
	ctx context.Context,
	req kubernetes.CustomResourcesByEntityRequest,
) (*kubernetes.ObjectsByEntityResponse, error) {
	objs := make([]ObjectToFetch, len(req.CustomResources))
	for i, m := range req.CustomResources {
		objs[i] = fromMatcher(m)
	}
	return p.fetch(
		ctx,
		req.ObjectsByEntityRequest,
		func(kubernetes.ClusterDetails) []ObjectToFetch { return objs },
	)
}

func (p *fanOutProvider) fetch(
	ctx context.Context,
	req kubernetes.ObjectsByEntityRequest,
	objectsFor func(kubernetes.ClusterDetails) []ObjectToFetch,
) (*kubernetes.ObjectsByEntityResponse, error) {
	selector, err := labels.Parse(req.Selector())
	if err != nil {
		return nil, fmt.Errorf("error parsing label selector: %w", err)
	}
	clusters, err := p.clusters.GetClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting clusters: %w", err)
	}

	items := make([]kubernetes.ClusterObjects, len(clusters))
	g, ctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, cluster := range clusters {
		g.Go(func() error {
			items[i] = p.fetchFromCluster(
				ctx, cluster, req, selector, objectsFor(cluster),
			)
			return nil
		})
	}
	// Per-cluster failures are reported in the response, never returned.
	_ = g.Wait()
	return &kubernetes.ObjectsByEntityResponse{Items: items}, nil
}

func (p *fanOutProvider) fetchFromCluster(
	ctx context.Context,
	cluster kubernetes.ClusterDetails,
	req kubernetes.ObjectsByEntityRequest,
	selector labels.Selector,
	objs []ObjectToFetch,
) kubernetes.ClusterObjects {
	logger := logging.LoggerFromContext(ctx).WithValues(
		"cluster", cluster.Name,
		"entity", req.Entity,
	)
	result := kubernetes.ClusterObjects{
		Cluster:   kubernetes.RefFor(cluster),
		Resources: []kubernetes.FetchResponse{},
		Errors:    []kubernetes.FetchError{},
	}

	cl, err := p.clientFor(ctx, cluster, req.Auth)
	if err != nil {
		logger.Error(err, "")
		result.Errors = append(result.Errors, kubernetes.FetchError{
			ErrorType: kubernetes.FetchErrorUnauthorized,
			Message:   err.Error(),
		})
		return result
	}

	for _, obj := range objs {
		p.limiter.Take()
		list := &unstructured.UnstructuredList{}
		list.SetGroupVersionKind(obj.ListGroupVersionKind())
		listOpts := []client.ListOption{
			client.MatchingLabelsSelector{Selector: selector},
		}
		if req.Namespace != "" {
			listOpts = append(listOpts, client.InNamespace(req.Namespace))
		}
		if err = cl.List(ctx, list, listOpts...); err != nil {
			logger.Debug(
				"error listing objects",
				"type", obj.ObjectType,
				"error", err.Error(),
			)
			result.Errors = append(
				result.Errors,
				kubernetes.NewFetchError(obj.ResourcePath(req.Namespace), err),
			)
			continue
		}
		resources := list.Items
		if resources == nil {
			resources = []unstructured.Unstructured{}
		}
		result.Resources = append(result.Resources, kubernetes.FetchResponse{
			Type:      obj.ObjectType,
			Resources: resources,
		})
	}
	return result
}

func (p *fanOutProvider) clientFor(
	ctx context.Context,
	cluster kubernetes.ClusterDetails,
	auth kubernetes.RequestAuth,
) (client.Client, error) {
	cred, err := p.credentials.GetCredential(ctx, cluster, auth)
	if err != nil {
		return nil, err
	}
	key := clientCacheKey(cluster, cred)
	if cl, ok := p.clients.Get(key); ok {
		return cl, nil
	}
	cfg, err := RESTConfigFor(cluster, cred)
	if err != nil {
		return nil, err
	}
	cl, err := p.newClientFn(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating client for cluster %q: %w", cluster.Name, err)
	}
	p.clients.Add(key, cl)
	return cl, nil
}

func clientCacheKey(cluster kubernetes.ClusterDetails, cred kubernetes.Credential) string {
	h := sha256.New()
	for _, part := range []string{
		cluster.Name,
		cluster.URL,
		strconv.FormatBool(cluster.SkipTLSVerify),
		cluster.CAData,
		cluster.CAFile,
		string(cred.Type),
		cred.Token,
		cred.Cert,
		cred.Key,
	} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
