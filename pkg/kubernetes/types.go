package kubernetes

import (
	"context"
	"errors"
	"net/http"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Well-known keys of ClusterDetails.AuthMetadata.
const (
	AuthMetadataAuthProvider      = "kubernetes.io/auth-provider"
	AuthMetadataOIDCTokenProvider = "kubernetes.io/oidc-token-provider"
	AuthMetadataAWSAssumeRole     = "kubernetes.io/aws-assume-role"
	AuthMetadataAWSExternalID     = "kubernetes.io/aws-external-id"
	AuthMetadataAWSClusterID      = "kubernetes.io/x-k8s-aws-id"
	AuthMetadataServiceAccount    = "serviceAccountToken"
)

// EntityLabel is the label used to select an entity's objects when the
// request does not carry an explicit label selector.
const EntityLabel = "backstage.io/kubernetes-id"

// ClusterDetails describes a cluster that objects may be fetched from.
type ClusterDetails struct {
	// Name uniquely identifies the cluster.
	Name string `json:"name"`
	// Title is an optional human-friendly name.
	Title string `json:"title,omitempty"`
	// URL is the address of the cluster's API server.
	URL string `json:"url"`
	// AuthMetadata is opaque, strategy-specific auth configuration. The
	// AuthMetadataAuthProvider key selects the AuthenticationStrategy.
	AuthMetadata map[string]string `json:"authMetadata,omitempty"`
	// SkipTLSVerify disables verification of the API server's certificate.
	SkipTLSVerify bool `json:"skipTLSVerify,omitempty"`
	// SkipMetricsLookup excludes the cluster from metrics queries.
	SkipMetricsLookup bool `json:"skipMetricsLookup,omitempty"`
	// CAData is a base64 encoded PEM bundle used to verify the API server.
	CAData string `json:"caData,omitempty"`
	// CAFile is a path to a PEM bundle used to verify the API server.
	CAFile string `json:"caFile,omitempty"`
	// DashboardURL links to an external dashboard for the cluster.
	DashboardURL string `json:"dashboardUrl,omitempty"`
	// DashboardApp names the kind of dashboard at DashboardURL.
	DashboardApp string `json:"dashboardApp,omitempty"`
	// CustomResources are additional object types to fetch from this
	// cluster.
	CustomResources []CustomResourceMatcher `json:"customResources,omitempty"`
}

// AuthProvider returns the name of the strategy used to authenticate against
// the cluster.
func (c ClusterDetails) AuthProvider() string {
	return c.AuthMetadata[AuthMetadataAuthProvider]
}

// CustomResourceMatcher identifies a kind of object by group, version, and
// kind.
type CustomResourceMatcher struct {
	Group      string `json:"group"`
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
	// Plural names the resource in fetch responses, e.g. "rollouts".
	Plural string `json:"plural"`
}

// GroupVersionKind returns the matcher as a schema.GroupVersionKind.
func (m CustomResourceMatcher) GroupVersionKind() schema.GroupVersionKind {
	return schema.GroupVersionKind{
		Group:   m.Group,
		Version: m.APIVersion,
		Kind:    m.Kind,
	}
}

// CredentialType discriminates Credential.
type CredentialType string

const (
	CredentialTypeBearerToken CredentialType = "bearer token"
	CredentialTypeX509        CredentialType = "x509 client certificate"
	CredentialTypeAnonymous   CredentialType = "anonymous"
)

// Credential is what an AuthenticationStrategy produces for a cluster.
type Credential struct {
	Type CredentialType `json:"type"`
	// Token is set for CredentialTypeBearerToken.
	Token string `json:"-"`
	// Cert and Key are PEM data set for CredentialTypeX509.
	Cert string `json:"-"`
	Key  string `json:"-"`
}

// AnonymousCredential returns a Credential carrying no secret material.
func AnonymousCredential() Credential {
	return Credential{Type: CredentialTypeAnonymous}
}

// BearerTokenCredential returns a Credential carrying a bearer token.
func BearerTokenCredential(token string) Credential {
	return Credential{Type: CredentialTypeBearerToken, Token: token}
}

// RequestAuth is auth material that accompanies a single request, such as
// tokens the caller obtained from an OIDC provider.
type RequestAuth struct {
	// OIDC maps an OIDC token provider name to a token.
	OIDC map[string]string `json:"oidc,omitempty"`
}

// AuthMetadata is the presentable subset of a cluster's auth metadata.
type AuthMetadata map[string]string

// ClustersSupplier supplies the clusters known to the backend.
type ClustersSupplier interface {
	GetClusters(ctx context.Context) ([]ClusterDetails, error)
}

// ClustersSupplierFunc adapts a function to a ClustersSupplier.
type ClustersSupplierFunc func(context.Context) ([]ClusterDetails, error)

// GetClusters implements ClustersSupplier.
func (f ClustersSupplierFunc) GetClusters(ctx context.Context) ([]ClusterDetails, error) {
	return f(ctx)
}

// AuthenticationStrategy obtains credentials for clusters.
type AuthenticationStrategy interface {
	// GetCredential returns a credential for the cluster. RequestAuth may be
	// empty.
	GetCredential(ctx context.Context, cluster ClusterDetails, auth RequestAuth) (Credential, error)
	// ValidateCluster reports problems with the cluster's auth metadata.
	ValidateCluster(authMetadata map[string]string) []error
	// PresentAuthMetadata returns the subset of auth metadata that is safe to
	// expose to clients.
	PresentAuthMetadata(authMetadata map[string]string) AuthMetadata
}

// ObjectsByEntityRequest asks for the objects belonging to an entity.
type ObjectsByEntityRequest struct {
	// Entity is the name of the entity, matched against EntityLabel.
	Entity string `json:"entity"`
	// LabelSelector overrides the EntityLabel selector when non-empty.
	LabelSelector string `json:"labelSelector,omitempty"`
	// Namespace limits the lookup to one namespace when non-empty.
	Namespace string `json:"namespace,omitempty"`
	// Auth is request-scoped auth material.
	Auth RequestAuth `json:"auth,omitempty"`
}

// Selector returns the label selector for the request.
func (r ObjectsByEntityRequest) Selector() string {
	if r.LabelSelector != "" {
		return r.LabelSelector
	}
	return EntityLabel + "=" + r.Entity
}

// CustomResourcesByEntityRequest asks for specific custom resources belonging
// to an entity.
type CustomResourcesByEntityRequest struct {
	ObjectsByEntityRequest
	CustomResources []CustomResourceMatcher `json:"customResources"`
}

// ObjectsProvider fetches objects belonging to entities.
type ObjectsProvider interface {
	GetKubernetesObjectsByEntity(
		ctx context.Context,
		req ObjectsByEntityRequest,
	) (*ObjectsByEntityResponse, error)
	GetCustomResourcesByEntity(
		ctx context.Context,
		req CustomResourcesByEntityRequest,
	) (*ObjectsByEntityResponse, error)
}

// ObjectsByEntityResponse groups fetched objects by cluster.
type ObjectsByEntityResponse struct {
	Items []ClusterObjects `json:"items"`
}

// ClusterRef is the presentable identity of a cluster.
type ClusterRef struct {
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	DashboardURL string `json:"dashboardUrl,omitempty"`
	DashboardApp string `json:"dashboardApp,omitempty"`
}

// RefFor returns the presentable identity of a cluster.
func RefFor(c ClusterDetails) ClusterRef {
	return ClusterRef{
		Name:         c.Name,
		Title:        c.Title,
		DashboardURL: c.DashboardURL,
		DashboardApp: c.DashboardApp,
	}
}

// ClusterObjects holds the objects fetched from one cluster along with any
// errors encountered while fetching them.
type ClusterObjects struct {
	Cluster   ClusterRef      `json:"cluster"`
	Resources []FetchResponse `json:"resources"`
	Errors    []FetchError    `json:"errors"`
}

// FetchResponse holds the objects of a single type.
type FetchResponse struct {
	// Type is the plural resource name, e.g. "pods" or "deployments".
	Type      string                      `json:"type"`
	Resources []unstructured.Unstructured `json:"resources"`
}

// FetchErrorType classifies a FetchError.
type FetchErrorType string

const (
	FetchErrorBadRequest   FetchErrorType = "BAD_REQUEST"
	FetchErrorUnauthorized FetchErrorType = "UNAUTHORIZED_ERROR"
	FetchErrorNotFound     FetchErrorType = "NOT_FOUND"
	FetchErrorSystem       FetchErrorType = "SYSTEM_ERROR"
	FetchErrorUnknown      FetchErrorType = "UNKNOWN_ERROR"
)

// FetchError describes a failure to fetch some objects.
type FetchError struct {
	ErrorType    FetchErrorType `json:"errorType"`
	StatusCode   int            `json:"statusCode,omitempty"`
	ResourcePath string         `json:"resourcePath,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// NewFetchError classifies err, which is typically returned by a Kubernetes
// API call, as a FetchError.
func NewFetchError(resourcePath string, err error) FetchError {
	fe := FetchError{
		ErrorType:    FetchErrorUnknown,
		ResourcePath: resourcePath,
		Message:      err.Error(),
	}
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		fe.StatusCode = int(status.Status().Code)
	}
	switch {
	case apierrors.IsBadRequest(err):
		fe.ErrorType = FetchErrorBadRequest
	case apierrors.IsUnauthorized(err), apierrors.IsForbidden(err):
		fe.ErrorType = FetchErrorUnauthorized
	case apierrors.IsNotFound(err):
		fe.ErrorType = FetchErrorNotFound
	case fe.StatusCode >= http.StatusInternalServerError,
		apierrors.IsInternalError(err),
		apierrors.IsServiceUnavailable(err):
		fe.ErrorType = FetchErrorSystem
	}
	return fe
}
