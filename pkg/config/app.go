package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/kubernetes/backend"
	"github.com/akuity/devportal/pkg/kubernetes/objects"
	"github.com/akuity/devportal/pkg/release"
)

//go:embed schemas/app-config.json
var appConfigSchema []byte

// DefaultGitHostURL is used when no Git host is configured.
const DefaultGitHostURL = "https://github.com"

// AppConfig is the application configuration file.
type AppConfig struct {
	Kubernetes     KubernetesConfig     `json:"kubernetes"`
	ReleaseManager ReleaseManagerConfig `json:"releaseManager"`
}

// KubernetesConfig configures the Kubernetes backend.
type KubernetesConfig struct {
	Clusters   []kubernetes.ClusterDetails `json:"clusters,omitempty"`
	Kubeconfig string                      `json:"kubeconfig,omitempty"`
	// ClusterCacheTTL is a Go duration, e.g. 5m. Clusters are not cached when
	// it is empty.
	ClusterCacheTTL string `json:"clusterCacheTTL,omitempty"`
	// ObjectTypes restricts the objects fetched for every entity. All default
	// object types are fetched when it is empty.
	ObjectTypes           []string                           `json:"objectTypes,omitempty"`
	CustomResources       []kubernetes.CustomResourceMatcher `json:"customResources,omitempty"`
	MaxConcurrentClusters int                                `json:"maxConcurrentClusters,omitempty"`
	RequestsPerSecond     int                                `json:"requestsPerSecond,omitempty"`
}

// ReleaseManagerConfig configures RC promotion.
type ReleaseManagerConfig struct {
	// GitHostURL is the web URL of the Git host, e.g. https://github.com or
	// the URL of a GitHub Enterprise instance.
	GitHostURL         string            `json:"gitHostURL,omitempty"`
	Projects           []release.Project `json:"projects,omitempty"`
	TagMessageTemplate string            `json:"tagMessageTemplate,omitempty"`
	SuccessWebhookURL  string            `json:"successWebhookURL,omitempty"`
}

// LoadAppConfig reads, validates, and parses the YAML or JSON file at path.
func LoadAppConfig(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("error reading config file %q: %w", path, err)
	}
	cfg, err := ParseAppConfig(data)
	if err != nil {
		return AppConfig{}, fmt.Errorf("error loading config file %q: %w", path, err)
	}
	return cfg, nil
}

// ParseAppConfig validates data against the configuration schema and parses
// it. Empty data yields the zero AppConfig.
func ParseAppConfig(data []byte) (AppConfig, error) {
	var cfg AppConfig
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return cfg, fmt.Errorf("error converting config to JSON: %w", err)
	}
	if string(jsonData) == "null" {
		return cfg, nil
	}
	if err = validate(jsonData); err != nil {
		return cfg, err
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, nil
}

func validate(jsonData []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(appConfigSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("could not validate config: %w", err)
	}
	if !result.Valid() {
		errs := make([]error, len(result.Errors()))
		for i, err := range result.Errors() {
			errs[i] = errors.New(err.String())
		}
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// BackendConfig converts the configuration into the Kubernetes backend's
// configuration.
func (k KubernetesConfig) BackendConfig() (backend.Config, error) {
	cfg := backend.Config{
		Clusters:   k.Clusters,
		Kubeconfig: k.Kubeconfig,
		Objects: objects.FanOutProviderOptions{
			MaxConcurrentClusters: k.MaxConcurrentClusters,
			RequestsPerSecond:     k.RequestsPerSecond,
		},
	}
	if k.ClusterCacheTTL != "" {
		ttl, err := time.ParseDuration(k.ClusterCacheTTL)
		if err != nil {
			return cfg, fmt.Errorf("error parsing clusterCacheTTL: %w", err)
		}
		cfg.ClusterCacheTTL = ttl
	}
	objs, err := objects.ObjectsFor(k.ObjectTypes, k.CustomResources)
	if err != nil {
		return cfg, err
	}
	cfg.Objects.Objects = objs
	return cfg, nil
}

// Project returns the configured project with the given owner and repo.
func (r ReleaseManagerConfig) Project(owner, repo string) (release.Project, bool) {
	for _, p := range r.Projects {
		if strings.EqualFold(p.Owner, owner) && strings.EqualFold(p.Repo, repo) {
			return p, true
		}
	}
	return release.Project{}, false
}

// RepoURL returns the web URL of a project's repository.
func (r ReleaseManagerConfig) RepoURL(p release.Project) string {
	host := r.GitHostURL
	if host == "" {
		host = DefaultGitHostURL
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(host, "/"), p.Owner, p.Repo)
}
