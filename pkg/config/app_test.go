package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/release"
)

const testAppConfig = `
kubernetes:
  kubeconfig: /home/me/.kube/config
  clusterCacheTTL: 5m
  objectTypes:
  - pods
  - deployments
  customResources:
  - group: argoproj.io
    apiVersion: v1alpha1
    kind: Rollout
    plural: rollouts
  maxConcurrentClusters: 4
  clusters:
  - name: prod
    url: https://prod.example.com
    authMetadata:
      kubernetes.io/auth-provider: aws
      kubernetes.io/aws-assume-role: arn:aws:iam::123456789012:role/viewer
    dashboardUrl: https://dashboard.example.com
releaseManager:
  gitHostURL: https://github.example.com/
  tagMessageTemplate: "{{version}}"
  projects:
  - owner: akuity
    repo: devportal
    versioningStrategy: calver
`

func TestParseAppConfig(t *testing.T) {
	testCases := []struct {
		name       string
		data       string
		assertions func(*testing.T, AppConfig, error)
	}{
		{
			name: "empty",
			data: "",
			assertions: func(t *testing.T, cfg AppConfig, err error) {
				require.NoError(t, err)
				require.Equal(t, AppConfig{}, cfg)
			},
		},
		{
			name: "valid",
			data: testAppConfig,
			assertions: func(t *testing.T, cfg AppConfig, err error) {
				require.NoError(t, err)
				require.Equal(t, "5m", cfg.Kubernetes.ClusterCacheTTL)
				require.Equal(t, []string{"pods", "deployments"}, cfg.Kubernetes.ObjectTypes)
				require.Len(t, cfg.Kubernetes.Clusters, 1)
				require.Equal(
					t,
					kubernetes.ClusterDetails{
						Name: "prod",
						URL:  "https://prod.example.com",
						AuthMetadata: map[string]string{
							"kubernetes.io/auth-provider":   "aws",
							"kubernetes.io/aws-assume-role": "arn:aws:iam::123456789012:role/viewer",
						},
						DashboardURL: "https://dashboard.example.com",
					},
					cfg.Kubernetes.Clusters[0],
				)
				require.Equal(
					t,
					[]release.Project{{
						Owner:              "akuity",
						Repo:               "devportal",
						VersioningStrategy: release.CalVer,
					}},
					cfg.ReleaseManager.Projects,
				)
			},
		},
		{
			name: "not yaml",
			data: "kubernetes: [",
			assertions: func(t *testing.T, _ AppConfig, err error) {
				require.ErrorContains(t, err, "error converting config to JSON")
			},
		},
		{
			name: "unknown field",
			data: "kubernetes:\n  kubeconfigs: /tmp/config\n",
			assertions: func(t *testing.T, _ AppConfig, err error) {
				require.ErrorContains(t, err, "invalid config")
				require.ErrorContains(t, err, "kubeconfigs")
			},
		},
		{
			name: "cluster without url",
			data: "kubernetes:\n  clusters:\n  - name: prod\n",
			assertions: func(t *testing.T, _ AppConfig, err error) {
				require.ErrorContains(t, err, "url is required")
			},
		},
		{
			name: "bad versioning strategy",
			data: "releaseManager:\n  projects:\n  - owner: o\n    repo: r\n    versioningStrategy: romver\n",
			assertions: func(t *testing.T, _ AppConfig, err error) {
				require.ErrorContains(t, err, "invalid config")
				require.ErrorContains(t, err, "versioningStrategy")
			},
		},
		{
			name: "bad duration",
			data: "kubernetes:\n  clusterCacheTTL: five minutes\n",
			assertions: func(t *testing.T, _ AppConfig, err error) {
				require.ErrorContains(t, err, "clusterCacheTTL")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg, err := ParseAppConfig([]byte(testCase.data))
			testCase.assertions(t, cfg, err)
		})
	}
}

func TestLoadAppConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testAppConfig), 0o600))
	cfg, err := LoadAppConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/home/me/.kube/config", cfg.Kubernetes.Kubeconfig)

	_, err = LoadAppConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "error reading config file")
}

func TestKubernetesConfigBackendConfig(t *testing.T) {
	cfg, err := ParseAppConfig([]byte(testAppConfig))
	require.NoError(t, err)

	backendCfg, err := cfg.Kubernetes.BackendConfig()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, backendCfg.ClusterCacheTTL)
	require.Equal(t, "/home/me/.kube/config", backendCfg.Kubeconfig)
	require.Equal(t, 4, backendCfg.Objects.MaxConcurrentClusters)
	require.Len(t, backendCfg.Objects.Objects, 3)
	require.Equal(t, "rollouts", backendCfg.Objects.Objects[2].ObjectType)

	_, err = KubernetesConfig{ObjectTypes: []string{"widgets"}}.BackendConfig()
	require.ErrorContains(t, err, "unknown object type")
}

func TestReleaseManagerConfig(t *testing.T) {
	cfg, err := ParseAppConfig([]byte(testAppConfig))
	require.NoError(t, err)

	p, ok := cfg.ReleaseManager.Project("Akuity", "DevPortal")
	require.True(t, ok)
	require.Equal(t, release.CalVer, p.VersioningStrategy)
	require.Equal(
		t,
		"https://github.example.com/akuity/devportal",
		cfg.ReleaseManager.RepoURL(p),
	)

	_, ok = cfg.ReleaseManager.Project("akuity", "other")
	require.False(t, ok)

	require.Equal(
		t,
		"https://github.com/o/r",
		ReleaseManagerConfig{}.RepoURL(release.Project{Owner: "o", Repo: "r"}),
	)
}
