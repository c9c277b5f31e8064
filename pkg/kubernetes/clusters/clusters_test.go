package clusters

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/kubernetes/auth"
)

func TestStaticSupplier(t *testing.T) {
	in := []kubernetes.ClusterDetails{{Name: "a"}, {Name: "b"}}
	s := NewStaticSupplier(in)
	in[0].Name = "mutated"
	out, err := s.GetClusters(context.Background())
	require.NoError(t, err)
	require.Equal(t, []kubernetes.ClusterDetails{{Name: "a"}, {Name: "b"}}, out)
}

func TestCombinedSupplier(t *testing.T) {
	testCases := []struct {
		name       string
		suppliers  []kubernetes.ClustersSupplier
		assertions func(*testing.T, []kubernetes.ClusterDetails, error)
	}{
		{
			name: "no suppliers",
			assertions: func(t *testing.T, clusters []kubernetes.ClusterDetails, err error) {
				require.NoError(t, err)
				require.Empty(t, clusters)
			},
		},
		{
			name: "first cluster with a name wins",
			suppliers: []kubernetes.ClustersSupplier{
				NewStaticSupplier([]kubernetes.ClusterDetails{
					{Name: "a", URL: "https://first"},
				}),
				NewStaticSupplier([]kubernetes.ClusterDetails{
					{Name: "b", URL: "https://second"},
					{Name: "a", URL: "https://second"},
				}),
			},
			assertions: func(t *testing.T, clusters []kubernetes.ClusterDetails, err error) {
				require.NoError(t, err)
				require.Equal(
					t,
					[]kubernetes.ClusterDetails{
						{Name: "a", URL: "https://first"},
						{Name: "b", URL: "https://second"},
					},
					clusters,
				)
			},
		},
		{
			name: "supplier error",
			suppliers: []kubernetes.ClustersSupplier{
				kubernetes.ClustersSupplierFunc(
					func(context.Context) ([]kubernetes.ClusterDetails, error) {
						return nil, errors.New("something went wrong")
					},
				),
			},
			assertions: func(t *testing.T, _ []kubernetes.ClusterDetails, err error) {
				require.ErrorContains(t, err, "error getting clusters from supplier 0")
				require.ErrorContains(t, err, "something went wrong")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			clusters, err := NewCombinedSupplier(testCase.suppliers...).
				GetClusters(context.Background())
			testCase.assertions(t, clusters, err)
		})
	}
}

func TestCachedSupplier(t *testing.T) {
	var calls int
	var failNext bool
	inner := kubernetes.ClustersSupplierFunc(
		func(context.Context) ([]kubernetes.ClusterDetails, error) {
			calls++
			if failNext {
				return nil, errors.New("something went wrong")
			}
			return []kubernetes.ClusterDetails{{Name: "a"}}, nil
		},
	)

	failNext = true
	s := NewCachedSupplier(inner, time.Hour)
	_, err := s.GetClusters(context.Background())
	require.Error(t, err)

	failNext = false
	for range 3 {
		clusters, err := s.GetClusters(context.Background())
		require.NoError(t, err)
		require.Equal(t, []kubernetes.ClusterDetails{{Name: "a"}}, clusters)
	}
	require.Equal(t, 2, calls)
}

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: prod
  cluster:
    server: https://prod.example.com
    certificate-authority-data: Y2EtcGVt
- name: local
  cluster:
    server: http://127.0.0.1:8001
    insecure-skip-tls-verify: true
users:
- name: token-user
  user:
    token: abc123
- name: cert-user
  user:
    client-certificate-data: Y2VydC1wZW0=
    client-key-data: a2V5LXBlbQ==
- name: exec-user
  user:
    exec:
      apiVersion: client.authentication.k8s.io/v1beta1
      command: aws
contexts:
- name: prod-token
  context:
    cluster: prod
    user: token-user
- name: prod-cert
  context:
    cluster: prod
    user: cert-user
- name: prod-exec
  context:
    cluster: prod
    user: exec-user
- name: local
  context:
    cluster: local
- name: dangling
  context:
    cluster: missing
    user: token-user
`

func TestKubeconfigSupplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

	clusters, err := NewKubeconfigSupplier(path).GetClusters(context.Background())
	require.NoError(t, err)
	require.Equal(
		t,
		[]kubernetes.ClusterDetails{
			{
				Name:          "local",
				URL:           "http://127.0.0.1:8001",
				SkipTLSVerify: true,
				AuthMetadata: map[string]string{
					kubernetes.AuthMetadataAuthProvider: auth.LocalProxyKey,
				},
			},
			{
				Name:   "prod-cert",
				URL:    "https://prod.example.com",
				CAData: base64.StdEncoding.EncodeToString([]byte("ca-pem")),
				AuthMetadata: map[string]string{
					kubernetes.AuthMetadataAuthProvider: auth.ClientCertificateKey,
					auth.ClientCertDataKey: base64.StdEncoding.EncodeToString(
						[]byte("cert-pem"),
					),
					auth.ClientKeyDataKey: base64.StdEncoding.EncodeToString(
						[]byte("key-pem"),
					),
				},
			},
			{
				Name:   "prod-token",
				URL:    "https://prod.example.com",
				CAData: base64.StdEncoding.EncodeToString([]byte("ca-pem")),
				AuthMetadata: map[string]string{
					kubernetes.AuthMetadataAuthProvider:   auth.ServiceAccountKey,
					kubernetes.AuthMetadataServiceAccount: "abc123",
				},
			},
		},
		clusters,
	)
}

func TestKubeconfigSupplierMissingFile(t *testing.T) {
	_, err := NewKubeconfigSupplier(
		filepath.Join(t.TempDir(), "missing"),
	).GetClusters(context.Background())
	require.ErrorContains(t, err, "error loading kubeconfig")
}
