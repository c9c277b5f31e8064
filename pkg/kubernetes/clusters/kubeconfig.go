package clusters

import (
	"context"
	"encoding/base64"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/akuity/devportal/pkg/kubernetes"
	"github.com/akuity/devportal/pkg/kubernetes/auth"
	"github.com/akuity/devportal/pkg/logging"
)

type kubeconfigSupplier struct {
	path string
}

// NewKubeconfigSupplier returns a supplier that yields one cluster per
// context found in the kubeconfig file at path. The file is re-read on every
// call. Contexts whose users authenticate with exec plugins or auth provider
// plugins are skipped.
func NewKubeconfigSupplier(path string) kubernetes.ClustersSupplier {
	return &kubeconfigSupplier{path: path}
}

func (k *kubeconfigSupplier) GetClusters(
	ctx context.Context,
) ([]kubernetes.ClusterDetails, error) {
	logger := logging.LoggerFromContext(ctx).WithValues("kubeconfig", k.path)
	cfg, err := clientcmd.LoadFromFile(k.path)
	if err != nil {
		return nil, fmt.Errorf("error loading kubeconfig %q: %w", k.path, err)
	}
	clusters := make([]kubernetes.ClusterDetails, 0, len(cfg.Contexts))
	for _, name := range slices.Sorted(maps.Keys(cfg.Contexts)) {
		cluster, err := clusterFromContext(cfg, name)
		if err != nil {
			logger.Error(err, "skipping kubeconfig context", "context", name)
			continue
		}
		clusters = append(clusters, cluster)
	}
	return clusters, nil
}

func clusterFromContext(
	cfg *clientcmdapi.Config,
	contextName string,
) (kubernetes.ClusterDetails, error) {
	kubeCtx := cfg.Contexts[contextName]
	cluster, ok := cfg.Clusters[kubeCtx.Cluster]
	if !ok {
		return kubernetes.ClusterDetails{}, fmt.Errorf(
			"cluster %q not found", kubeCtx.Cluster,
		)
	}
	details := kubernetes.ClusterDetails{
		Name:          contextName,
		URL:           cluster.Server,
		SkipTLSVerify: cluster.InsecureSkipTLSVerify,
		CAFile:        cluster.CertificateAuthority,
	}
	if len(cluster.CertificateAuthorityData) > 0 {
		details.CAData = base64.StdEncoding.EncodeToString(
			cluster.CertificateAuthorityData,
		)
	}
	md, err := authMetadataFor(cfg.AuthInfos[kubeCtx.AuthInfo])
	if err != nil {
		return kubernetes.ClusterDetails{}, err
	}
	details.AuthMetadata = md
	return details, nil
}

func authMetadataFor(user *clientcmdapi.AuthInfo) (map[string]string, error) {
	if user == nil {
		return map[string]string{
			kubernetes.AuthMetadataAuthProvider: auth.LocalProxyKey,
		}, nil
	}
	switch {
	case user.Exec != nil:
		return nil, fmt.Errorf("exec plugin %q is not supported", user.Exec.Command)
	case user.AuthProvider != nil:
		return nil, fmt.Errorf(
			"auth provider plugin %q is not supported", user.AuthProvider.Name,
		)
	}

	token := user.Token
	if token == "" && user.TokenFile != "" {
		tokenBytes, err := os.ReadFile(user.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("error reading token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token != "" {
		return map[string]string{
			kubernetes.AuthMetadataAuthProvider:   auth.ServiceAccountKey,
			kubernetes.AuthMetadataServiceAccount: token,
		}, nil
	}

	cert, err := dataOrFile(user.ClientCertificateData, user.ClientCertificate)
	if err != nil {
		return nil, fmt.Errorf("error reading client certificate: %w", err)
	}
	key, err := dataOrFile(user.ClientKeyData, user.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("error reading client key: %w", err)
	}
	if len(cert) > 0 && len(key) > 0 {
		return map[string]string{
			kubernetes.AuthMetadataAuthProvider: auth.ClientCertificateKey,
			auth.ClientCertDataKey:              base64.StdEncoding.EncodeToString(cert),
			auth.ClientKeyDataKey:               base64.StdEncoding.EncodeToString(key),
		}, nil
	}

	return map[string]string{
		kubernetes.AuthMetadataAuthProvider: auth.LocalProxyKey,
	}, nil
}

func dataOrFile(data []byte, path string) ([]byte, error) {
	if len(data) > 0 || path == "" {
		return data, nil
	}
	return os.ReadFile(path)
}
