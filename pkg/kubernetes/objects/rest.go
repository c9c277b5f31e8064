package objects

import (
	"encoding/base64"
	"fmt"

	"k8s.io/client-go/rest"

	"github.com/akuity/devportal/pkg/kubernetes"
)

// RESTConfigFor returns a rest.Config for talking to cluster with cred.
func RESTConfigFor(
	cluster kubernetes.ClusterDetails,
	cred kubernetes.Credential,
) (*rest.Config, error) {
	cfg := &rest.Config{
		Host: cluster.URL,
		TLSClientConfig: rest.TLSClientConfig{
			Insecure: cluster.SkipTLSVerify,
		},
	}
	// client-go refuses a root CA alongside Insecure.
	if !cluster.SkipTLSVerify {
		cfg.CAFile = cluster.CAFile
		if cluster.CAData != "" {
			caData, err := base64.StdEncoding.DecodeString(cluster.CAData)
			if err != nil {
				return nil, fmt.Errorf(
					"error decoding CA data for cluster %q: %w", cluster.Name, err,
				)
			}
			cfg.CAData = caData
		}
	}
	switch cred.Type {
	case kubernetes.CredentialTypeBearerToken:
		cfg.BearerToken = cred.Token
	case kubernetes.CredentialTypeX509:
		cfg.CertData = []byte(cred.Cert)
		cfg.KeyData = []byte(cred.Key)
	case kubernetes.CredentialTypeAnonymous:
	default:
		return nil, fmt.Errorf("unsupported credential type %q", cred.Type)
	}
	return cfg, nil
}
