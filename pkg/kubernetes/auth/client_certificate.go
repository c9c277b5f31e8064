package auth

import (
	"context"
	"encoding/base64"
	"fmt"

	certutil "k8s.io/client-go/util/cert"
	"k8s.io/client-go/util/keyutil"

	"github.com/akuity/devportal/pkg/kubernetes"
)

// Metadata keys holding base64 encoded PEM client certificate material.
const (
	ClientCertDataKey = "kubernetes.io/client-cert-data"
	ClientKeyDataKey  = "kubernetes.io/client-key-data"
)

type clientCertificateStrategy struct{}

// NewClientCertificateStrategy returns a strategy that authenticates with an
// x509 client certificate carried in the cluster's metadata.
func NewClientCertificateStrategy() kubernetes.AuthenticationStrategy {
	return clientCertificateStrategy{}
}

func (clientCertificateStrategy) GetCredential(
	_ context.Context,
	cluster kubernetes.ClusterDetails,
	_ kubernetes.RequestAuth,
) (kubernetes.Credential, error) {
	certData, err := decodePEM(cluster.AuthMetadata, ClientCertDataKey)
	if err != nil {
		return kubernetes.Credential{}, err
	}
	keyData, err := decodePEM(cluster.AuthMetadata, ClientKeyDataKey)
	if err != nil {
		return kubernetes.Credential{}, err
	}
	return kubernetes.Credential{
		Type: kubernetes.CredentialTypeX509,
		Cert: certData,
		Key:  keyData,
	}, nil
}

// ValidateCluster requires a parseable PEM certificate and private key.
func (clientCertificateStrategy) ValidateCluster(md map[string]string) []error {
	var errs []error
	if certData, err := decodePEM(md, ClientCertDataKey); err != nil {
		errs = append(errs, err)
	} else if _, err = certutil.ParseCertsPEM([]byte(certData)); err != nil {
		errs = append(errs, fmt.Errorf("invalid %s: %w", ClientCertDataKey, err))
	}
	if keyData, err := decodePEM(md, ClientKeyDataKey); err != nil {
		errs = append(errs, err)
	} else if _, err = keyutil.ParsePrivateKeyPEM([]byte(keyData)); err != nil {
		errs = append(errs, fmt.Errorf("invalid %s: %w", ClientKeyDataKey, err))
	}
	return errs
}

func (clientCertificateStrategy) PresentAuthMetadata(map[string]string) kubernetes.AuthMetadata {
	return kubernetes.AuthMetadata{}
}

func decodePEM(md map[string]string, key string) (string, error) {
	encoded := md[key]
	if encoded == "" {
		return "", fmt.Errorf("%w: %s", errMissingMetadata, key)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("error decoding %s: %w", key, err)
	}
	return string(decoded), nil
}
