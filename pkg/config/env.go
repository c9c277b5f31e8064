package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/akuity/devportal/pkg/gitprovider"
	"github.com/akuity/devportal/pkg/gitprovider/github"
)

// ServerConfig represents configuration for the HTTP server.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"7007"`
	// ConfigPath is the path of the application configuration file.
	ConfigPath              string        `envconfig:"CONFIG_PATH"`
	GracefulShutdownTimeout time.Duration `envconfig:"GRACEFUL_SHUTDOWN_TIMEOUT" default:"30s"`
	// PermissiveCORSPolicyEnabled allows cross-origin requests from any
	// origin. It is useful during local development.
	PermissiveCORSPolicyEnabled bool       `envconfig:"PERMISSIVE_CORS_POLICY_ENABLED" default:"false"`
	TLSEnabled                  bool       `envconfig:"TLS_ENABLED" default:"false"`
	TLSConfig                   *TLSConfig `ignored:"true"`
}

// TLSConfig locates the server's certificate and key.
type TLSConfig struct {
	CertPath string `envconfig:"TLS_CERT_PATH" required:"true"`
	KeyPath  string `envconfig:"TLS_KEY_PATH" required:"true"`
}

// ServerConfigFromEnv returns a ServerConfig populated from environment
// variables. It panics if the environment is invalid.
func ServerConfigFromEnv() ServerConfig {
	cfg := ServerConfig{}
	envconfig.MustProcess("", &cfg)
	if cfg.TLSEnabled {
		tlsCfg := TLSConfig{}
		envconfig.MustProcess("", &tlsCfg)
		cfg.TLSConfig = &tlsCfg
	}
	return cfg
}

// Address returns the address the server listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// GitHubConfig represents the credentials used to manage releases on GitHub.
// App credentials take precedence over Token.
type GitHubConfig struct {
	Token                 string `envconfig:"GITHUB_TOKEN"`
	AppID                 int64  `envconfig:"GITHUB_APP_ID"`
	AppInstallationID     int64  `envconfig:"GITHUB_APP_INSTALLATION_ID"`
	AppPrivateKey         string `envconfig:"GITHUB_APP_PRIVATE_KEY"`
	AppPrivateKeyPath     string `envconfig:"GITHUB_APP_PRIVATE_KEY_PATH"`
	InsecureSkipTLSVerify bool   `envconfig:"GITHUB_INSECURE_SKIP_TLS_VERIFY" default:"false"`
}

// GitHubConfigFromEnv returns a GitHubConfig populated from environment
// variables. It panics if the environment is invalid.
func GitHubConfigFromEnv() GitHubConfig {
	cfg := GitHubConfig{}
	envconfig.MustProcess("", &cfg)
	return cfg
}

// ProviderOptions converts the configuration into options for a Git provider.
func (g GitHubConfig) ProviderOptions() (*gitprovider.Options, error) {
	opts := &gitprovider.Options{
		Name:                  github.ProviderName,
		Token:                 g.Token,
		InsecureSkipTLSVerify: g.InsecureSkipTLSVerify,
	}
	if g.AppID == 0 {
		if g.Token == "" {
			return nil, fmt.Errorf("either GITHUB_TOKEN or GITHUB_APP_ID must be set")
		}
		return opts, nil
	}
	if g.AppInstallationID == 0 {
		return nil, fmt.Errorf("GITHUB_APP_INSTALLATION_ID must be set when GITHUB_APP_ID is set")
	}
	key := []byte(g.AppPrivateKey)
	if len(key) == 0 && g.AppPrivateKeyPath != "" {
		var err error
		if key, err = os.ReadFile(g.AppPrivateKeyPath); err != nil {
			return nil, fmt.Errorf("error reading GitHub App private key: %w", err)
		}
	}
	if len(key) == 0 {
		return nil, fmt.Errorf(
			"GITHUB_APP_PRIVATE_KEY or GITHUB_APP_PRIVATE_KEY_PATH must be set when GITHUB_APP_ID is set",
		)
	}
	opts.App = &gitprovider.AppOptions{
		ID:             g.AppID,
		InstallationID: g.AppInstallationID,
		PrivateKey:     key,
	}
	return opts, nil
}
