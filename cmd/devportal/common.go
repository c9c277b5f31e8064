package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/akuity/devportal/pkg/config"
	"github.com/akuity/devportal/pkg/gitprovider"
	_ "github.com/akuity/devportal/pkg/gitprovider/github"
	"github.com/akuity/devportal/pkg/kubernetes/backend"
	"github.com/akuity/devportal/pkg/plugin"
	"github.com/akuity/devportal/pkg/release"
	"github.com/akuity/devportal/pkg/server"
)

const configFlagUsage = "Path to the application configuration file. " +
	"Defaults to devportal/config.yaml in the XDG config directories."

// userConfigFile is the configuration file looked up in the XDG config
// directories when no path is given.
var userConfigFile = filepath.Join("devportal", "config.yaml")

// loadAppConfig loads the configuration file at path. An empty path falls
// back to devportal/config.yaml in the XDG config directories, and yields the
// zero configuration when no such file exists.
func loadAppConfig(path string) (config.AppConfig, error) {
	if path == "" {
		var err error
		if path, err = xdg.SearchConfigFile(userConfigFile); err != nil {
			return config.AppConfig{}, nil
		}
	}
	return config.LoadAppConfig(path)
}

// startKubernetesBackend starts a plugin backend hosting the Kubernetes
// plugin and returns the plugin's Service.
func startKubernetesBackend(
	ctx context.Context,
	cfg config.KubernetesConfig,
) (*backend.Service, error) {
	backendCfg, err := cfg.BackendConfig()
	if err != nil {
		return nil, fmt.Errorf("error configuring Kubernetes backend: %w", err)
	}
	kubernetesPlugin := backend.NewPlugin(backendCfg)
	host := plugin.NewBackend()
	if err = host.Add(kubernetesPlugin); err != nil {
		return nil, fmt.Errorf("error adding Kubernetes plugin: %w", err)
	}
	if err = host.Start(ctx); err != nil {
		return nil, fmt.Errorf("error starting plugin backend: %w", err)
	}
	return kubernetesPlugin.Service()
}

// newGitHubProviderFactory returns a function that creates GitHub providers
// for projects, using credentials from the environment.
func newGitHubProviderFactory(
	rmCfg config.ReleaseManagerConfig,
	ghCfg config.GitHubConfig,
) server.ProviderFactory {
	return func(_ context.Context, p release.Project) (gitprovider.Interface, error) {
		opts, err := ghCfg.ProviderOptions()
		if err != nil {
			return nil, err
		}
		return gitprovider.New(rmCfg.RepoURL(p), opts)
	}
}
