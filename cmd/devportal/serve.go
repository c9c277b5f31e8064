package main

import (
	"context"
	"fmt"
	"net"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/akuity/devportal/pkg/config"
	"github.com/akuity/devportal/pkg/logging"
	"github.com/akuity/devportal/pkg/server"
	versionpkg "github.com/akuity/devportal/pkg/x/version"
)

type serveOptions struct {
	ConfigPath string

	ServerConfig config.ServerConfig
	GitHubConfig config.GitHubConfig
}

func newServeCommand() *cobra.Command {
	cmdOpts := &serveOptions{}

	cmd := &cobra.Command{
		Use:               "serve",
		Short:             "Serve the Kubernetes and release manager APIs",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdOpts.complete()

			return cmdOpts.run(cmd.Context())
		},
	}
	cmdOpts.addFlags(cmd.Flags())

	return cmd
}

func (o *serveOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(
		&o.ConfigPath,
		"config",
		"c",
		"",
		configFlagUsage+" $CONFIG_PATH takes precedence over the XDG lookup.",
	)
}

func (o *serveOptions) complete() {
	o.ServerConfig = config.ServerConfigFromEnv()
	if o.ConfigPath == "" {
		o.ConfigPath = o.ServerConfig.ConfigPath
	}
	o.GitHubConfig = config.GitHubConfigFromEnv()
}

func (o *serveOptions) run(ctx context.Context) error {
	logger := logging.LoggerFromContext(ctx)

	version := versionpkg.GetVersion()
	logger.Info(
		"Starting developer portal server",
		"version", version.Version,
		"commit", version.GitCommit,
		"GOMAXPROCS", runtime.GOMAXPROCS(0),
	)

	appCfg, err := loadAppConfig(o.ConfigPath)
	if err != nil {
		return err
	}

	kubernetesService, err := startKubernetesBackend(ctx, appCfg.Kubernetes)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(o.ServerConfig, server.Options{
		Kubernetes: kubernetesService,
		ReleaseManager: server.NewReleaseManager(
			appCfg.ReleaseManager,
			newGitHubProviderFactory(appCfg.ReleaseManager, o.GitHubConfig),
		),
	})

	l, err := net.Listen("tcp", o.ServerConfig.Address())
	if err != nil {
		return fmt.Errorf("error creating listener: %w", err)
	}
	defer l.Close()

	if err = srv.Serve(ctx, l); err != nil {
		return fmt.Errorf("error serving API: %w", err)
	}
	return nil
}
