package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/akuity/devportal/pkg/config"
	"github.com/akuity/devportal/pkg/gitprovider"
	"github.com/akuity/devportal/pkg/promotion"
	"github.com/akuity/devportal/pkg/release"
)

type promoteRCOptions struct {
	ConfigPath         string
	Owner              string
	Repo               string
	VersioningStrategy string
	GitHostURL         string
	ReleaseID          int64
	ReleaseVersion     string
	Username           string
	Email              string
	TagMessageTemplate string
	WebhookURL         string

	GitHubConfig config.GitHubConfig
	Out          io.Writer

	// The following behaviors are overridable for testing purposes:

	newProviderFn func(release.Project) (gitprovider.Interface, error)
}

func newPromoteRCCommand() *cobra.Command {
	cmdOpts := &promoteRCOptions{}

	cmd := &cobra.Command{
		Use:               "promote-rc OWNER/REPO",
		Short:             "Promote the latest release candidate of a repository to a release",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdOpts.complete(args[0]); err != nil {
				return err
			}
			cmdOpts.Out = cmd.OutOrStdout()

			return cmdOpts.run(cmd.Context())
		},
	}
	cmdOpts.addFlags(cmd.Flags())

	return cmd
}

func (o *promoteRCOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.ConfigPath, "config", "c", "", configFlagUsage)
	flags.StringVar(
		&o.VersioningStrategy,
		"versioning-strategy",
		"",
		"Versioning strategy of the project: semver or calver. Overrides the configuration file.",
	)
	flags.StringVar(&o.GitHostURL, "git-host-url", "", "Web URL of the Git host. Overrides the configuration file.")
	flags.Int64Var(&o.ReleaseID, "release-id", 0, "ID of the release to promote. Defaults to the latest release candidate.")
	flags.StringVar(
		&o.ReleaseVersion,
		"release-version",
		"",
		"Tag to promote the release to. Derived from the release candidate's tag by default.",
	)
	flags.StringVar(&o.Username, "username", "", "Name recorded as the tagger.")
	flags.StringVar(&o.Email, "email", "", "Email recorded as the tagger.")
	flags.StringVar(&o.TagMessageTemplate, "tag-message", "", "Template of the tag's message.")
	flags.StringVar(&o.WebhookURL, "webhook-url", "", "URL notified after a successful promotion.")
}

func (o *promoteRCOptions) complete(ownerRepo string) error {
	var ok bool
	if o.Owner, o.Repo, ok = cutOwnerRepo(ownerRepo); !ok {
		return fmt.Errorf("expected OWNER/REPO, got %q", ownerRepo)
	}
	o.GitHubConfig = config.GitHubConfigFromEnv()
	return nil
}

func cutOwnerRepo(s string) (string, string, bool) {
	owner, repo, ok := strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}

// resolve determines the project and the release manager configuration from
// the configuration file and the flags.
func (o *promoteRCOptions) resolve() (release.Project, config.ReleaseManagerConfig, error) {
	appCfg, err := loadAppConfig(o.ConfigPath)
	if err != nil {
		return release.Project{}, config.ReleaseManagerConfig{}, err
	}
	rmCfg := appCfg.ReleaseManager
	project, ok := rmCfg.Project(o.Owner, o.Repo)
	if !ok {
		project = release.Project{Owner: o.Owner, Repo: o.Repo}
	}
	if o.VersioningStrategy != "" {
		project.VersioningStrategy = release.VersioningStrategy(o.VersioningStrategy)
	}
	if project.VersioningStrategy == "" {
		return project, rmCfg, errors.New(
			"versioning strategy must be set with --versioning-strategy or in the configuration file",
		)
	}
	if o.GitHostURL != "" {
		rmCfg.GitHostURL = o.GitHostURL
	}
	if o.TagMessageTemplate != "" {
		rmCfg.TagMessageTemplate = o.TagMessageTemplate
	}
	if o.WebhookURL != "" {
		rmCfg.SuccessWebhookURL = o.WebhookURL
	}
	return project, rmCfg, nil
}

func (o *promoteRCOptions) run(ctx context.Context) error {
	project, rmCfg, err := o.resolve()
	if err != nil {
		return err
	}

	newProvider := o.newProviderFn
	if newProvider == nil {
		factory := newGitHubProviderFactory(rmCfg, o.GitHubConfig)
		newProvider = func(p release.Project) (gitprovider.Interface, error) {
			return factory(ctx, p)
		}
	}
	provider, err := newProvider(project)
	if err != nil {
		return fmt.Errorf("error creating Git provider: %w", err)
	}

	var rc *gitprovider.Release
	if o.ReleaseID != 0 {
		if rc, err = provider.GetRelease(ctx, o.ReleaseID); err != nil {
			return fmt.Errorf("error getting release %d: %w", o.ReleaseID, err)
		}
	} else {
		releases, err := provider.ListReleases(ctx)
		if err != nil {
			return fmt.Errorf("error listing releases: %w", err)
		}
		if rc, err = release.LatestReleaseCandidate(releases, project.VersioningStrategy); err != nil {
			return err
		}
	}

	var callback promotion.SuccessCallback
	if rmCfg.SuccessWebhookURL != "" {
		callback = promotion.NewWebhookCallback(rmCfg.SuccessWebhookURL)
	}

	promoter, err := promotion.NewRCPromoter(provider, promotion.Options{
		Project:            project,
		RCRelease:          *rc,
		ReleaseVersion:     o.ReleaseVersion,
		User:               promotion.User{Username: o.Username, Email: o.Email},
		SuccessCallback:    callback,
		TagMessageTemplate: rmCfg.TagMessageTemplate,
		Observer:           o.printStep,
	})
	if err != nil {
		return err
	}
	result, err := promoter.Run(ctx)
	if err != nil {
		return err
	}
	return result.Error
}

// printStep prints the most recent step of a run.
func (o *promoteRCOptions) printStep(r promotion.RunResult) {
	if len(r.ResponseSteps) == 0 {
		return
	}
	step := r.ResponseSteps[len(r.ResponseSteps)-1]
	marker := "✔"
	if step.Icon == promotion.IconFailure {
		marker = "✘"
	}
	_, _ = fmt.Fprintf(o.Out, "[%3d%%] %s %s", r.Progress, marker, step.Message)
	if step.SecondaryMessage != "" {
		_, _ = fmt.Fprintf(o.Out, " %s", step.SecondaryMessage)
	}
	if step.Link != "" {
		_, _ = fmt.Fprintf(o.Out, " (%s)", step.Link)
	}
	_, _ = fmt.Fprintln(o.Out)
}
