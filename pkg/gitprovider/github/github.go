package github

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v74/github"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/jferrl/go-githubauth"
	"golang.org/x/oauth2"
	"k8s.io/utils/ptr"

	"github.com/akuity/devportal/pkg/gitprovider"
	"github.com/akuity/devportal/pkg/urls"
)

const (
	ProviderName = "github"

	githubHost = "github.com"

	// maxBranchRedirects is the number of redirects followed when a branch
	// has been renamed.
	maxBranchRedirects = 3

	releasesPerPage = 100
)

var registration = gitprovider.Registration{
	Predicate: func(repoURL string) bool {
		repo, err := urls.ParseGitRepo(repoURL)
		if err != nil {
			return false
		}
		// We assume that any hostname with the word "github" in it can use
		// this provider. GitHub Enterprise hosts without it need
		// Options.Name.
		return strings.Contains(repo.Host, ProviderName)
	},
	NewProvider: func(
		repoURL string,
		opts *gitprovider.Options,
	) (gitprovider.Interface, error) {
		return NewProvider(repoURL, opts)
	},
}

func init() {
	gitprovider.Register(ProviderName, registration)
}

// client is the subset of the GitHub API used by provider.
type client interface {
	GetBranch(
		ctx context.Context,
		owner string,
		repo string,
		branch string,
		maxRedirects int,
	) (*github.Branch, *github.Response, error)

	CreateTag(
		ctx context.Context,
		owner string,
		repo string,
		tag *github.Tag,
	) (*github.Tag, *github.Response, error)

	CreateRef(
		ctx context.Context,
		owner string,
		repo string,
		ref *github.Reference,
	) (*github.Reference, *github.Response, error)

	GetRelease(
		ctx context.Context,
		owner string,
		repo string,
		id int64,
	) (*github.RepositoryRelease, *github.Response, error)

	ListReleases(
		ctx context.Context,
		owner string,
		repo string,
		opts *github.ListOptions,
	) ([]*github.RepositoryRelease, *github.Response, error)

	EditRelease(
		ctx context.Context,
		owner string,
		repo string,
		id int64,
		release *github.RepositoryRelease,
	) (*github.RepositoryRelease, *github.Response, error)
}

// clientWrapper adapts a *github.Client to the client interface.
type clientWrapper struct {
	client *github.Client
}

func (w clientWrapper) GetBranch(
	ctx context.Context,
	owner string,
	repo string,
	branch string,
	maxRedirects int,
) (*github.Branch, *github.Response, error) {
	return w.client.Repositories.GetBranch(ctx, owner, repo, branch, maxRedirects)
}

func (w clientWrapper) CreateTag(
	ctx context.Context,
	owner string,
	repo string,
	tag *github.Tag,
) (*github.Tag, *github.Response, error) {
	return w.client.Git.CreateTag(ctx, owner, repo, tag)
}

func (w clientWrapper) CreateRef(
	ctx context.Context,
	owner string,
	repo string,
	ref *github.Reference,
) (*github.Reference, *github.Response, error) {
	return w.client.Git.CreateRef(ctx, owner, repo, ref)
}

func (w clientWrapper) GetRelease(
	ctx context.Context,
	owner string,
	repo string,
	id int64,
) (*github.RepositoryRelease, *github.Response, error) {
	return w.client.Repositories.GetRelease(ctx, owner, repo, id)
}

func (w clientWrapper) ListReleases(
	ctx context.Context,
	owner string,
	repo string,
	opts *github.ListOptions,
) ([]*github.RepositoryRelease, *github.Response, error) {
	return w.client.Repositories.ListReleases(ctx, owner, repo, opts)
}

func (w clientWrapper) EditRelease(
	ctx context.Context,
	owner string,
	repo string,
	id int64,
	release *github.RepositoryRelease,
) (*github.RepositoryRelease, *github.Response, error) {
	return w.client.Repositories.EditRelease(ctx, owner, repo, id, release)
}

// provider is a GitHub-based implementation of gitprovider.Interface.
type provider struct {
	owner  string
	repo   string
	client client
}

// NewProvider returns a GitHub-based implementation of gitprovider.Interface.
func NewProvider(
	repoURL string,
	opts *gitprovider.Options,
) (gitprovider.Interface, error) {
	if opts == nil {
		opts = &gitprovider.Options{}
	}
	repo, err := urls.ParseGitRepo(repoURL)
	if err != nil {
		return nil, err
	}

	httpClient := cleanhttp.DefaultPooledClient()
	if opts.InsecureSkipTLSVerify {
		transport := httpClient.Transport.(*http.Transport) // nolint: forcetypeassert
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, // nolint: gosec
		}
	}

	var baseURL string
	if repo.Host != githubHost {
		baseURL = fmt.Sprintf("%s://%s", repo.Scheme, repo.Host)
	}

	if opts.App != nil {
		if httpClient, err = appClient(httpClient, opts.App, baseURL); err != nil {
			return nil, err
		}
	}

	ghClient := github.NewClient(httpClient)
	if baseURL != "" {
		// This call adds the correct API paths to the base URL.
		if ghClient, err = ghClient.WithEnterpriseURLs(baseURL, baseURL); err != nil {
			return nil, err
		}
	}
	if opts.App == nil && opts.Token != "" {
		ghClient = ghClient.WithAuthToken(opts.Token)
	}

	return &provider{
		owner:  repo.Owner,
		repo:   repo.Name,
		client: clientWrapper{ghClient},
	}, nil
}

// appClient returns an HTTP client that authenticates as a GitHub App
// installation.
func appClient(
	base *http.Client,
	app *gitprovider.AppOptions,
	baseURL string,
) (*http.Client, error) {
	appTokenSource, err := githubauth.NewApplicationTokenSource(app.ID, app.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("error creating application token source: %w", err)
	}
	installationOpts := []githubauth.InstallationTokenSourceOpt{
		githubauth.WithHTTPClient(base),
	}
	if baseURL != "" {
		installationOpts = append(
			installationOpts,
			githubauth.WithEnterpriseURLs(baseURL, baseURL),
		)
	}
	installationTokenSource := githubauth.NewInstallationTokenSource(
		app.InstallationID,
		appTokenSource,
		installationOpts...,
	)
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, installationTokenSource), nil
}

// GetLatestCommit implements gitprovider.Interface.
func (p *provider) GetLatestCommit(
	ctx context.Context,
	branch string,
) (*gitprovider.Commit, error) {
	ghBranch, _, err := p.client.GetBranch(ctx, p.owner, p.repo, branch, maxBranchRedirects)
	if err != nil {
		return nil, err
	}
	if ghBranch == nil || ghBranch.Commit == nil {
		return nil, fmt.Errorf("branch %q has no commits", branch)
	}
	return &gitprovider.Commit{
		SHA: ptr.Deref(ghBranch.Commit.SHA, ""),
		URL: ptr.Deref(ghBranch.Commit.HTMLURL, ""),
	}, nil
}

// CreateTagObject implements gitprovider.Interface.
func (p *provider) CreateTagObject(
	ctx context.Context,
	opts *gitprovider.CreateTagObjectOpts,
) (*gitprovider.TagObject, error) {
	tag := &github.Tag{
		Tag:     github.Ptr(opts.Tag),
		Message: github.Ptr(opts.Message),
		Object: &github.GitObject{
			Type: github.Ptr("commit"),
			SHA:  github.Ptr(opts.SHA),
		},
	}
	if opts.Tagger != nil {
		tag.Tagger = &github.CommitAuthor{
			Name:  github.Ptr(opts.Tagger.Name),
			Email: github.Ptr(opts.Tagger.Email),
			Date:  &github.Timestamp{Time: opts.Tagger.Date},
		}
	}
	ghTag, _, err := p.client.CreateTag(ctx, p.owner, p.repo, tag)
	if err != nil {
		return nil, err
	}
	return &gitprovider.TagObject{
		SHA: ptr.Deref(ghTag.SHA, ""),
		Tag: ptr.Deref(ghTag.Tag, opts.Tag),
	}, nil
}

// CreateRef implements gitprovider.Interface.
func (p *provider) CreateRef(
	ctx context.Context,
	ref string,
	sha string,
) (*gitprovider.Reference, error) {
	ghRef, _, err := p.client.CreateRef(
		ctx,
		p.owner,
		p.repo,
		&github.Reference{
			Ref:    github.Ptr(ref),
			Object: &github.GitObject{SHA: github.Ptr(sha)},
		},
	)
	if err != nil {
		return nil, err
	}
	out := &gitprovider.Reference{Ref: ptr.Deref(ghRef.Ref, ref)}
	if ghRef.Object != nil {
		out.SHA = ptr.Deref(ghRef.Object.SHA, "")
	}
	return out, nil
}

// GetRelease implements gitprovider.Interface.
func (p *provider) GetRelease(
	ctx context.Context,
	id int64,
) (*gitprovider.Release, error) {
	ghRelease, resp, err := p.client.GetRelease(ctx, p.owner, p.repo, id)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("release %d: %w", id, gitprovider.ErrNotFound)
		}
		return nil, err
	}
	return convertGithubRelease(ghRelease), nil
}

// ListReleases implements gitprovider.Interface.
func (p *provider) ListReleases(ctx context.Context) ([]gitprovider.Release, error) {
	var releases []gitprovider.Release
	listOpts := &github.ListOptions{PerPage: releasesPerPage}
	for {
		ghReleases, resp, err := p.client.ListReleases(ctx, p.owner, p.repo, listOpts)
		if err != nil {
			return nil, err
		}
		for _, ghRelease := range ghReleases {
			releases = append(releases, *convertGithubRelease(ghRelease))
		}
		if resp == nil || resp.NextPage == 0 {
			return releases, nil
		}
		listOpts.Page = resp.NextPage
	}
}

// UpdateRelease implements gitprovider.Interface.
func (p *provider) UpdateRelease(
	ctx context.Context,
	id int64,
	opts *gitprovider.UpdateReleaseOpts,
) (*gitprovider.Release, error) {
	ghRelease, _, err := p.client.EditRelease(
		ctx,
		p.owner,
		p.repo,
		id,
		&github.RepositoryRelease{
			TagName:    opts.TagName,
			Name:       opts.Name,
			Prerelease: opts.Prerelease,
		},
	)
	if err != nil {
		return nil, err
	}
	return convertGithubRelease(ghRelease), nil
}

func convertGithubRelease(ghRelease *github.RepositoryRelease) *gitprovider.Release {
	release := &gitprovider.Release{
		ID:              ptr.Deref(ghRelease.ID, 0),
		Name:            ptr.Deref(ghRelease.Name, ""),
		TagName:         ptr.Deref(ghRelease.TagName, ""),
		TargetCommitish: ptr.Deref(ghRelease.TargetCommitish, ""),
		Prerelease:      ptr.Deref(ghRelease.Prerelease, false),
		URL:             ptr.Deref(ghRelease.HTMLURL, ""),
	}
	if ghRelease.CreatedAt != nil {
		release.CreatedAt = &ghRelease.CreatedAt.Time
	}
	return release
}
