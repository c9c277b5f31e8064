package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akuity/devportal/pkg/gitprovider"
	"github.com/akuity/devportal/pkg/release"
)

func newFakeProvider() *gitprovider.Fake {
	return &gitprovider.Fake{
		ListReleasesFn: func(context.Context) ([]gitprovider.Release, error) {
			return []gitprovider.Release{
				{ID: 7, Name: "Sprint 2", TagName: "rc-2020.02.01_2", TargetCommitish: "rc/2020.02.01", Prerelease: true},
				{ID: 6, Name: "Sprint 2", TagName: "rc-2020.02.01_1", TargetCommitish: "rc/2020.02.01", Prerelease: true},
			}, nil
		},
		GetLatestCommitFn: func(context.Context, string) (*gitprovider.Commit, error) {
			return &gitprovider.Commit{SHA: "abc123"}, nil
		},
		CreateTagObjectFn: func(
			_ context.Context,
			opts *gitprovider.CreateTagObjectOpts,
		) (*gitprovider.TagObject, error) {
			return &gitprovider.TagObject{SHA: "def456", Tag: opts.Tag}, nil
		},
		CreateRefFn: func(_ context.Context, ref string, sha string) (*gitprovider.Reference, error) {
			return &gitprovider.Reference{Ref: ref, SHA: sha}, nil
		},
		UpdateReleaseFn: func(
			_ context.Context,
			id int64,
			opts *gitprovider.UpdateReleaseOpts,
		) (*gitprovider.Release, error) {
			return &gitprovider.Release{
				ID:      id,
				Name:    "Sprint 2",
				TagName: *opts.TagName,
				URL:     "https://github.com/akuity/devportal/releases/7",
			}, nil
		},
	}
}

func TestCutOwnerRepo(t *testing.T) {
	owner, repo, ok := cutOwnerRepo("akuity/devportal")
	require.True(t, ok)
	require.Equal(t, "akuity", owner)
	require.Equal(t, "devportal", repo)

	for _, s := range []string{"akuity", "akuity/", "/devportal", "a/b/c"} {
		_, _, ok = cutOwnerRepo(s)
		require.False(t, ok, s)
	}
}

func TestPromoteRCOptionsResolve(t *testing.T) {
	useConfigHome(t)

	cfgPath := filepath.Join(t.TempDir(), "app-config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
releaseManager:
  tagMessageTemplate: "{{version}}"
  projects:
  - owner: akuity
    repo: devportal
    versioningStrategy: calver
`), 0o600))

	testCases := []struct {
		name       string
		opts       promoteRCOptions
		assertions func(*testing.T, release.Project, error)
	}{
		{
			name: "from configuration file",
			opts: promoteRCOptions{ConfigPath: cfgPath, Owner: "akuity", Repo: "devportal"},
			assertions: func(t *testing.T, p release.Project, err error) {
				require.NoError(t, err)
				require.Equal(t, release.CalVer, p.VersioningStrategy)
			},
		},
		{
			name: "flag overrides configuration file",
			opts: promoteRCOptions{
				ConfigPath:         cfgPath,
				Owner:              "akuity",
				Repo:               "devportal",
				VersioningStrategy: "semver",
			},
			assertions: func(t *testing.T, p release.Project, err error) {
				require.NoError(t, err)
				require.Equal(t, release.SemVer, p.VersioningStrategy)
			},
		},
		{
			name: "unknown project without strategy",
			opts: promoteRCOptions{ConfigPath: cfgPath, Owner: "akuity", Repo: "other"},
			assertions: func(t *testing.T, _ release.Project, err error) {
				require.ErrorContains(t, err, "versioning strategy must be set")
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			p, _, err := testCase.opts.resolve()
			testCase.assertions(t, p, err)
		})
	}
}

func TestPromoteRCOptionsRun(t *testing.T) {
	useConfigHome(t)

	t.Run("latest release candidate", func(t *testing.T) {
		var promotedID int64
		provider := newFakeProvider()
		update := provider.UpdateReleaseFn
		provider.UpdateReleaseFn = func(
			ctx context.Context,
			id int64,
			opts *gitprovider.UpdateReleaseOpts,
		) (*gitprovider.Release, error) {
			promotedID = id
			return update(ctx, id, opts)
		}
		out := &bytes.Buffer{}
		o := &promoteRCOptions{
			Owner:              "akuity",
			Repo:               "devportal",
			VersioningStrategy: "calver",
			Out:                out,
			newProviderFn: func(release.Project) (gitprovider.Interface, error) {
				return provider, nil
			},
		}
		require.NoError(t, o.run(context.Background()))
		require.Equal(t, int64(7), promotedID)
		require.Equal(
			t,
			"[ 25%] ✔ Fetched most recent commit from release branch with sha \"abc123\"\n"+
				"[ 50%] ✔ Created Tag Object with sha \"def456\"\n"+
				"[ 75%] ✔ Create Tag Reference with ref \"refs/tags/version-2020.02.01_2\"\n"+
				"[100%] ✔ Promoted \"Sprint 2\" from \"rc-2020.02.01_2\" to \"version-2020.02.01_2\""+
				" (https://github.com/akuity/devportal/releases/7)\n",
			out.String(),
		)
	})

	t.Run("promotion fails", func(t *testing.T) {
		provider := newFakeProvider()
		provider.GetLatestCommitFn = func(context.Context, string) (*gitprovider.Commit, error) {
			return nil, errors.New("branch not found")
		}
		out := &bytes.Buffer{}
		o := &promoteRCOptions{
			Owner:              "akuity",
			Repo:               "devportal",
			VersioningStrategy: "calver",
			Out:                out,
			newProviderFn: func(release.Project) (gitprovider.Interface, error) {
				return provider, nil
			},
		}
		err := o.run(context.Background())
		require.ErrorContains(t, err, "branch not found")
		require.Contains(t, out.String(), "[  0%] ✘ error getting latest commit")
	})

	t.Run("no release candidate", func(t *testing.T) {
		provider := newFakeProvider()
		provider.ListReleasesFn = func(context.Context) ([]gitprovider.Release, error) {
			return nil, nil
		}
		o := &promoteRCOptions{
			Owner:              "akuity",
			Repo:               "devportal",
			VersioningStrategy: "semver",
			Out:                &bytes.Buffer{},
			newProviderFn: func(release.Project) (gitprovider.Interface, error) {
				return provider, nil
			},
		}
		require.ErrorIs(t, o.run(context.Background()), release.ErrNoReleaseCandidate)
	})
}
