package promotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akuity/devportal/pkg/gitprovider"
	"github.com/akuity/devportal/pkg/release"
)

var (
	testCalverProject = release.Project{
		Owner:              "mock_owner",
		Repo:               "mock_repo",
		VersioningStrategy: release.CalVer,
	}
	testRCRelease = gitprovider.Release{
		ID:              1,
		Name:            "mock_release_name",
		TagName:         "rc-2020.01.01_1",
		TargetCommitish: "rc/2020.01.01",
		Prerelease:      true,
		URL:             "mock_rc_html_url",
	}
	testUser = User{Username: "mock_username", Email: "mock_email"}
)

// newTestProvider returns a provider whose calls all succeed with recognizable
// values.
func newTestProvider() *gitprovider.Fake {
	return &gitprovider.Fake{
		GetLatestCommitFn: func(context.Context, string) (*gitprovider.Commit, error) {
			return &gitprovider.Commit{SHA: "latestCommit.sha"}, nil
		},
		CreateTagObjectFn: func(
			_ context.Context,
			opts *gitprovider.CreateTagObjectOpts,
		) (*gitprovider.TagObject, error) {
			return &gitprovider.TagObject{SHA: "mock_tag_object_sha", Tag: opts.Tag}, nil
		},
		CreateRefFn: func(_ context.Context, _ string, sha string) (*gitprovider.Reference, error) {
			return &gitprovider.Reference{Ref: "mock_createRef_ref", SHA: sha}, nil
		},
		UpdateReleaseFn: func(
			context.Context,
			int64,
			*gitprovider.UpdateReleaseOpts,
		) (*gitprovider.Release, error) {
			return &gitprovider.Release{
				ID:      1,
				Name:    "mock_release_name",
				TagName: "mock_release_tag_name",
				URL:     "mock_release_html_url",
			}, nil
		},
	}
}

func TestNewRCPromoter(t *testing.T) {
	testCases := []struct {
		name       string
		provider   gitprovider.Interface
		opts       Options
		assertions func(*testing.T, *RCPromoter, error)
	}{
		{
			name: "nil provider",
			opts: Options{Project: testCalverProject, RCRelease: testRCRelease},
			assertions: func(t *testing.T, _ *RCPromoter, err error) {
				require.ErrorContains(t, err, "git provider is required")
			},
		},
		{
			name:     "not a prerelease",
			provider: newTestProvider(),
			opts: Options{
				Project: testCalverProject,
				RCRelease: func() gitprovider.Release {
					r := testRCRelease
					r.Prerelease = false
					return r
				}(),
			},
			assertions: func(t *testing.T, _ *RCPromoter, err error) {
				require.ErrorContains(t, err, "is not a prerelease")
			},
		},
		{
			name:     "tag does not match strategy",
			provider: newTestProvider(),
			opts: Options{
				Project:   release.Project{VersioningStrategy: release.SemVer},
				RCRelease: testRCRelease,
			},
			assertions: func(t *testing.T, _ *RCPromoter, err error) {
				require.ErrorContains(t, err, "error parsing release candidate tag")
			},
		},
		{
			name:     "version tag instead of rc tag",
			provider: newTestProvider(),
			opts: Options{
				Project: testCalverProject,
				RCRelease: func() gitprovider.Release {
					r := testRCRelease
					r.TagName = "version-2020.01.01_1"
					return r
				}(),
			},
			assertions: func(t *testing.T, _ *RCPromoter, err error) {
				require.ErrorContains(t, err, "is not a release candidate tag")
			},
		},
		{
			name:     "release branch derived from tag",
			provider: newTestProvider(),
			opts: Options{
				Project: testCalverProject,
				RCRelease: func() gitprovider.Release {
					r := testRCRelease
					r.TargetCommitish = ""
					return r
				}(),
			},
			assertions: func(t *testing.T, p *RCPromoter, err error) {
				require.NoError(t, err)
				require.Equal(t, "rc/2020.01.01", p.opts.RCRelease.TargetCommitish)
			},
		},
		{
			name:     "bad release version",
			provider: newTestProvider(),
			opts: Options{
				Project:        testCalverProject,
				RCRelease:      testRCRelease,
				ReleaseVersion: "rc-2020.01.01_1",
			},
			assertions: func(t *testing.T, _ *RCPromoter, err error) {
				require.ErrorContains(t, err, `must start with "version-"`)
			},
		},
		{
			name:     "unclosed template tag",
			provider: newTestProvider(),
			opts: Options{
				Project:            testCalverProject,
				RCRelease:          testRCRelease,
				TagMessageTemplate: "release {{version",
			},
			assertions: func(t *testing.T, _ *RCPromoter, err error) {
				require.ErrorContains(t, err, "error parsing tag message template")
			},
		},
		{
			name:     "release version is derived",
			provider: newTestProvider(),
			opts:     Options{Project: testCalverProject, RCRelease: testRCRelease},
			assertions: func(t *testing.T, p *RCPromoter, err error) {
				require.NoError(t, err)
				require.Equal(t, "version-2020.01.01_1", p.opts.ReleaseVersion)
				require.Equal(t, 4, p.TotalSteps())
				require.False(t, p.Result().RunInvoked)
				require.Empty(t, p.Result().ResponseSteps)
			},
		},
		{
			name:     "callback adds a step",
			provider: newTestProvider(),
			opts: Options{
				Project:         testCalverProject,
				RCRelease:       testRCRelease,
				SuccessCallback: func(context.Context, CallbackPayload) error { return nil },
			},
			assertions: func(t *testing.T, p *RCPromoter, err error) {
				require.NoError(t, err)
				require.Equal(t, 5, p.TotalSteps())
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			p, err := NewRCPromoter(testCase.provider, testCase.opts)
			testCase.assertions(t, p, err)
		})
	}
}

func TestRCPromoterRun(t *testing.T) {
	expectedSteps := []ResponseStep{
		{
			Message:          "Fetched most recent commit from release branch",
			SecondaryMessage: `with sha "latestCommit.sha"`,
		},
		{
			Message:          "Created Tag Object",
			SecondaryMessage: `with sha "mock_tag_object_sha"`,
		},
		{
			Message:          "Create Tag Reference",
			SecondaryMessage: `with ref "mock_createRef_ref"`,
		},
		{
			Message:          `Promoted "mock_release_name"`,
			SecondaryMessage: `from "rc-2020.01.01_1" to "mock_release_tag_name"`,
			Link:             "mock_release_html_url",
		},
	}

	t.Run("without callback", func(t *testing.T) {
		p, err := NewRCPromoter(newTestProvider(), Options{
			Project:        testCalverProject,
			RCRelease:      testRCRelease,
			ReleaseVersion: "version-1.2.3",
			User:           testUser,
		})
		require.NoError(t, err)
		res, err := p.Run(context.Background())
		require.NoError(t, err)
		require.NoError(t, res.Error)
		require.True(t, res.RunInvoked)
		require.NotEmpty(t, res.RunID)
		require.Equal(t, 100, res.Progress)
		require.Equal(t, expectedSteps, res.ResponseSteps)
	})

	t.Run("with callback", func(t *testing.T) {
		var payload CallbackPayload
		p, err := NewRCPromoter(newTestProvider(), Options{
			Project:        testCalverProject,
			RCRelease:      testRCRelease,
			ReleaseVersion: "version-1.2.3",
			User:           testUser,
			SuccessCallback: func(_ context.Context, pl CallbackPayload) error {
				payload = pl
				return nil
			},
		})
		require.NoError(t, err)
		res, err := p.Run(context.Background())
		require.NoError(t, err)
		require.NoError(t, res.Error)
		require.Equal(t, 100, res.Progress)
		require.Len(t, res.ResponseSteps, 5)
		require.Equal(t, expectedSteps, res.ResponseSteps[:4])
		require.Equal(
			t,
			ResponseStep{Message: "Success callback successfully called 🚀", Icon: IconSuccess},
			res.ResponseSteps[4],
		)
		require.Equal(
			t,
			CallbackPayload{
				ReleaseName:    "mock_release_name",
				ReleaseURL:     "mock_release_html_url",
				PreviousTag:    "rc-2020.01.01_1",
				PreviousTagURL: "mock_rc_html_url",
				NewTag:         "mock_release_tag_name",
				NewTagURL:      "mock_release_html_url",
			},
			payload,
		)
	})
}

func TestRCPromoterRunCalls(t *testing.T) {
	now := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	provider := newTestProvider()
	var (
		branch     string
		tagOpts    *gitprovider.CreateTagObjectOpts
		ref, sha   string
		releaseID  int64
		updateOpts *gitprovider.UpdateReleaseOpts
	)
	provider.GetLatestCommitFn = func(_ context.Context, b string) (*gitprovider.Commit, error) {
		branch = b
		return &gitprovider.Commit{SHA: "commit-sha"}, nil
	}
	provider.CreateTagObjectFn = func(
		_ context.Context,
		opts *gitprovider.CreateTagObjectOpts,
	) (*gitprovider.TagObject, error) {
		tagOpts = opts
		return &gitprovider.TagObject{SHA: "tag-sha", Tag: opts.Tag}, nil
	}
	provider.CreateRefFn = func(_ context.Context, r string, s string) (*gitprovider.Reference, error) {
		ref, sha = r, s
		return &gitprovider.Reference{Ref: r, SHA: s}, nil
	}
	provider.UpdateReleaseFn = func(
		_ context.Context,
		id int64,
		opts *gitprovider.UpdateReleaseOpts,
	) (*gitprovider.Release, error) {
		releaseID, updateOpts = id, opts
		return &gitprovider.Release{ID: id, Name: "Release 1", TagName: *opts.TagName}, nil
	}

	p, err := NewRCPromoter(provider, Options{
		Project:            testCalverProject,
		RCRelease:          testRCRelease,
		User:               testUser,
		TagMessageTemplate: "{{version}} from {{rcTag}} by {{username}}{{unknown}}",
	})
	require.NoError(t, err)
	p.nowFn = func() time.Time { return now }

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, res.Error)

	require.Equal(t, "rc/2020.01.01", branch)
	require.Equal(
		t,
		&gitprovider.CreateTagObjectOpts{
			Tag:     "version-2020.01.01_1",
			Message: "version-2020.01.01_1 from rc-2020.01.01_1 by mock_username",
			SHA:     "commit-sha",
			Tagger:  &gitprovider.Signature{Name: "mock_username", Email: "mock_email", Date: now},
		},
		tagOpts,
	)
	require.Equal(t, "refs/tags/version-2020.01.01_1", ref)
	require.Equal(t, "tag-sha", sha)
	require.Equal(t, int64(1), releaseID)
	require.Equal(t, "version-2020.01.01_1", *updateOpts.TagName)
	require.False(t, *updateOpts.Prerelease)
	require.Nil(t, updateOpts.Name)
	require.Equal(
		t,
		`from "rc-2020.01.01_1" to "version-2020.01.01_1"`,
		res.ResponseSteps[3].SecondaryMessage,
	)
}

func TestRCPromoterRunFailure(t *testing.T) {
	testCases := []struct {
		name       string
		breakFn    func(*gitprovider.Fake)
		callback   SuccessCallback
		assertions func(*testing.T, RunResult)
	}{
		{
			name: "commit lookup fails",
			breakFn: func(f *gitprovider.Fake) {
				f.GetLatestCommitFn = func(context.Context, string) (*gitprovider.Commit, error) {
					return nil, errors.New("branch not found")
				}
			},
			assertions: func(t *testing.T, res RunResult) {
				require.ErrorContains(t, res.Error, "branch not found")
				require.Equal(t, 0, res.Progress)
				require.Len(t, res.ResponseSteps, 1)
				require.Equal(t, IconFailure, res.ResponseSteps[0].Icon)
				require.Contains(t, res.ResponseSteps[0].Message, "branch not found")
			},
		},
		{
			name: "ref creation fails",
			breakFn: func(f *gitprovider.Fake) {
				f.CreateRefFn = func(context.Context, string, string) (*gitprovider.Reference, error) {
					return nil, errors.New("reference already exists")
				}
				f.UpdateReleaseFn = func(
					context.Context,
					int64,
					*gitprovider.UpdateReleaseOpts,
				) (*gitprovider.Release, error) {
					panic("release must not be updated")
				}
			},
			assertions: func(t *testing.T, res RunResult) {
				require.ErrorContains(t, res.Error, "error creating tag reference")
				require.Equal(t, 50, res.Progress)
				require.Len(t, res.ResponseSteps, 3)
				require.Equal(t, IconFailure, res.ResponseSteps[2].Icon)
			},
		},
		{
			name: "callback fails",
			callback: func(context.Context, CallbackPayload) error {
				return errors.New("webhook down")
			},
			assertions: func(t *testing.T, res RunResult) {
				require.ErrorContains(t, res.Error, "webhook down")
				require.Equal(t, 80, res.Progress)
				require.Len(t, res.ResponseSteps, 5)
				require.Equal(t, IconFailure, res.ResponseSteps[4].Icon)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			provider := newTestProvider()
			if testCase.breakFn != nil {
				testCase.breakFn(provider)
			}
			p, err := NewRCPromoter(provider, Options{
				Project:         testCalverProject,
				RCRelease:       testRCRelease,
				SuccessCallback: testCase.callback,
			})
			require.NoError(t, err)
			res, err := p.Run(context.Background())
			require.NoError(t, err)
			testCase.assertions(t, res)
		})
	}
}

func TestRCPromoterRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err := NewRCPromoter(newTestProvider(), Options{
		Project:   testCalverProject,
		RCRelease: testRCRelease,
	})
	require.NoError(t, err)
	res, err := p.Run(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, res.Error, context.Canceled)
	require.Equal(t, 0, res.Progress)
	require.Len(t, res.ResponseSteps, 1)
}

func TestRCPromoterRunOnce(t *testing.T) {
	p, err := NewRCPromoter(newTestProvider(), Options{
		Project:   testCalverProject,
		RCRelease: testRCRelease,
	})
	require.NoError(t, err)
	first, err := p.Run(context.Background())
	require.NoError(t, err)

	second, err := p.Run(context.Background())
	require.ErrorIs(t, err, ErrAlreadyInvoked)
	require.Equal(t, first, second)
	require.Equal(t, first, p.Result())
}

func TestRCPromoterObserver(t *testing.T) {
	var progress []int
	p, err := NewRCPromoter(newTestProvider(), Options{
		Project:   testCalverProject,
		RCRelease: testRCRelease,
		Observer: func(r RunResult) {
			progress = append(progress, r.Progress)
		},
	})
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{25, 50, 75, 100}, progress)
}
