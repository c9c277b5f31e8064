package promotion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasttemplate"
	"k8s.io/utils/ptr"

	"github.com/akuity/devportal/pkg/gitprovider"
	"github.com/akuity/devportal/pkg/logging"
	"github.com/akuity/devportal/pkg/release"
)

const (
	templateStartTag = "{{"
	templateEndTag   = "}}"
)

// step is a single unit of work of a promotion. A step records its outcome
// in the shared state and describes it with a ResponseStep.
type step struct {
	name string
	run  func(context.Context, *state) (ResponseStep, error)
}

// state carries values produced by earlier steps to later ones.
type state struct {
	commit    *gitprovider.Commit
	tagObject *gitprovider.TagObject
	ref       *gitprovider.Reference
	promoted  *gitprovider.Release
}

// RCPromoter promotes a release candidate to a final release by tagging the
// head of its release branch and re-pointing the release at the new tag.
// An RCPromoter runs at most once.
type RCPromoter struct {
	provider gitprovider.Interface
	opts     Options
	rcTag    release.Tag
	tmpl     *fasttemplate.Template
	steps    []step

	mu      sync.Mutex
	invoked bool
	result  RunResult

	// The following behaviors are overridable for testing purposes:

	nowFn func() time.Time
}

// NewRCPromoter validates opts and returns an RCPromoter that uses provider
// to carry out the promotion.
func NewRCPromoter(provider gitprovider.Interface, opts Options) (*RCPromoter, error) {
	if provider == nil {
		return nil, errors.New("git provider is required")
	}
	if !opts.RCRelease.Prerelease {
		return nil, fmt.Errorf("release %q is not a prerelease", opts.RCRelease.TagName)
	}
	rcTag, err := release.ParseTag(opts.RCRelease.TagName, opts.Project.VersioningStrategy)
	if err != nil {
		return nil, fmt.Errorf("error parsing release candidate tag: %w", err)
	}
	if !rcTag.IsReleaseCandidate() {
		return nil, fmt.Errorf("tag %q is not a release candidate tag", opts.RCRelease.TagName)
	}
	if opts.RCRelease.TargetCommitish == "" {
		opts.RCRelease.TargetCommitish = release.ReleaseBranchFor(rcTag)
	}
	if opts.ReleaseVersion == "" {
		if opts.ReleaseVersion, err = release.ReleaseVersionFor(opts.RCRelease.TagName); err != nil {
			return nil, err
		}
	}
	if v, ok := strings.CutPrefix(opts.ReleaseVersion, release.VersionPrefix+"-"); !ok || v == "" {
		return nil, fmt.Errorf(
			"release version %q must start with %q",
			opts.ReleaseVersion, release.VersionPrefix+"-",
		)
	}
	if opts.TagMessageTemplate == "" {
		opts.TagMessageTemplate = DefaultTagMessageTemplate
	}
	tmpl, err := fasttemplate.NewTemplate(opts.TagMessageTemplate, templateStartTag, templateEndTag)
	if err != nil {
		return nil, fmt.Errorf("error parsing tag message template: %w", err)
	}

	p := &RCPromoter{
		provider: provider,
		opts:     opts,
		rcTag:    rcTag,
		tmpl:     tmpl,
		nowFn:    time.Now,
	}
	p.steps = []step{
		{name: "get-latest-commit", run: p.getLatestCommit},
		{name: "create-tag-object", run: p.createTagObject},
		{name: "create-tag-reference", run: p.createRef},
		{name: "promote-release", run: p.promoteRelease},
	}
	if opts.SuccessCallback != nil {
		p.steps = append(p.steps, step{name: "success-callback", run: p.callSuccessCallback})
	}
	p.result = RunResult{ResponseSteps: []ResponseStep{}}
	return p, nil
}

// TotalSteps returns the number of steps a successful run completes.
func (p *RCPromoter) TotalSteps() int {
	return len(p.steps)
}

// Result returns a snapshot of the promotion's progress.
func (p *RCPromoter) Result() RunResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Run executes the promotion. Steps run in order and the first failure stops
// the run; work already done on the Git host is not rolled back. The outcome
// of the promotion is reported through RunResult.Error. The returned error is
// ErrAlreadyInvoked when Run has been called before, in which case the
// current result is returned.
func (p *RCPromoter) Run(ctx context.Context) (RunResult, error) {
	p.mu.Lock()
	if p.invoked {
		defer p.mu.Unlock()
		return p.snapshot(), ErrAlreadyInvoked
	}
	p.invoked = true
	runID := uuid.NewString()
	p.result.RunInvoked = true
	p.result.RunID = runID
	p.mu.Unlock()

	logger := logging.LoggerFromContext(ctx).WithValues(
		"runID", runID,
		"owner", p.opts.Project.Owner,
		"repo", p.opts.Project.Repo,
		"rcTag", p.opts.RCRelease.TagName,
		"releaseVersion", p.opts.ReleaseVersion,
	)
	logger.Info("promoting release candidate", "steps", p.TotalSteps())

	st := &state{}
	for i, s := range p.steps {
		stepLogger := logger.WithValues("step", s.name)
		if err := ctx.Err(); err != nil {
			p.fail(fmt.Errorf("promotion canceled before step %q: %w", s.name, err))
			stepLogger.Error(err, "promotion canceled")
			return p.Result(), nil
		}
		resp, err := s.run(ctx, st)
		if err != nil {
			p.fail(err)
			stepLogger.Error(err, "promotion step failed")
			return p.Result(), nil
		}
		p.record(resp, i+1)
		stepLogger.Debug("promotion step completed")
	}
	logger.Info("release candidate promoted")
	return p.Result(), nil
}

func (p *RCPromoter) getLatestCommit(ctx context.Context, st *state) (ResponseStep, error) {
	commit, err := p.provider.GetLatestCommit(ctx, p.opts.RCRelease.TargetCommitish)
	if err != nil {
		return ResponseStep{}, fmt.Errorf(
			"error getting latest commit of branch %q: %w",
			p.opts.RCRelease.TargetCommitish, err,
		)
	}
	st.commit = commit
	return ResponseStep{
		Message:          "Fetched most recent commit from release branch",
		SecondaryMessage: fmt.Sprintf("with sha %q", commit.SHA),
	}, nil
}

func (p *RCPromoter) createTagObject(ctx context.Context, st *state) (ResponseStep, error) {
	msg := p.tmpl.ExecuteString(map[string]any{
		"version":  p.opts.ReleaseVersion,
		"rcTag":    p.opts.RCRelease.TagName,
		"username": p.opts.User.Username,
	})
	opts := &gitprovider.CreateTagObjectOpts{
		Tag:     p.opts.ReleaseVersion,
		Message: msg,
		SHA:     st.commit.SHA,
	}
	if p.opts.User.Username != "" {
		opts.Tagger = &gitprovider.Signature{
			Name:  p.opts.User.Username,
			Email: p.opts.User.Email,
			Date:  p.nowFn(),
		}
	}
	tagObject, err := p.provider.CreateTagObject(ctx, opts)
	if err != nil {
		return ResponseStep{}, fmt.Errorf("error creating tag object %q: %w", p.opts.ReleaseVersion, err)
	}
	st.tagObject = tagObject
	return ResponseStep{
		Message:          "Created Tag Object",
		SecondaryMessage: fmt.Sprintf("with sha %q", tagObject.SHA),
	}, nil
}

func (p *RCPromoter) createRef(ctx context.Context, st *state) (ResponseStep, error) {
	ref, err := p.provider.CreateRef(ctx, "refs/tags/"+p.opts.ReleaseVersion, st.tagObject.SHA)
	if err != nil {
		return ResponseStep{}, fmt.Errorf("error creating tag reference: %w", err)
	}
	st.ref = ref
	return ResponseStep{
		Message:          "Create Tag Reference",
		SecondaryMessage: fmt.Sprintf("with ref %q", ref.Ref),
	}, nil
}

func (p *RCPromoter) promoteRelease(ctx context.Context, st *state) (ResponseStep, error) {
	promoted, err := p.provider.UpdateRelease(ctx, p.opts.RCRelease.ID, &gitprovider.UpdateReleaseOpts{
		TagName:    ptr.To(p.opts.ReleaseVersion),
		Prerelease: ptr.To(false),
	})
	if err != nil {
		return ResponseStep{}, fmt.Errorf("error promoting release %d: %w", p.opts.RCRelease.ID, err)
	}
	st.promoted = promoted
	return ResponseStep{
		Message: fmt.Sprintf("Promoted %q", promoted.Name),
		SecondaryMessage: fmt.Sprintf(
			"from %q to %q", p.opts.RCRelease.TagName, promoted.TagName,
		),
		Link: promoted.URL,
	}, nil
}

func (p *RCPromoter) callSuccessCallback(ctx context.Context, st *state) (ResponseStep, error) {
	if err := p.opts.SuccessCallback(ctx, CallbackPayload{
		ReleaseName:    st.promoted.Name,
		ReleaseURL:     st.promoted.URL,
		PreviousTag:    p.opts.RCRelease.TagName,
		PreviousTagURL: p.opts.RCRelease.URL,
		NewTag:         st.promoted.TagName,
		NewTagURL:      st.promoted.URL,
	}); err != nil {
		return ResponseStep{}, fmt.Errorf("error calling success callback: %w", err)
	}
	return ResponseStep{
		Message: "Success callback successfully called 🚀",
		Icon:    IconSuccess,
	}, nil
}

func (p *RCPromoter) record(resp ResponseStep, completed int) {
	p.mu.Lock()
	p.result.ResponseSteps = append(p.result.ResponseSteps, resp)
	p.result.Progress = 100 * completed / p.TotalSteps()
	snapshot := p.snapshot()
	p.mu.Unlock()
	p.notify(snapshot)
}

// fail records err as the outcome of the run. Progress is left unchanged.
func (p *RCPromoter) fail(err error) {
	p.mu.Lock()
	p.result.ResponseSteps = append(p.result.ResponseSteps, ResponseStep{
		Message: err.Error(),
		Icon:    IconFailure,
	})
	p.result.Error = err
	snapshot := p.snapshot()
	p.mu.Unlock()
	p.notify(snapshot)
}

func (p *RCPromoter) notify(snapshot RunResult) {
	if p.opts.Observer != nil {
		p.opts.Observer(snapshot)
	}
}

// snapshot must be called with p.mu held.
func (p *RCPromoter) snapshot() RunResult {
	r := p.result
	r.ResponseSteps = slices.Clone(p.result.ResponseSteps)
	return r
}
