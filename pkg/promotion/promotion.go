package promotion

import (
	"context"
	"errors"

	"github.com/akuity/devportal/pkg/gitprovider"
	"github.com/akuity/devportal/pkg/release"
)

// Icons that may decorate a ResponseStep.
const (
	IconSuccess = "success"
	IconFailure = "failure"
)

// ErrAlreadyInvoked is returned when Run is called on a promoter that has
// already been run.
var ErrAlreadyInvoked = errors.New("promotion has already been invoked")

// ResponseStep is a human readable record of one completed (or failed) step
// of a promotion.
type ResponseStep struct {
	Message          string `json:"message"`
	SecondaryMessage string `json:"secondaryMessage,omitempty"`
	Link             string `json:"link,omitempty"`
	Icon             string `json:"icon,omitempty"`
}

// RunResult is a snapshot of a promotion's progress.
type RunResult struct {
	// RunID uniquely identifies the run in logs.
	RunID         string         `json:"runID"`
	ResponseSteps []ResponseStep `json:"responseSteps"`
	// Progress is the percentage of steps completed successfully.
	Progress   int  `json:"progress"`
	RunInvoked bool `json:"runInvoked"`
	// Error is the error that stopped the run, if any.
	Error error `json:"-"`
}

// User is the person on whose behalf a promotion runs. It is recorded as the
// tagger of the release tag.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CallbackPayload describes a successful promotion.
type CallbackPayload struct {
	ReleaseName    string `json:"releaseName"`
	ReleaseURL     string `json:"releaseURL"`
	PreviousTag    string `json:"previousTag"`
	PreviousTagURL string `json:"previousTagURL"`
	NewTag         string `json:"newTag"`
	NewTagURL      string `json:"newTagURL"`
}

// SuccessCallback is invoked after a release has been promoted.
type SuccessCallback func(context.Context, CallbackPayload) error

// Observer is notified with a fresh snapshot each time a step is recorded.
type Observer func(RunResult)

// Options encapsulates the inputs of a promotion.
type Options struct {
	Project release.Project
	// RCRelease is the prerelease being promoted.
	RCRelease gitprovider.Release
	// ReleaseVersion is the tag the release is promoted to. It is derived from
	// RCRelease's tag when empty.
	ReleaseVersion string
	User           User
	// SuccessCallback is optional. When set it is called as the final step.
	SuccessCallback SuccessCallback
	// TagMessageTemplate is the annotation of the created tag. It may
	// reference {{version}}, {{rcTag}} and {{username}}.
	TagMessageTemplate string
	// Observer is optional.
	Observer Observer
}

// DefaultTagMessageTemplate is used when Options.TagMessageTemplate is empty.
const DefaultTagMessageTemplate = "{{version}} promoted from {{rcTag}} by {{username}}"
