package gitprovider

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned, wrapped, when the Git provider reports that a
// requested object does not exist.
var ErrNotFound = errors.New("not found")

// Options encapsulates options used in instantiating any implementation of
// Interface.
type Options struct {
	// Name specifies which Git provider to use when that information cannot be
	// inferred from the repository URL.
	Name string
	// Token is the access token used to authenticate against the Git
	// provider's API.
	Token string
	// InsecureSkipTLSVerify specifies whether certificate verification errors
	// should be ignored when connecting to the Git provider's API.
	InsecureSkipTLSVerify bool
	// App, when set, authenticates as an app installation instead of with
	// Token.
	App *AppOptions
}

// AppOptions identifies an app installation, e.g. a GitHub App.
type AppOptions struct {
	// ID is the app's id.
	ID int64
	// InstallationID is the id of the app's installation on the repository's
	// owner.
	InstallationID int64
	// PrivateKey is the app's PEM encoded private key.
	PrivateKey []byte
}

// Interface is an abstracted interface for managing the tags and releases of a
// single repository hosted by a Git hosting provider.
type Interface interface {
	// GetLatestCommit returns the commit at the head of a branch.
	GetLatestCommit(ctx context.Context, branch string) (*Commit, error)
	// CreateTagObject creates an annotated tag object. The tag is not visible
	// until a reference to it is created with CreateRef.
	CreateTagObject(context.Context, *CreateTagObjectOpts) (*TagObject, error)
	// CreateRef creates a fully qualified reference, e.g. refs/tags/x, that
	// points at sha.
	CreateRef(ctx context.Context, ref string, sha string) (*Reference, error)
	// GetRelease gets an existing release by id.
	GetRelease(ctx context.Context, id int64) (*Release, error)
	// ListReleases lists the repository's releases, most recent first.
	ListReleases(context.Context) ([]Release, error)
	// UpdateRelease updates an existing release.
	UpdateRelease(context.Context, int64, *UpdateReleaseOpts) (*Release, error)
}

// Commit is an abstracted representation of a commit.
type Commit struct {
	// SHA is the commit's id.
	SHA string `json:"sha"`
	// URL is a link to the commit in the provider's web UI.
	URL string `json:"url,omitempty"`
}

// Signature identifies who created a tag, and when.
type Signature struct {
	Name  string
	Email string
	Date  time.Time
}

// CreateTagObjectOpts encapsulates the options used when creating a tag
// object.
type CreateTagObjectOpts struct {
	// Tag is the tag's name, e.g. version-1.2.3.
	Tag string
	// Message is the tag's annotation.
	Message string
	// SHA is the commit being tagged.
	SHA string
	// Tagger is optional. When nil the provider attributes the tag to the
	// authenticated user.
	Tagger *Signature
}

// TagObject is an abstracted representation of an annotated tag object.
type TagObject struct {
	// SHA is the tag object's id. It differs from the id of the tagged
	// commit.
	SHA string `json:"sha"`
	Tag string `json:"tag"`
}

// Reference is an abstracted representation of a Git reference.
type Reference struct {
	// Ref is fully qualified, e.g. refs/tags/version-1.2.3.
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// Release is an abstracted representation of a Git hosting provider's
// release object.
type Release struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	// TagName is the tag the release is attached to.
	TagName string `json:"tagName"`
	// TargetCommitish is the branch or commit the release's tag is created
	// from.
	TargetCommitish string `json:"targetCommitish"`
	Prerelease      bool   `json:"prerelease"`
	// URL is the URL to the release in the provider's web UI.
	URL       string     `json:"url"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// UpdateReleaseOpts encapsulates the options used when updating a release.
// Nil fields are left unchanged.
type UpdateReleaseOpts struct {
	TagName    *string
	Name       *string
	Prerelease *bool
}
