package gitprovider

import "context"

// Fake is a fake implementation of the provider Interface used to facilitate
// testing.
type Fake struct {
	// GetLatestCommitFn defines the functionality of the GetLatestCommit
	// method.
	GetLatestCommitFn func(context.Context, string) (*Commit, error)
	// CreateTagObjectFn defines the functionality of the CreateTagObject
	// method.
	CreateTagObjectFn func(context.Context, *CreateTagObjectOpts) (*TagObject, error)
	// CreateRefFn defines the functionality of the CreateRef method.
	CreateRefFn func(context.Context, string, string) (*Reference, error)
	// GetReleaseFn defines the functionality of the GetRelease method.
	GetReleaseFn func(context.Context, int64) (*Release, error)
	// ListReleasesFn defines the functionality of the ListReleases method.
	ListReleasesFn func(context.Context) ([]Release, error)
	// UpdateReleaseFn defines the functionality of the UpdateRelease method.
	UpdateReleaseFn func(context.Context, int64, *UpdateReleaseOpts) (*Release, error)
}

// GetLatestCommit implements gitprovider.Interface.
func (f *Fake) GetLatestCommit(ctx context.Context, branch string) (*Commit, error) {
	return f.GetLatestCommitFn(ctx, branch)
}

// CreateTagObject implements gitprovider.Interface.
func (f *Fake) CreateTagObject(
	ctx context.Context,
	opts *CreateTagObjectOpts,
) (*TagObject, error) {
	return f.CreateTagObjectFn(ctx, opts)
}

// CreateRef implements gitprovider.Interface.
func (f *Fake) CreateRef(ctx context.Context, ref string, sha string) (*Reference, error) {
	return f.CreateRefFn(ctx, ref, sha)
}

// GetRelease implements gitprovider.Interface.
func (f *Fake) GetRelease(ctx context.Context, id int64) (*Release, error) {
	return f.GetReleaseFn(ctx, id)
}

// ListReleases implements gitprovider.Interface.
func (f *Fake) ListReleases(ctx context.Context) ([]Release, error) {
	return f.ListReleasesFn(ctx)
}

// UpdateRelease implements gitprovider.Interface.
func (f *Fake) UpdateRelease(
	ctx context.Context,
	id int64,
	opts *UpdateReleaseOpts,
) (*Release, error) {
	return f.UpdateReleaseFn(ctx, id, opts)
}
