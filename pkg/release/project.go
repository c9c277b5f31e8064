package release

import (
	"errors"

	"github.com/akuity/devportal/pkg/gitprovider"
)

// Project identifies a repository whose releases are managed.
type Project struct {
	Owner              string             `json:"owner"`
	Repo               string             `json:"repo"`
	VersioningStrategy VersioningStrategy `json:"versioningStrategy"`
}

// ErrNoReleaseCandidate is returned when a project has no release candidate.
var ErrNoReleaseCandidate = errors.New("no release candidate found")

// LatestReleaseCandidate returns the newest prerelease whose tag is a release
// candidate tag under strategy. Releases with other tags are ignored.
func LatestReleaseCandidate(
	releases []gitprovider.Release,
	strategy VersioningStrategy,
) (*gitprovider.Release, error) {
	var latest *gitprovider.Release
	var latestTag Tag
	for i, r := range releases {
		if !r.Prerelease {
			continue
		}
		tag, err := ParseTag(r.TagName, strategy)
		if err != nil || !tag.IsReleaseCandidate() {
			continue
		}
		if latest == nil || tag.Compare(latestTag) > 0 {
			latest = &releases[i]
			latestTag = tag
		}
	}
	if latest == nil {
		return nil, ErrNoReleaseCandidate
	}
	return latest, nil
}
