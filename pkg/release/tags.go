package release

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// VersioningStrategy determines the shape of a project's version numbers.
type VersioningStrategy string

const (
	// SemVer versions look like 1.2.3.
	SemVer VersioningStrategy = "semver"
	// CalVer versions look like 2020.01.31_1, a date and a patch number.
	CalVer VersioningStrategy = "calver"
)

// Tag prefixes.
const (
	RCPrefix      = "rc"
	VersionPrefix = "version"
)

// ReleaseBranchPrefix prefixes the names of release branches.
const ReleaseBranchPrefix = "rc/"

var (
	semverTagRegex = regexp.MustCompile(`^(rc|version)-(\d+\.\d+\.\d+)$`)
	calverTagRegex = regexp.MustCompile(`^(rc|version)-(\d{4}\.\d{2}\.\d{2})_(\d+)$`)
)

// Tag is a parsed release or release candidate tag.
type Tag struct {
	// Prefix is RCPrefix or VersionPrefix.
	Prefix   string
	Strategy VersioningStrategy
	// Version is 1.2.3 for semver and 2020.01.31 for calver.
	Version string
	// Patch is the calver patch number. It is zero for semver.
	Patch int

	semver *semver.Version
}

// ParseTag parses tag according to strategy.
func ParseTag(tag string, strategy VersioningStrategy) (Tag, error) {
	switch strategy {
	case SemVer:
		m := semverTagRegex.FindStringSubmatch(tag)
		if m == nil {
			return Tag{}, fmt.Errorf("tag %q is not a semver release tag", tag)
		}
		v, err := semver.StrictNewVersion(m[2])
		if err != nil {
			return Tag{}, fmt.Errorf("tag %q has an invalid semantic version: %w", tag, err)
		}
		return Tag{Prefix: m[1], Strategy: SemVer, Version: m[2], semver: v}, nil
	case CalVer:
		m := calverTagRegex.FindStringSubmatch(tag)
		if m == nil {
			return Tag{}, fmt.Errorf("tag %q is not a calver release tag", tag)
		}
		patch, err := strconv.Atoi(m[3])
		if err != nil {
			return Tag{}, fmt.Errorf("tag %q has an invalid patch number: %w", tag, err)
		}
		return Tag{Prefix: m[1], Strategy: CalVer, Version: m[2], Patch: patch}, nil
	default:
		return Tag{}, fmt.Errorf("unknown versioning strategy %q", strategy)
	}
}

// String returns the tag in its canonical form.
func (t Tag) String() string {
	if t.Strategy == CalVer {
		return fmt.Sprintf("%s-%s_%d", t.Prefix, t.Version, t.Patch)
	}
	return fmt.Sprintf("%s-%s", t.Prefix, t.Version)
}

// IsReleaseCandidate reports whether the tag marks a release candidate.
func (t Tag) IsReleaseCandidate() bool {
	return t.Prefix == RCPrefix
}

// Compare returns -1, 0, or 1 as t is older than, as old as, or newer than
// other. Both tags must use the same strategy.
func (t Tag) Compare(other Tag) int {
	if t.Strategy == SemVer && t.semver != nil && other.semver != nil {
		return t.semver.Compare(other.semver)
	}
	// Zero padded dates compare correctly as strings.
	if c := strings.Compare(t.Version, other.Version); c != 0 {
		return c
	}
	switch {
	case t.Patch < other.Patch:
		return -1
	case t.Patch > other.Patch:
		return 1
	}
	return 0
}

// ReleaseVersionFor returns the release tag an RC tag is promoted to by
// swapping the rc- prefix for version-.
func ReleaseVersionFor(rcTag string) (string, error) {
	rest, ok := strings.CutPrefix(rcTag, RCPrefix+"-")
	if !ok || rest == "" {
		return "", fmt.Errorf("tag %q is not a release candidate tag", rcTag)
	}
	return VersionPrefix + "-" + rest, nil
}

// ReleaseBranchFor returns the name of the release branch for a tag. The
// calver patch number is not part of the branch name.
func ReleaseBranchFor(tag Tag) string {
	return ReleaseBranchPrefix + tag.Version
}
