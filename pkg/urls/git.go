package urls

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var scpSyntaxRegex = regexp.MustCompile(`^((?:[\w-]+@)?[\w-]+(?:\.[\w-]+)*)(?::(.*))?$`)

// invisibleRunes are stripped from URLs. They tend to arrive via copy/paste.
var invisibleRunes = strings.NewReplacer(
	"\uFEFF", "", // BOM
	"\u200B", "", // zero width space
	"\u00A0", "", // no-break space
)

// NormalizeGit normalizes Git URLs of the following forms:
//
//   - http[s]://[user:pass@]host.xz[:port][/path/to/repo[.git][/]]
//   - ssh://[user@]host.xz[:port][/path/to/repo[.git][/]]
//   - [user@]host.xz[:path/to/repo[.git][/]]
//
// SCP-style URLs are rewritten as ssh:// URLs. Any URL that cannot be
// normalized is returned as-is.
func NormalizeGit(repo string) string {
	origRepo := repo
	repo = strings.ToLower(invisibleRunes.Replace(strings.TrimSpace(repo)))

	if strings.HasPrefix(repo, "http://") ||
		strings.HasPrefix(repo, "https://") ||
		strings.HasPrefix(repo, "ssh://") {
		repoURL, err := url.Parse(repo)
		if err != nil || len(repoURL.Query()) > 0 {
			return origRepo
		}
		if repoURL.Scheme != "ssh" {
			repoURL.User = nil
		}
		repoURL.Path = trimRepoPath(repoURL.Path)
		return repoURL.String()
	}

	matches := scpSyntaxRegex.FindStringSubmatch(repo)
	if len(matches) != 3 {
		return origRepo
	}
	userHost, path := matches[1], matches[2]
	pathURL, err := url.Parse(path)
	if err != nil {
		return origRepo
	}
	if p := trimRepoPath(pathURL.Path); p != "" {
		return fmt.Sprintf("ssh://%s/%s", userHost, strings.TrimPrefix(p, "/"))
	}
	return fmt.Sprintf("ssh://%s", userHost)
}

func trimRepoPath(p string) string {
	p = strings.TrimSuffix(p, "/")
	return strings.TrimSuffix(p, ".git")
}

// GitRepo identifies a repository hosted by a Git provider with an
// owner/name layout, such as GitHub.
type GitRepo struct {
	// Scheme is the scheme of the provider's web and API endpoints. SSH URLs
	// map to https.
	Scheme string
	// Host includes the port, if any.
	Host  string
	Owner string
	Name  string
}

// ParseGitRepo extracts the scheme, host, owner, and name from a repository
// URL in any form NormalizeGit understands.
func ParseGitRepo(repoURL string) (GitRepo, error) {
	u, err := url.Parse(NormalizeGit(repoURL))
	if err != nil {
		return GitRepo{}, fmt.Errorf("error parsing repository URL %q: %w", repoURL, err)
	}
	scheme := u.Scheme
	switch scheme {
	case "http", "https":
	case "ssh":
		scheme = "https"
	default:
		return GitRepo{}, fmt.Errorf("unsupported repository URL %q", repoURL)
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return GitRepo{}, fmt.Errorf(
			"could not extract repository owner and name from URL %q", repoURL,
		)
	}
	return GitRepo{
		Scheme: scheme,
		Host:   u.Host,
		Owner:  parts[0],
		Name:   parts[1],
	}, nil
}
