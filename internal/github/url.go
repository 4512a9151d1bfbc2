// SPDX-License-Identifier: Apache-2.0

package github

import (
	"fmt"
	"regexp"
	"strings"
)

// RepoRef locates a repository, and optionally a branch and path in it.
type RepoRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch,omitempty"`
	Path   string `json:"path,omitempty"`
	// Blob is set for /blob/ URLs, which name a single file.
	Blob bool `json:"blob,omitempty"`
}

// FullName is owner/repo.
func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

var githubURL = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+?)(?:\.git)?(?:/(tree|blob)/([^/?#]+)/?([^?#]*))?/?(?:[?#].*)?$`)

// ParseURL understands github.com/<owner>/<repo>[.git][/(tree|blob)/<branch>/<path>].
// A bare "owner/repo" is accepted as well.
func ParseURL(u string) (*RepoRef, error) {
	if m := githubURL.FindStringSubmatch(u); m != nil {
		return &RepoRef{
			Owner:  m[1],
			Repo:   m[2],
			Branch: m[4],
			Path:   strings.TrimSuffix(m[5], "/"),
			Blob:   m[3] == "blob",
		}, nil
	}
	if owner, repo, ok := strings.Cut(u, "/"); ok && owner != "" && repo != "" && !strings.ContainsAny(owner, ".:") && !strings.ContainsAny(repo, "/:") {
		return &RepoRef{Owner: owner, Repo: strings.TrimSuffix(repo, ".git")}, nil
	}
	return nil, fmt.Errorf("not a GitHub repository URL: %q", u)
}

// RawURL rewrites a github.com blob URL to its raw file URL under base.
// Other URLs are returned unchanged.
func RawURL(u, base string) string {
	if !strings.Contains(u, "github.com") || strings.Contains(u, "raw.githubusercontent.com") || strings.Contains(u, "api.github.com") {
		return u
	}
	ref, err := ParseURL(u)
	if err != nil || !ref.Blob {
		return u
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", strings.TrimRight(base, "/"), ref.Owner, ref.Repo, ref.Branch, ref.Path)
}

var fileExt = regexp.MustCompile(`\.\w+$`)

// IsDirectoryURL reports whether u looks like a repository or tree URL
// rather than a single file.
func IsDirectoryURL(u string) bool {
	if !strings.Contains(u, "github.com") || strings.Contains(u, "/blob/") {
		return false
	}
	return !fileExt.MatchString(strings.TrimRight(u, "/"))
}
