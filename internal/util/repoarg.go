package util

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sevigo/repo-sentinel/internal/core"
)

var repoURLRegex = regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?$`)

// ParseRepoArg parses a repository argument as either "owner/repo" or a
// GitHub URL like https://github.com/owner/repo.
func ParseRepoArg(arg string) (core.RepoKey, error) {
	arg = strings.TrimSuffix(strings.TrimSpace(arg), "/")
	if arg == "" {
		return core.RepoKey{}, fmt.Errorf("repository argument is empty")
	}

	if strings.Contains(arg, "github.com/") {
		matches := repoURLRegex.FindStringSubmatch(arg)
		if len(matches) != 3 {
			return core.RepoKey{}, fmt.Errorf("invalid repository URL: %s", arg)
		}
		return core.RepoKey{Owner: matches[1], Repo: matches[2]}, nil
	}

	parts := strings.Split(arg, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return core.RepoKey{}, fmt.Errorf("repository must be owner/repo or a GitHub URL, got %q", arg)
	}
	return core.RepoKey{Owner: parts[0], Repo: parts[1]}, nil
}
