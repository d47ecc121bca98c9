package hosting

import (
	"fmt"
	"net/url"
)

// GitLabService builds URLs for repositories hosted on GitLab
type GitLabService struct {
	BaseURL string // e.g., "https://gitlab.com"
	Owner   string // group or user
	Branch  string // e.g., "main"
}

// NewGitLabService creates a GitLab URL service for an owner and branch
func NewGitLabService(owner, branch string) *GitLabService {
	if branch == "" {
		branch = "main"
	}
	return &GitLabService{
		BaseURL: "https://gitlab.com",
		Owner:   owner,
		Branch:  branch,
	}
}

// ChangelogURL returns the raw URL of debian/changelog on the branch
func (s *GitLabService) ChangelogURL(repo string) string {
	return fmt.Sprintf("%s/%s/%s/-/raw/%s/debian/changelog", s.BaseURL, s.Owner, repo, s.Branch)
}

// ArchiveURL returns the URL of the branch source tarball
func (s *GitLabService) ArchiveURL(repo string) string {
	return fmt.Sprintf("%s/%s/%s/-/archive/%s/%s-%s.tar.gz", s.BaseURL, s.Owner, repo, s.Branch, repo, s.Branch)
}

// TagsURL returns the API URL listing the repository's tags. The project
// path is a single URL-encoded segment in the GitLab API.
func (s *GitLabService) TagsURL(repo string) string {
	project := url.PathEscape(s.Owner + "/" + repo)
	return fmt.Sprintf("%s/api/v4/projects/%s/repository/tags", s.BaseURL, project)
}

// Name returns the service name
func (s *GitLabService) Name() string {
	return fmt.Sprintf("GitLab (%s)", s.Owner)
}

// Ensure GitLabService implements Service interface
var _ Service = (*GitLabService)(nil)
