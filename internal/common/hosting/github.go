package hosting

import "fmt"

// GitHubService builds URLs for repositories hosted on GitHub
type GitHubService struct {
	BaseURL    string // e.g., "https://github.com"
	RawBaseURL string // e.g., "https://raw.githubusercontent.com"
	APIBaseURL string // e.g., "https://api.github.com"
	Owner      string // organization or user, e.g., "BunsenLabs"
	Branch     string // e.g., "master"
}

// NewGitHubService creates a GitHub URL service for an owner and branch
func NewGitHubService(owner, branch string) *GitHubService {
	if branch == "" {
		branch = "master"
	}
	return &GitHubService{
		BaseURL:    "https://github.com",
		RawBaseURL: "https://raw.githubusercontent.com",
		APIBaseURL: "https://api.github.com",
		Owner:      owner,
		Branch:     branch,
	}
}

// ChangelogURL returns the raw URL of debian/changelog on the branch
func (s *GitHubService) ChangelogURL(repo string) string {
	return fmt.Sprintf("%s/%s/%s/%s/debian/changelog", s.RawBaseURL, s.Owner, repo, s.Branch)
}

// ArchiveURL returns the URL of the branch source tarball
func (s *GitHubService) ArchiveURL(repo string) string {
	return fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.tar.gz", s.BaseURL, s.Owner, repo, s.Branch)
}

// TagsURL returns the REST API URL listing the repository's tags
func (s *GitHubService) TagsURL(repo string) string {
	return fmt.Sprintf("%s/repos/%s/%s/tags", s.APIBaseURL, s.Owner, repo)
}

// Name returns the service name
func (s *GitHubService) Name() string {
	return fmt.Sprintf("GitHub (%s)", s.Owner)
}

// Ensure GitHubService implements Service interface
var _ Service = (*GitHubService)(nil)
