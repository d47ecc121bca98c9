package hosting

import "fmt"

// New creates a Service for the configured provider.
// An empty provider defaults to GitHub.
func New(provider, owner, branch string) (Service, error) {
	switch provider {
	case "github", "":
		return NewGitHubService(owner, branch), nil
	case "gitlab":
		return NewGitLabService(owner, branch), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, provider)
	}
}
