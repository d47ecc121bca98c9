package hosting

import "errors"

var (
	// ErrInvalidProvider indicates an unsupported hosting provider name
	ErrInvalidProvider = errors.New("invalid hosting provider")
)

// Service builds the well-known URLs a source repository exposes on its
// hosting service. Implementations are pure URL construction; fetching is
// the caller's concern.
type Service interface {
	// ChangelogURL returns the raw URL of the packaging changelog on the
	// authoritative branch
	ChangelogURL(repo string) string

	// ArchiveURL returns the URL of the branch source archive tarball
	ArchiveURL(repo string) string

	// TagsURL returns the API URL listing the repository's tags, newest first
	TagsURL(repo string) string

	// Name returns a human-readable name for this service
	Name() string
}
