package update

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/hosting"
)

// Error variables for changelog fetching errors
var (
	// ErrFetchFailed is returned when the changelog document cannot be retrieved
	ErrFetchFailed = errors.New("failed to fetch changelog")
	// ErrNoVersionFound is returned when no version could be extracted
	ErrNoVersionFound = errors.New("could not extract version from changelog")
)

// ParseChangelogVersion extracts the newest declared version for a repository
// from a packaging changelog. Entries have the form
//
//	name (version) distribution; urgency=...
//
// newest first, so only the first matching line counts.
func ParseChangelogVersion(content []byte, repo string) (string, error) {
	// QuoteMeta output always compiles
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(repo) + `\s+\(([^)\s]+)\)`)

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		if matches := re.FindStringSubmatch(scanner.Text()); matches != nil {
			return matches[1], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoVersionFound, err)
	}

	return "", fmt.Errorf("%w: no entry for %s", ErrNoVersionFound, repo)
}

// Fetcher retrieves the newest declared version for a repository from its
// remote changelog, with optional per-repository fetch overrides and
// fallbacks.
type Fetcher struct {
	Service hosting.Service
	Client  *RetryableHTTPClient
	Fetch   map[string]FetchConfig

	authToken string
}

// NewFetcher creates a Fetcher for a hosting service. The fetch map carries
// per-repository overrides from repos.toml and may be nil.
func NewFetcher(service hosting.Service, fetch map[string]FetchConfig) *Fetcher {
	return &Fetcher{
		Service: service,
		Client:  NewRetryableHTTPClient(),
		Fetch:   fetch,
	}
}

// SetAuthToken sets the bearer token used for hosting API requests (the tags
// fallback). Raw changelog fetches stay unauthenticated.
func (f *Fetcher) SetAuthToken(token string) {
	f.authToken = token
}

// FetchLatestVersion retrieves the newest declared version for a repository.
// The primary source is the packaging changelog on the hosting service (or a
// per-repository replacement URL); when it fails, opt-in fallbacks run in
// order: the hosting service's tags API, then a configured HTML page. A fetch
// or parse failure is always surfaced as an error, never as an empty version:
// absence of an answer is distinct from "not newer".
func (f *Fetcher) FetchLatestVersion(ctx context.Context, repo string) (string, error) {
	cfg := f.Fetch[repo]

	// A repository configured with only an HTML source has no changelog
	// worth trying.
	if cfg.HTMLURL != "" && cfg.ChangelogURL == "" && !cfg.TagsFallback {
		return f.fetchFromHTML(ctx, cfg)
	}

	version, err := f.fetchFromChangelog(ctx, repo, cfg)
	if err == nil {
		return version, nil
	}
	errs := []error{err}

	if cfg.TagsFallback {
		version, tagsErr := f.fetchFromTags(ctx, repo, cfg)
		if tagsErr == nil {
			return version, nil
		}
		errs = append(errs, tagsErr)
	}

	if cfg.HTMLURL != "" {
		version, htmlErr := f.fetchFromHTML(ctx, cfg)
		if htmlErr == nil {
			return version, nil
		}
		errs = append(errs, htmlErr)
	}

	return "", errors.Join(errs...)
}

// fetchFromChangelog retrieves and parses the repository's packaging
// changelog, honoring a per-repository replacement URL.
func (f *Fetcher) fetchFromChangelog(ctx context.Context, repo string, cfg FetchConfig) (string, error) {
	url := cfg.ChangelogURL
	if url == "" {
		url = f.Service.ChangelogURL(repo)
	}

	content, err := f.fetchDocument(ctx, url, cfg.Headers)
	if err != nil {
		return "", err
	}

	return ParseChangelogVersion(content, repo)
}

// fetchFromHTML extracts a version from a configured HTML page.
func (f *Fetcher) fetchFromHTML(ctx context.Context, cfg FetchConfig) (string, error) {
	parser, err := NewHTMLParser(cfg.Selector, cfg.XPath, cfg.Pattern)
	if err != nil {
		return "", err
	}

	content, err := f.fetchDocument(ctx, cfg.HTMLURL, cfg.Headers)
	if err != nil {
		return "", err
	}

	return parser.Parse(content)
}

// fetchDocument retrieves a document body with retry logic.
func (f *Fetcher) fetchDocument(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := f.Client.GetWithHeaders(ctx, url, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	return content, nil
}
