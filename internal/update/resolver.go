package update

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FetchConfig carries per-repository fetch overrides from repos.toml.
// A repository with no entry uses the hosting service's changelog URL.
type FetchConfig struct {
	// ChangelogURL replaces the hosting service changelog URL
	ChangelogURL string `toml:"changelog_url,omitempty"`
	// HTMLURL points at a release page to scrape instead of a changelog
	HTMLURL string `toml:"html_url,omitempty"`
	// Selector is the CSS selector for extracting version from HTMLURL
	Selector string `toml:"selector,omitempty"`
	// XPath is the XPath expression alternative to Selector
	XPath string `toml:"xpath,omitempty"`
	// Pattern is an optional regex applied to the extracted text
	Pattern string `toml:"pattern,omitempty"`
	// TagsFallback enables the hosting API tag listing as a fallback when
	// the changelog fetch fails
	TagsFallback bool `toml:"tags_fallback,omitempty"`
	// Headers are extra request headers; values support ${VAR} substitution
	Headers map[string]string `toml:"headers,omitempty"`
}

// ReposConfig represents the repos.toml configuration file.
// The packages table maps package names to the source repository that
// produces them, for the cases where the names diverge.
type ReposConfig struct {
	Packages map[string]string      `toml:"packages"`
	Fetch    map[string]FetchConfig `toml:"fetch"`
}

// DefaultReposPath returns the default repos.toml path next to config.yaml
func DefaultReposPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return filepath.Join(xdgConfig, "bunsen-rebuild", "repos.toml"), nil
}

// LoadReposConfig loads and parses repos.toml from the given path.
// A missing file is not an error: resolution must stay total, so it yields
// an empty mapping where every package resolves to itself.
func LoadReposConfig(path string) (*ReposConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ReposConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read repos config: %w", err)
	}

	var config ReposConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repos config: %w", err)
	}

	return &config, nil
}

// Resolver maps a package name to the source repository that produces it.
// Several packages may share one repository. Resolution is total: names
// without an override map to themselves.
type Resolver struct {
	overrides map[string]string
}

// NewResolver creates a Resolver from an override mapping. A nil map is valid.
func NewResolver(overrides map[string]string) *Resolver {
	return &Resolver{overrides: overrides}
}

// Resolve returns the repository identifier for a package name
func (r *Resolver) Resolve(pkg string) string {
	if repo, ok := r.overrides[pkg]; ok && repo != "" {
		return repo
	}
	return pkg
}

// Overrides returns the number of configured overrides
func (r *Resolver) Overrides() int {
	return len(r.overrides)
}
