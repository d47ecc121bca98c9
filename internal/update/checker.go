package update

import (
	"context"
	"fmt"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/debver"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/dpkg"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
)

// ScanResult represents the result of checking a single installed package.
type ScanResult struct {
	// Package is the installed package name
	Package string
	// Repository is the source repository the package resolves to
	Repository string
	// InstalledVersion is the version currently installed
	InstalledVersion string
	// RemoteVersion is the newest version declared upstream; empty when the
	// fetch failed
	RemoteVersion string
	// NeedsRebuild is true if the remote version is newer than installed
	NeedsRebuild bool
	// Error contains any error that occurred while checking this package
	Error error
}

// RebuildSet is the deduplicated set of repositories needing a rebuild.
// Items keep first-seen order.
type RebuildSet struct {
	items []string
	seen  map[string]bool
}

// NewRebuildSet creates an empty RebuildSet
func NewRebuildSet() *RebuildSet {
	return &RebuildSet{seen: make(map[string]bool)}
}

// Add inserts a repository unless already present
func (s *RebuildSet) Add(repo string) {
	if s.seen[repo] {
		return
	}
	s.seen[repo] = true
	s.items = append(s.items, repo)
}

// Contains reports whether a repository is in the set
func (s *RebuildSet) Contains(repo string) bool {
	return s.seen[repo]
}

// Items returns the repositories in first-seen order
func (s *RebuildSet) Items() []string {
	return s.items
}

// Len returns the number of repositories in the set
func (s *RebuildSet) Len() int {
	return len(s.items)
}

// ScanReport aggregates the per-package results of one scan and the
// resulting rebuild set.
type ScanReport struct {
	Results []ScanResult
	Set     *RebuildSet
}

// HasErrors returns true if any package could not be checked
func (r *ScanReport) HasErrors() bool {
	for _, result := range r.Results {
		if result.Error != nil {
			return true
		}
	}
	return false
}

// NothingToDo returns true when no repository needs a rebuild.
// An empty set is a valid terminal outcome, not an error.
func (r *ScanReport) NothingToDo() bool {
	return r.Set.Len() == 0
}

// Scanner checks installed packages against their upstream changelogs and
// accumulates the set of repositories needing a rebuild.
type Scanner struct {
	fetcher  *Fetcher
	resolver *Resolver
}

// ScannerOption is a functional option for configuring Scanner
type ScannerOption func(*Scanner) error

// WithResolver sets a custom package-to-repository resolver
func WithResolver(resolver *Resolver) ScannerOption {
	return func(s *Scanner) error {
		s.resolver = resolver
		return nil
	}
}

// NewScanner creates a scanner around a changelog fetcher.
// Without WithResolver every package resolves to itself.
func NewScanner(fetcher *Fetcher, opts ...ScannerOption) (*Scanner, error) {
	scanner := &Scanner{fetcher: fetcher}

	for _, opt := range opts {
		if err := opt(scanner); err != nil {
			return nil, fmt.Errorf("failed to apply scanner option: %w", err)
		}
	}

	if scanner.resolver == nil {
		scanner.resolver = NewResolver(nil)
	}

	return scanner, nil
}

// CheckPackage checks a single installed package against its upstream
// changelog. The returned result carries the error instead of failing the
// call so batch scans can keep going.
func (s *Scanner) CheckPackage(ctx context.Context, record dpkg.PackageRecord) *ScanResult {
	repo := s.resolver.Resolve(record.Name)
	result := &ScanResult{
		Package:          record.Name,
		Repository:       repo,
		InstalledVersion: record.Version,
	}

	remote, err := s.fetcher.FetchLatestVersion(ctx, repo)
	if err != nil {
		result.Error = err
		return result
	}

	result.RemoteVersion = remote
	result.NeedsRebuild = debver.Newer(remote, record.Version)
	return result
}

// Scan checks every installed record and accumulates the rebuild set.
// Only fully installed rows are considered. A fetch failure for one package
// is reported in its result and does not stop the scan.
func (s *Scanner) Scan(ctx context.Context, records []dpkg.PackageRecord) *ScanReport {
	report := &ScanReport{Set: NewRebuildSet()}

	// Remote lookups are memoized per repository within one scan, since
	// several packages may resolve to the same repository.
	remoteVersions := make(map[string]string)
	remoteErrors := make(map[string]error)

	for _, record := range records {
		if !record.Installed() {
			logger.Debug("skipping %s: status %q", record.Name, record.Status)
			continue
		}

		repo := s.resolver.Resolve(record.Name)
		result := ScanResult{
			Package:          record.Name,
			Repository:       repo,
			InstalledVersion: record.Version,
		}

		remote, ok := remoteVersions[repo]
		if !ok {
			if err, failed := remoteErrors[repo]; failed {
				result.Error = err
				report.Results = append(report.Results, result)
				continue
			}

			var err error
			remote, err = s.fetcher.FetchLatestVersion(ctx, repo)
			if err != nil {
				remoteErrors[repo] = err
				result.Error = err
				report.Results = append(report.Results, result)
				continue
			}
			remoteVersions[repo] = remote
		}

		result.RemoteVersion = remote
		result.NeedsRebuild = debver.Newer(remote, record.Version)
		if result.NeedsRebuild {
			report.Set.Add(repo)
		}

		report.Results = append(report.Results, result)
	}

	return report
}

// ScanInstalled lists installed packages matching a glob and scans them.
// A listing failure is fatal: without the package database no useful
// partial progress is possible.
func (s *Scanner) ScanInstalled(ctx context.Context, system dpkg.System, glob string) (*ScanReport, error) {
	records, err := system.ListInstalled(glob)
	if err != nil {
		return nil, fmt.Errorf("failed to list installed packages: %w", err)
	}

	return s.Scan(ctx, records), nil
}
