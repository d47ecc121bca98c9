package debver

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidDebName = errors.New("invalid .deb file name format")
)

// debNameRegex matches: package_version_architecture.deb
// Package names are lowercase alphanumerics plus '+', '-' and '.'; the
// version field may carry anything except an underscore.
var debNameRegex = regexp.MustCompile(`^([a-z0-9][a-z0-9+.-]*)_([^_/]+)_([A-Za-z0-9-]+)\.deb$`)

// Artifact represents a parsed binary package file name.
type Artifact struct {
	Package      string // e.g., "bunsen-images"
	Version      string // e.g., "10.5-1"
	Architecture string // e.g., "all", "amd64"
}

// ParseDebName parses a .deb file name into its package, version and
// architecture fields. Expected format: package_version_architecture.deb
func ParseDebName(name string) (*Artifact, error) {
	// Tolerate full paths, only the base name carries the fields.
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}

	matches := debNameRegex.FindStringSubmatch(name)
	if matches == nil {
		return nil, ErrInvalidDebName
	}

	return &Artifact{
		Package:      matches[1],
		Version:      matches[2],
		Architecture: matches[3],
	}, nil
}

// String returns the file name format: package_version_architecture.deb
func (a *Artifact) String() string {
	return a.Package + "_" + a.Version + "_" + a.Architecture + ".deb"
}

// Slot returns the package_architecture pair that identifies which published
// file a .deb replaces. Two builds of the same package for the same
// architecture occupy the same slot regardless of version.
func (a *Artifact) Slot() string {
	return a.Package + "_" + a.Architecture
}
