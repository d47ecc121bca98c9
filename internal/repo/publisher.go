package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/dpkg"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
)

var (
	// ErrNoArtifacts is returned when a run produced nothing to publish
	ErrNoArtifacts = errors.New("no packages to publish")
	// ErrArtifactMissing is returned when a logical package name has no file in the build output
	ErrArtifactMissing = errors.New("package file missing from build output")
	// ErrSigningFailed is returned when the Release file cannot be signed
	ErrSigningFailed = errors.New("failed to sign Release file")
)

// Publisher moves built packages into the local repository and regenerates
// its apt metadata.
type Publisher struct {
	system     dpkg.System
	outputDir  string
	root       string
	label      string
	origin     string
	aptList    string
	signingKey string
}

// PublishResult records what one publish run changed.
type PublishResult struct {
	// Published are the package file names copied into the repository
	Published []string
	// Removed are the superseded file names deleted from the repository
	Removed []string
	// Indexed is the number of package stanzas in the regenerated index
	Indexed int
	// Signed reports whether a Release signature was written
	Signed bool
}

// Option configures a Publisher.
type Option func(*Publisher) error

// WithLabel sets the repository Label written to the Release file.
func WithLabel(label string) Option {
	return func(p *Publisher) error {
		if label == "" {
			return fmt.Errorf("label cannot be empty")
		}
		p.label = label
		return nil
	}
}

// WithOrigin sets the repository Origin written to the Release file.
// It defaults to the label.
func WithOrigin(origin string) Option {
	return func(p *Publisher) error {
		p.origin = origin
		return nil
	}
}

// WithAptSource sets the apt source-list path the repository is registered
// under. Without it the repository is published but left unregistered and
// no index refresh runs.
func WithAptSource(path string) Option {
	return func(p *Publisher) error {
		p.aptList = path
		return nil
	}
}

// WithSigningKey sets the private key file used to sign the Release file.
// The key must not be passphrase protected.
func WithSigningKey(path string) Option {
	return func(p *Publisher) error {
		p.signingKey = path
		return nil
	}
}

// New creates a Publisher copying packages from outputDir into the flat
// repository at root.
func New(system dpkg.System, outputDir, root string, opts ...Option) (*Publisher, error) {
	if system == nil {
		return nil, fmt.Errorf("dpkg system cannot be nil")
	}
	if outputDir == "" || root == "" {
		return nil, fmt.Errorf("output and repository directories must be set")
	}

	p := &Publisher{
		system:    system,
		outputDir: outputDir,
		root:      root,
		label:     "local",
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if p.origin == "" {
		p.origin = p.label
	}

	return p, nil
}

// Publish replaces the repository copies of the named packages with the
// newest build of each, regenerates the package index and Release file, and
// registers the repository with apt. An empty name list is a hard error:
// publishing after a run that built nothing would only rewrite metadata.
func (p *Publisher) Publish(ctx context.Context, names []string) (*PublishResult, error) {
	if len(names) == 0 {
		return nil, ErrNoArtifacts
	}

	if err := os.MkdirAll(p.root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create repository root: %w", err)
	}

	result := &PublishResult{}
	for _, name := range names {
		removed, err := p.removeSuperseded(name)
		if err != nil {
			return nil, err
		}
		result.Removed = append(result.Removed, removed...)

		published, err := p.copyNewestArtifact(name)
		if err != nil {
			return nil, err
		}
		result.Published = append(result.Published, published)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := p.system.ScanPackages(p.root)
	if err != nil {
		return nil, err
	}

	indexes, err := p.writeIndexes(content)
	if err != nil {
		return nil, err
	}
	result.Indexed = countStanzas(content)
	logger.Info("Rebuilt package index (%d packages)", result.Indexed)

	if err := p.writeRelease(indexes, time.Now()); err != nil {
		return nil, err
	}
	result.Signed = p.signingKey != ""

	if p.aptList != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.installAptSource(); err != nil {
			return nil, err
		}
		if err := p.system.UpdateIndexes(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// removeSuperseded deletes every repository file belonging to a logical
// package name, whatever its version.
func (p *Publisher) removeSuperseded(name string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(p.root, name+"_*"))
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove superseded %s: %w", filepath.Base(path), err)
		}
		logger.Debug("Removed superseded %s", filepath.Base(path))
		removed = append(removed, filepath.Base(path))
	}

	return removed, nil
}

// copyNewestArtifact copies the newest build of a logical package name from
// the build output into the repository and returns the file name.
func (p *Publisher) copyNewestArtifact(name string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(p.outputDir, name+"_*.deb"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s has no package in %s", ErrArtifactMissing, name, p.outputDir)
	}

	var newest string
	var newestTime time.Time
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrArtifactMissing, err)
		}
		if newest == "" || fi.ModTime().After(newestTime) {
			newest = path
			newestTime = fi.ModTime()
		}
	}

	base := filepath.Base(newest)
	if err := copyFile(newest, filepath.Join(p.root, base)); err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", base, err)
	}
	logger.Debug("Published %s", base)

	return base, nil
}

// installAptSource registers the repository with apt. A signed repository
// relies on its Release signature; an unsigned one is marked trusted.
func (p *Publisher) installAptSource() error {
	var content string
	if p.signingKey != "" {
		content = fmt.Sprintf("deb file:%s ./\n", p.root)
	} else {
		content = fmt.Sprintf("deb [trusted=yes] file:%s ./\n", p.root)
	}
	return p.system.InstallAptSource(p.aptList, content)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
