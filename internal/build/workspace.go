package build

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is an exclusive working directory for one repository build.
// It holds the downloaded archive and the extracted source tree and is
// released as a whole when the build ends, whatever the outcome.
type Workspace struct {
	root string
}

// NewWorkspace creates an exclusive working directory under baseDir.
func NewWorkspace(baseDir, repo string) (*Workspace, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace base: %w", err)
	}

	root, err := os.MkdirTemp(baseDir, repo+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return &Workspace{root: root}, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// ArchivePath returns where the downloaded source tarball lives.
func (w *Workspace) ArchivePath() string {
	return filepath.Join(w.root, "source.tar.gz")
}

// ExtractDir returns where the tarball is unpacked.
func (w *Workspace) ExtractDir() string {
	return filepath.Join(w.root, "src")
}

// Cleanup removes the workspace and everything in it.
func (w *Workspace) Cleanup() error {
	return os.RemoveAll(w.root)
}
