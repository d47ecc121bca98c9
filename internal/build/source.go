package build

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/debver"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
)

var (
	// ErrArchiveDownload is returned when the source tarball cannot be retrieved
	ErrArchiveDownload = errors.New("failed to download source archive")
	// ErrArchiveLayout is returned when the tarball does not unpack to a single source directory
	ErrArchiveLayout = errors.New("unexpected source archive layout")
	// ErrMissingDebianDir is returned when the source tree carries no debian directory
	ErrMissingDebianDir = errors.New("source tree has no debian directory")
	// ErrMissingControl is returned when debian/control is absent or lacks a Source field
	ErrMissingControl = errors.New("debian/control missing or without Source field")
	// ErrMissingChangelog is returned when debian/changelog is absent or unparseable
	ErrMissingChangelog = errors.New("debian/changelog missing or unparseable")
	// ErrUnsupportedFormat is returned when debian/source/format is not the quilt format
	ErrUnsupportedFormat = errors.New("unsupported source package format")
)

// supportedSourceFormat is the only debian/source/format content we build.
const supportedSourceFormat = "3.0 (quilt)"

// SourceInfo identifies a validated source tree.
type SourceInfo struct {
	// Name is the source package name from debian/control
	Name string
	// Version is the newest changelog version with the revision stripped
	Version string
	// FullVersion is the newest changelog version as declared
	FullVersion string
	// Dir is the source tree root
	Dir string
}

// fetchArchive downloads the repository source tarball into the workspace.
func (o *Orchestrator) fetchArchive(ctx context.Context, url, dest string) error {
	resp, err := o.client.GetWithContext(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrArchiveDownload, url, resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveDownload, err)
	}

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return fmt.Errorf("%w: %v", ErrArchiveDownload, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrArchiveDownload, err)
	}

	logger.Debug("Downloaded %s (%d bytes)", url, written)
	return nil
}

// ExtractArchive unpacks a .tar.gz archive into destDir. Entries escaping
// destDir are rejected; symlinks are created after all regular files so
// links to late entries resolve.
func ExtractArchive(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("%w: not a gzip archive: %v", ErrArchiveLayout, err)
	}
	defer gzr.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	type symlinkEntry struct {
		target   string
		linkname string
	}
	var symlinks []symlinkEntry

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrArchiveLayout, err)
		}

		target := filepath.Join(destDir, header.Name)
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: entry escapes archive root: %s", ErrArchiveLayout, header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}

			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}

			// 1GB cap guards against decompression bombs.
			if _, err := io.Copy(outFile, io.LimitReader(tr, 1<<30)); err != nil {
				outFile.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			if err := outFile.Close(); err != nil {
				return fmt.Errorf("failed to close file: %w", err)
			}

		case tar.TypeSymlink:
			symlinks = append(symlinks, symlinkEntry{target: target, linkname: header.Linkname})

		case tar.TypeXGlobalHeader:
			// pax_global_header from git archive, nothing to write

		default:
			logger.Debug("Ignoring archive entry %s (type %c)", header.Name, header.Typeflag)
		}
	}

	for _, link := range symlinks {
		if err := os.MkdirAll(filepath.Dir(link.target), 0755); err != nil {
			return fmt.Errorf("failed to create directory for symlink: %w", err)
		}
		if err := os.Symlink(link.linkname, link.target); err != nil {
			logger.Warn("Failed to create symlink %s -> %s: %v", link.target, link.linkname, err)
		}
	}

	return nil
}

// LocateSourceRoot finds the single top-level non-hidden directory a hosting
// service tarball unpacks to.
func LocateSourceRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrArchiveLayout, err)
	}

	var roots []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		roots = append(roots, entry.Name())
	}

	if len(roots) != 1 {
		return "", fmt.Errorf("%w: expected one source directory, found %d", ErrArchiveLayout, len(roots))
	}

	return filepath.Join(dir, roots[0]), nil
}

// ValidateSourceTree checks that a source tree carries buildable Debian
// packaging: a debian directory with control and changelog, declaring the
// quilt source format.
func ValidateSourceTree(dir string) error {
	debianDir := filepath.Join(dir, "debian")
	fi, err := os.Stat(debianDir)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrMissingDebianDir, dir)
	}

	if _, err := os.Stat(filepath.Join(debianDir, "control")); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingControl, err)
	}
	if _, err := os.Stat(filepath.Join(debianDir, "changelog")); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingChangelog, err)
	}

	format, err := os.ReadFile(filepath.Join(debianDir, "source", "format"))
	if err != nil {
		return fmt.Errorf("%w: debian/source/format unreadable: %v", ErrUnsupportedFormat, err)
	}
	if got := strings.TrimSpace(string(format)); got != supportedSourceFormat {
		return fmt.Errorf("%w: %q (only %q is built)", ErrUnsupportedFormat, got, supportedSourceFormat)
	}

	return nil
}

// changelogHeaderRegex matches "name (version) distribution; ..." entry headers
var changelogHeaderRegex = regexp.MustCompile(`^(\S+)\s+\(([^)\s]+)\)`)

// ReadSourceInfo extracts the source name from debian/control and the newest
// version from debian/changelog. Version has the revision after the last
// hyphen stripped (see debver.UpstreamVersion for the hyphen caveat).
func ReadSourceInfo(dir string) (*SourceInfo, error) {
	name, err := readControlSource(filepath.Join(dir, "debian", "control"))
	if err != nil {
		return nil, err
	}

	full, err := readChangelogVersion(filepath.Join(dir, "debian", "changelog"))
	if err != nil {
		return nil, err
	}

	return &SourceInfo{
		Name:        name,
		Version:     debver.UpstreamVersion(full),
		FullVersion: full,
		Dir:         dir,
	}, nil
}

// readControlSource returns the Source field of a debian/control file.
func readControlSource(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingControl, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "Source:") {
			name := strings.TrimSpace(strings.TrimPrefix(line, "Source:"))
			if name == "" {
				break
			}
			return name, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingControl, err)
	}

	return "", fmt.Errorf("%w: no Source field in %s", ErrMissingControl, path)
}

// readChangelogVersion returns the version of the newest changelog entry.
func readChangelogVersion(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingChangelog, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if matches := changelogHeaderRegex.FindStringSubmatch(scanner.Text()); matches != nil {
			return matches[2], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingChangelog, err)
	}

	return "", fmt.Errorf("%w: no entry header in %s", ErrMissingChangelog, path)
}
