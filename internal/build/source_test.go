package build

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// tarEntry describes one archive member for the test fixtures. A name ending
// in "/" becomes a directory, a set link becomes a symlink, anything else a
// regular file.
type tarEntry struct {
	name string
	body string
	link string
}

func tarGzBytes(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	for _, e := range entries {
		var hdr *tar.Header
		switch {
		case strings.HasSuffix(e.name, "/"):
			hdr = &tar.Header{Name: e.name, Typeflag: tar.TypeDir, Mode: 0755}
		case e.link != "":
			hdr = &tar.Header{Name: e.name, Typeflag: tar.TypeSymlink, Linkname: e.link, Mode: 0777}
		default:
			hdr = &tar.Header{Name: e.name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(e.body))}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("Failed to write tar header for %s: %v", e.name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("Failed to write tar body for %s: %v", e.name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("Failed to close tar writer: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}

	return buf.Bytes()
}

func writeTarGz(t *testing.T, path string, entries []tarEntry) {
	t.Helper()
	if err := os.WriteFile(path, tarGzBytes(t, entries), 0644); err != nil {
		t.Fatalf("Failed to write archive %s: %v", path, err)
	}
}

// quiltArchive returns the members of a branch tarball holding a buildable
// quilt source tree, laid out the way hosting services export them.
func quiltArchive(repo, source, version string) []tarEntry {
	root := repo + "-master/"
	changelog := source + " (" + version + ") bunsen-hydrogen; urgency=medium\n\n" +
		"  * Rebuild against current dependencies.\n\n" +
		" -- John Raff <jpraff@bunsenlabs.org>  Tue, 05 Mar 2024 10:00:00 +0000\n"
	control := "Source: " + source + "\nSection: misc\nPriority: optional\n\n" +
		"Package: " + source + "\nArchitecture: all\nDescription: test package\n"

	return []tarEntry{
		{name: root},
		{name: root + "debian/"},
		{name: root + "debian/control", body: control},
		{name: root + "debian/changelog", body: changelog},
		{name: root + "debian/source/"},
		{name: root + "debian/source/format", body: "3.0 (quilt)\n"},
	}
}

func writeSourceTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}

func TestExtractArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "source.tar.gz")
	writeTarGz(t, archive, quiltArchive("bunsen-images", "bunsen-images", "10.6-1"))

	extractDir := filepath.Join(dir, "src")
	if err := ExtractArchive(archive, extractDir); err != nil {
		t.Fatalf("ExtractArchive failed: %v", err)
	}

	control, err := os.ReadFile(filepath.Join(extractDir, "bunsen-images-master", "debian", "control"))
	if err != nil {
		t.Fatalf("Extracted control file unreadable: %v", err)
	}
	if !strings.Contains(string(control), "Source: bunsen-images") {
		t.Errorf("Unexpected control content: %q", control)
	}
}

func TestExtractArchiveImplicitDirectories(t *testing.T) {
	// Some tarballs carry no directory members at all.
	dir := t.TempDir()
	archive := filepath.Join(dir, "source.tar.gz")
	writeTarGz(t, archive, []tarEntry{
		{name: "pkg-master/debian/control", body: "Source: pkg\n"},
	})

	extractDir := filepath.Join(dir, "src")
	if err := ExtractArchive(archive, extractDir); err != nil {
		t.Fatalf("ExtractArchive failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(extractDir, "pkg-master", "debian", "control")); err != nil {
		t.Errorf("Expected extracted file to exist: %v", err)
	}
}

func TestExtractArchiveSymlinkBeforeTarget(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "source.tar.gz")
	writeTarGz(t, archive, []tarEntry{
		{name: "pkg-master/current", link: "data/real.txt"},
		{name: "pkg-master/data/real.txt", body: "content"},
	})

	extractDir := filepath.Join(dir, "src")
	if err := ExtractArchive(archive, extractDir); err != nil {
		t.Fatalf("ExtractArchive failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(extractDir, "pkg-master", "current"))
	if err != nil {
		t.Fatalf("Symlink did not resolve: %v", err)
	}
	if string(got) != "content" {
		t.Errorf("Expected symlink to read 'content', got %q", got)
	}
}

func TestExtractArchiveRejectsEscapingEntry(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "source.tar.gz")
	writeTarGz(t, archive, []tarEntry{
		{name: "../evil.txt", body: "boom"},
	})

	extractDir := filepath.Join(dir, "src")
	err := ExtractArchive(archive, extractDir)
	if !errors.Is(err, ErrArchiveLayout) {
		t.Fatalf("Expected ErrArchiveLayout, got %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(dir, "evil.txt")); !os.IsNotExist(statErr) {
		t.Error("Escaping entry was written outside the extraction directory")
	}
}

func TestExtractArchiveNotGzip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "source.tar.gz")
	if err := os.WriteFile(archive, []byte("plain text, not an archive"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	err := ExtractArchive(archive, filepath.Join(dir, "src"))
	if !errors.Is(err, ErrArchiveLayout) {
		t.Errorf("Expected ErrArchiveLayout, got %v", err)
	}
}

func TestLocateSourceRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "bunsen-images-master"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	// Hidden directories and stray files do not count as source roots.
	if err := os.MkdirAll(filepath.Join(dir, ".github"), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "pax_global_header"), nil, 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	root, err := LocateSourceRoot(dir)
	if err != nil {
		t.Fatalf("LocateSourceRoot failed: %v", err)
	}
	if want := filepath.Join(dir, "bunsen-images-master"); root != want {
		t.Errorf("Expected root %s, got %s", want, root)
	}
}

func TestLocateSourceRootAmbiguousLayout(t *testing.T) {
	dir := t.TempDir()

	if _, err := LocateSourceRoot(dir); !errors.Is(err, ErrArchiveLayout) {
		t.Errorf("Empty directory: expected ErrArchiveLayout, got %v", err)
	}

	for _, name := range []string{"first", "second"} {
		if err := os.MkdirAll(filepath.Join(dir, name), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
	}
	if _, err := LocateSourceRoot(dir); !errors.Is(err, ErrArchiveLayout) {
		t.Errorf("Two directories: expected ErrArchiveLayout, got %v", err)
	}
}

func TestValidateSourceTree(t *testing.T) {
	validFiles := func(format string) map[string]string {
		return map[string]string{
			"debian/control":       "Source: bunsen-configs\n",
			"debian/changelog":     "bunsen-configs (12.1-1) bunsen-hydrogen; urgency=medium\n",
			"debian/source/format": format,
		}
	}

	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
	}{
		{
			name:    "valid quilt tree",
			files:   validFiles("3.0 (quilt)\n"),
			wantErr: nil,
		},
		{
			name:    "format with surrounding whitespace",
			files:   validFiles("  3.0 (quilt)\n\n"),
			wantErr: nil,
		},
		{
			name:    "no debian directory",
			files:   map[string]string{"README.md": "not a package\n"},
			wantErr: ErrMissingDebianDir,
		},
		{
			name:    "debian is a file",
			files:   map[string]string{"debian": "not a directory\n"},
			wantErr: ErrMissingDebianDir,
		},
		{
			name: "missing control",
			files: map[string]string{
				"debian/changelog":     "bunsen-configs (12.1-1) bunsen-hydrogen; urgency=medium\n",
				"debian/source/format": "3.0 (quilt)\n",
			},
			wantErr: ErrMissingControl,
		},
		{
			name: "missing changelog",
			files: map[string]string{
				"debian/control":       "Source: bunsen-configs\n",
				"debian/source/format": "3.0 (quilt)\n",
			},
			wantErr: ErrMissingChangelog,
		},
		{
			name: "missing format file",
			files: map[string]string{
				"debian/control":   "Source: bunsen-configs\n",
				"debian/changelog": "bunsen-configs (12.1-1) bunsen-hydrogen; urgency=medium\n",
			},
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "native format",
			files:   validFiles("3.0 (native)\n"),
			wantErr: ErrUnsupportedFormat,
		},
		{
			name:    "legacy format",
			files:   validFiles("1.0\n"),
			wantErr: ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSourceTree(t, dir, tt.files)

			err := ValidateSourceTree(dir)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Expected valid tree, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReadSourceInfo(t *testing.T) {
	dir := t.TempDir()
	writeSourceTree(t, dir, map[string]string{
		"debian/control": "Source: bunsen-images\nMaintainer: John Raff <jpraff@bunsenlabs.org>\n\n" +
			"Package: bunsen-images\nArchitecture: all\n",
		"debian/changelog": "bunsen-images (10.6-1) bunsen-hydrogen; urgency=medium\n\n" +
			"  * New wallpapers.\n\n" +
			" -- John Raff <jpraff@bunsenlabs.org>  Tue, 05 Mar 2024 10:00:00 +0000\n\n" +
			"bunsen-images (10.5-1) bunsen-hydrogen; urgency=medium\n",
	})

	info, err := ReadSourceInfo(dir)
	if err != nil {
		t.Fatalf("ReadSourceInfo failed: %v", err)
	}

	if info.Name != "bunsen-images" {
		t.Errorf("Expected name bunsen-images, got %s", info.Name)
	}
	if info.FullVersion != "10.6-1" {
		t.Errorf("Expected full version 10.6-1, got %s", info.FullVersion)
	}
	if info.Version != "10.6" {
		t.Errorf("Expected version 10.6, got %s", info.Version)
	}
	if info.Dir != dir {
		t.Errorf("Expected dir %s, got %s", dir, info.Dir)
	}
}

func TestReadSourceInfoKeepsEpoch(t *testing.T) {
	dir := t.TempDir()
	writeSourceTree(t, dir, map[string]string{
		"debian/control":   "Source: bunsen-welcome\n",
		"debian/changelog": "bunsen-welcome (1:2.0-3) bunsen-hydrogen; urgency=medium\n",
	})

	info, err := ReadSourceInfo(dir)
	if err != nil {
		t.Fatalf("ReadSourceInfo failed: %v", err)
	}
	if info.FullVersion != "1:2.0-3" {
		t.Errorf("Expected full version 1:2.0-3, got %s", info.FullVersion)
	}
	if info.Version != "1:2.0" {
		t.Errorf("Expected version 1:2.0, got %s", info.Version)
	}
}

func TestReadSourceInfoMissingSourceField(t *testing.T) {
	dir := t.TempDir()
	writeSourceTree(t, dir, map[string]string{
		"debian/control":   "Maintainer: John Raff <jpraff@bunsenlabs.org>\n",
		"debian/changelog": "bunsen-welcome (2.0-3) bunsen-hydrogen; urgency=medium\n",
	})

	if _, err := ReadSourceInfo(dir); !errors.Is(err, ErrMissingControl) {
		t.Errorf("Expected ErrMissingControl, got %v", err)
	}
}

func TestReadSourceInfoUnparseableChangelog(t *testing.T) {
	dir := t.TempDir()
	writeSourceTree(t, dir, map[string]string{
		"debian/control":   "Source: bunsen-welcome\n",
		"debian/changelog": "this file has no entry header\n",
	})

	if _, err := ReadSourceInfo(dir); !errors.Is(err, ErrMissingChangelog) {
		t.Errorf("Expected ErrMissingChangelog, got %v", err)
	}
}
