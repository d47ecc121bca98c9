package repo

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Compression identifies a package index encoding.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGZIP Compression = "gz"
	CompressionXZ   Compression = "xz"
)

// Extension returns the file name suffix for the compression.
func (c Compression) Extension() string {
	switch c {
	case CompressionGZIP:
		return ".gz"
	case CompressionXZ:
		return ".xz"
	default:
		return ""
	}
}

// Compress encodes data with the compression.
func (c Compression) Compress(data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionGZIP:
		var buf bytes.Buffer
		compressor := gzip.NewWriter(&buf)
		if _, err := compressor.Write(data); err != nil {
			return nil, err
		}
		if err := compressor.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionXZ:
		var buf bytes.Buffer
		compressor, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := compressor.Write(data); err != nil {
			return nil, err
		}
		if err := compressor.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}
}

// indexCompressions are the encodings every published index is written in.
// apt prefers the smallest one it understands.
var indexCompressions = []Compression{CompressionNone, CompressionGZIP, CompressionXZ}

// writeIndexes writes the Packages index in every encoding and returns the
// written files by name for checksumming.
func (p *Publisher) writeIndexes(content string) (map[string][]byte, error) {
	files := make(map[string][]byte, len(indexCompressions))
	for _, c := range indexCompressions {
		data, err := c.Compress([]byte(content))
		if err != nil {
			return nil, fmt.Errorf("failed to compress package index: %w", err)
		}

		name := "Packages" + c.Extension()
		if err := os.WriteFile(filepath.Join(p.root, name), data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		files[name] = data
	}
	return files, nil
}

// countStanzas counts the package entries in a Packages index.
func countStanzas(content string) int {
	n := 0
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "Package: ") {
			n++
		}
	}
	return n
}
