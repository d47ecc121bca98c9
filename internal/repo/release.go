package repo

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
)

// writeRelease writes the Release file describing the index files, and its
// detached signature when a signing key is configured. apt still expects
// the MD5Sum section alongside the stronger digests.
func (p *Publisher) writeRelease(files map[string][]byte, now time.Time) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Origin: %s\n", p.origin)
	fmt.Fprintf(&b, "Label: %s\n", p.label)
	fmt.Fprintf(&b, "Date: %s\n", now.UTC().Format(time.RFC1123))

	digests := []struct {
		field string
		sum   func([]byte) string
	}{
		{"MD5Sum", func(d []byte) string { s := md5.Sum(d); return hex.EncodeToString(s[:]) }},
		{"SHA1", func(d []byte) string { s := sha1.Sum(d); return hex.EncodeToString(s[:]) }},
		{"SHA256", func(d []byte) string { s := sha256.Sum256(d); return hex.EncodeToString(s[:]) }},
	}
	for _, digest := range digests {
		fmt.Fprintf(&b, "%s:\n", digest.field)
		for _, name := range names {
			fmt.Fprintf(&b, " %s %d %s\n", digest.sum(files[name]), len(files[name]), name)
		}
	}

	release := []byte(b.String())
	if err := os.WriteFile(filepath.Join(p.root, "Release"), release, 0644); err != nil {
		return fmt.Errorf("failed to write Release: %w", err)
	}

	if p.signingKey == "" {
		return nil
	}
	return p.signRelease(release)
}

// signRelease writes an armored detached signature of the Release content.
func (p *Publisher) signRelease(release []byte) error {
	signer, err := loadSigningKey(p.signingKey)
	if err != nil {
		return err
	}

	out, err := os.Create(filepath.Join(p.root, "Release.gpg"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	if err := openpgp.ArmoredDetachSign(out, signer, bytes.NewReader(release), nil); err != nil {
		out.Close()
		return fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	logger.Debug("Signed Release with %s", p.signingKey)
	return nil
}

// loadSigningKey reads a key file, armored or binary, and returns the first
// entity carrying a usable private key.
func loadSigningKey(path string) (*openpgp.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if _, seekErr := f.Seek(0, 0); seekErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrSigningFailed, seekErr)
		}
		entities, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("%w: unreadable key file %s: %v", ErrSigningFailed, path, err)
		}
	}

	for _, entity := range entities {
		if entity.PrivateKey == nil {
			continue
		}
		if entity.PrivateKey.Encrypted {
			return nil, fmt.Errorf("%w: key in %s is passphrase protected", ErrSigningFailed, path)
		}
		return entity, nil
	}

	return nil, fmt.Errorf("%w: no private key in %s", ErrSigningFailed, path)
}
