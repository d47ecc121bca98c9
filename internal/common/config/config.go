// Package config loads and validates the bunsen-rebuild configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	ErrArchiveRootNotSet       = errors.New("archive root is not configured")
	ErrArchiveRootNotFound     = errors.New("archive root does not exist")
	ErrMaintainerNotConfigured = errors.New("maintainer is not configured: set DEBFULLNAME and DEBEMAIL or the maintainer section in the bunsen-rebuild config")
)

// Config is the full application configuration, read from config.yaml.
type Config struct {
	Hosting    HostingConfig    `yaml:"hosting"`
	Packages   PackagesConfig   `yaml:"packages"`
	Build      BuildConfig      `yaml:"build"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Signing    SigningConfig    `yaml:"signing"`
	Maintainer MaintainerConfig `yaml:"maintainer"`
}

// HostingConfig holds settings for the code hosting service that serves
// repository changelogs and source archives.
type HostingConfig struct {
	Provider string `yaml:"provider"` // "github" or "gitlab"
	Owner    string `yaml:"owner"`    // organization or user owning the repositories
	Branch   string `yaml:"branch"`   // branch whose changelog is authoritative
	Token    string `yaml:"token"`    // optional auth token for higher rate limits
}

// PackagesConfig holds settings for selecting installed packages.
type PackagesConfig struct {
	Prefix string `yaml:"prefix"` // name prefix selecting the package family
}

// BuildConfig holds build workspace settings.
type BuildConfig struct {
	WorkspaceDir string `yaml:"workspace_dir"` // scratch area for source trees
	OutputDir    string `yaml:"output_dir"`    // shared directory collecting built artifacts
}

// ArchiveConfig holds settings for the published package archive.
type ArchiveConfig struct {
	Root    string `yaml:"root"`     // directory served as the local apt archive
	Label   string `yaml:"label"`    // Release file label
	AptList string `yaml:"apt_list"` // sources.list.d snippet pointing at the archive
}

// SigningConfig holds optional Release signing settings.
type SigningConfig struct {
	KeyFile string `yaml:"key_file"` // armored private key, empty disables signing
}

// MaintainerConfig holds the fallback maintainer identity.
type MaintainerConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// searchPaths lists the config file locations in priority order: the XDG
// location, then the legacy dotfile directory.
func searchPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdg, "bunsen-rebuild", "config.yaml"),
		filepath.Join(home, ".bunsen-rebuild", "config.yaml"),
	}, nil
}

// Load reads the first config file found on the search path. When none
// exists yet, the defaults are written to the XDG location and returned.
func Load() (*Config, error) {
	paths, err := searchPaths()
	if err != nil {
		return nil, err
	}

	path := paths[0]
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			path = p
			break
		}
	}
	return LoadFrom(path)
}

// LoadFrom reads the config file at path, with Defaults filling any field
// the file leaves out. A missing file is created with the default contents.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Defaults()
		if err := cfg.SaveTo(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a configuration populated with the stock BunsenLabs
// settings. Every field can be overridden in config.yaml.
func Defaults() *Config {
	return &Config{
		Hosting: HostingConfig{
			Provider: "github",
			Owner:    "BunsenLabs",
			Branch:   "master",
		},
		Packages: PackagesConfig{
			Prefix: "bunsen-",
		},
		Build: BuildConfig{
			WorkspaceDir: filepath.Join(os.TempDir(), "bunsen-rebuild"),
			OutputDir:    "~/bunsen-packages",
		},
		Archive: ArchiveConfig{
			Root:    "~/bunsen-archive",
			Label:   "bunsen-local",
			AptList: "/etc/apt/sources.list.d/bunsen-local.list",
		},
	}
}

// SaveTo writes the configuration as YAML, creating parent directories as
// needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetArchiveRoot expands and validates the configured archive root. The
// directory must already exist: runs update the archive, they never create
// it.
func (c *Config) GetArchiveRoot() (string, error) {
	if c.Archive.Root == "" {
		return "", ErrArchiveRootNotSet
	}

	path, err := ExpandHome(c.Archive.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrArchiveRootNotFound
		}
		return "", err
	}
	if !info.IsDir() {
		return "", ErrArchiveRootNotFound
	}
	return path, nil
}

// GetWorkspaceDir returns the expanded build workspace directory.
func (c *Config) GetWorkspaceDir() (string, error) {
	if c.Build.WorkspaceDir == "" {
		return filepath.Join(os.TempDir(), "bunsen-rebuild"), nil
	}
	return ExpandHome(c.Build.WorkspaceDir)
}

// GetOutputDir returns the expanded build output directory.
func (c *Config) GetOutputDir() (string, error) {
	if c.Build.OutputDir == "" {
		return "", errors.New("build output directory is not configured")
	}
	return ExpandHome(c.Build.OutputDir)
}

// GetMaintainer returns the maintainer name and email.
// It first tries the DEBFULLNAME and DEBEMAIL environment variables, the
// convention Debian tooling shares, then falls back to the config file.
func (c *Config) GetMaintainer() (name, email string, err error) {
	name = os.Getenv("DEBFULLNAME")
	email = os.Getenv("DEBEMAIL")
	if name != "" && email != "" {
		return name, email, nil
	}

	if c.Maintainer.Name != "" && c.Maintainer.Email != "" {
		return c.Maintainer.Name, c.Maintainer.Email, nil
	}

	return "", "", ErrMaintainerNotConfigured
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
