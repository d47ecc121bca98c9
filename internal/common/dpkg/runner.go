package dpkg

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
)

var (
	ErrToolFailure = errors.New("external command failed")
)

// Runner executes package manager and build tool commands.
// Privileged operations are prefixed with sudo; everything else runs as the
// invoking user.
type Runner struct{}

// NewRunner creates a new Runner
func NewRunner() *Runner {
	return &Runner{}
}

// runCommand executes a command and returns stdout, stderr, and any error
func (r *Runner) runCommand(dir, name string, args ...string) (stdout, stderr string, err error) {
	logger.Debug("running: %s %s", name, strings.Join(args, " "))

	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		// Wrap the error with stderr for context
		if stderr != "" {
			err = errors.Join(ErrToolFailure, errors.New(strings.TrimSpace(stderr)))
		} else {
			err = errors.Join(ErrToolFailure, err)
		}
	}

	return stdout, stderr, err
}

// runPrivileged executes a command under sudo. Stdin stays attached so sudo
// can prompt for a password on the controlling terminal.
func (r *Runner) runPrivileged(dir, name string, args ...string) (stdout, stderr string, err error) {
	logger.Debug("running: sudo %s %s", name, strings.Join(args, " "))

	sudoArgs := append([]string{name}, args...)
	cmd := exec.Command("sudo", sudoArgs...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if err != nil {
		if stderr != "" {
			err = errors.Join(ErrToolFailure, errors.New(strings.TrimSpace(stderr)))
		} else {
			err = errors.Join(ErrToolFailure, err)
		}
	}

	return stdout, stderr, err
}

// ListInstalled returns the package records matching a name glob
func (r *Runner) ListInstalled(glob string) ([]PackageRecord, error) {
	stdout, stderr, err := r.runCommand("", "dpkg-query",
		"-W", "-f", "${binary:Package} ${db:Status-Abbrev} ${Version}\n", glob)
	if err != nil {
		// dpkg-query exits nonzero when the glob matches nothing; an
		// empty result is still a valid answer
		if strings.Contains(stderr, "no packages found") {
			return nil, nil
		}
		return nil, err
	}

	return ParseRecords(stdout), nil
}

// InstallBuildDeps installs build dependencies via the mk-build-deps helper,
// which creates and installs a meta package depending on everything the
// control file declares.
func (r *Runner) InstallBuildDeps(sourceDir string) error {
	_, _, err := r.runPrivileged(sourceDir, "mk-build-deps",
		"--install", "--remove",
		"--tool", "apt-get --no-install-recommends -y",
		"debian/control")
	return err
}

// RemoveBuildDepsHelper purges the <source>-build-deps meta package if a
// previous aborted run left one installed. A missing helper is not an error.
func (r *Runner) RemoveBuildDepsHelper(sourceName string) error {
	helper := sourceName + "-build-deps"

	stdout, _, err := r.runCommand("", "dpkg-query", "-W", "-f", "${db:Status-Abbrev}", helper)
	if err != nil || !strings.HasPrefix(strings.TrimSpace(stdout), "ii") {
		// Not installed, nothing to clean up
		return nil
	}

	_, _, err = r.runPrivileged("", "apt-get", "-y", "purge", helper)
	return err
}

// BuildPackage builds binary packages from the source tree. Artifacts land
// in the parent directory of sourceDir, following dpkg-buildpackage behavior.
func (r *Runner) BuildPackage(sourceDir string) error {
	_, _, err := r.runCommand(sourceDir, "dpkg-buildpackage", "-us", "-uc", "-b")
	return err
}

// ScanPackages scans a flat archive directory and returns the generated
// package index content.
func (r *Runner) ScanPackages(archiveDir string) (string, error) {
	stdout, _, err := r.runCommand(archiveDir, "dpkg-scanpackages", "--multiversion", ".")
	if err != nil {
		return "", err
	}
	return stdout, nil
}

// InstallAptSource writes an apt source snippet to a system path via sudo tee
func (r *Runner) InstallAptSource(path, content string) error {
	cmd := exec.Command("sudo", "tee", path)
	cmd.Stdin = strings.NewReader(content)

	var stderrBuf bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderrBuf

	if err := cmd.Run(); err != nil {
		if stderrBuf.Len() > 0 {
			return errors.Join(ErrToolFailure, errors.New(strings.TrimSpace(stderrBuf.String())))
		}
		return errors.Join(ErrToolFailure, err)
	}
	return nil
}

// UpdateIndexes refreshes the package manager metadata
func (r *Runner) UpdateIndexes() error {
	_, _, err := r.runPrivileged("", "apt-get", "update")
	return err
}

// UpgradeInstalled upgrades installed packages to the newest available versions
func (r *Runner) UpgradeInstalled() error {
	_, _, err := r.runPrivileged("", "apt-get", "-y", "upgrade")
	return err
}

// Ensure Runner implements System interface
var _ System = (*Runner)(nil)
