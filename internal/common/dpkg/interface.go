package dpkg

// System defines the interface for package manager and build tool operations.
// This interface allows for mocking external commands in tests.
type System interface {
	// ListInstalled returns the package records matching a name glob
	ListInstalled(glob string) ([]PackageRecord, error)

	// InstallBuildDeps installs the build dependencies declared by the
	// control file of the source tree rooted at sourceDir
	InstallBuildDeps(sourceDir string) error

	// RemoveBuildDepsHelper purges the dependency helper package left
	// behind for the named source package, if one is installed
	RemoveBuildDepsHelper(sourceName string) error

	// BuildPackage builds binary packages from the source tree rooted
	// at sourceDir
	BuildPackage(sourceDir string) error

	// ScanPackages scans a flat archive directory and returns the
	// generated package index content
	ScanPackages(archiveDir string) (string, error)

	// InstallAptSource writes an apt source snippet to a system path
	InstallAptSource(path, content string) error

	// UpdateIndexes refreshes the package manager metadata
	UpdateIndexes() error

	// UpgradeInstalled upgrades installed packages to the newest
	// available versions
	UpgradeInstalled() error
}
