package dpkg

// MockSystem implements System for testing.
// Each method can be configured with a custom function to control behavior.
type MockSystem struct {
	ListInstalledFunc         func(glob string) ([]PackageRecord, error)
	InstallBuildDepsFunc      func(sourceDir string) error
	RemoveBuildDepsHelperFunc func(sourceName string) error
	BuildPackageFunc          func(sourceDir string) error
	ScanPackagesFunc          func(archiveDir string) (string, error)
	InstallAptSourceFunc      func(path, content string) error
	UpdateIndexesFunc         func() error
	UpgradeInstalledFunc      func() error
}

// NewMockSystem creates a new MockSystem
func NewMockSystem() *MockSystem {
	return &MockSystem{}
}

// ListInstalled returns the package records matching a name glob
func (m *MockSystem) ListInstalled(glob string) ([]PackageRecord, error) {
	if m.ListInstalledFunc != nil {
		return m.ListInstalledFunc(glob)
	}
	return nil, nil
}

// InstallBuildDeps installs build dependencies for the source tree
func (m *MockSystem) InstallBuildDeps(sourceDir string) error {
	if m.InstallBuildDepsFunc != nil {
		return m.InstallBuildDepsFunc(sourceDir)
	}
	return nil
}

// RemoveBuildDepsHelper purges the dependency helper package
func (m *MockSystem) RemoveBuildDepsHelper(sourceName string) error {
	if m.RemoveBuildDepsHelperFunc != nil {
		return m.RemoveBuildDepsHelperFunc(sourceName)
	}
	return nil
}

// BuildPackage builds binary packages from the source tree
func (m *MockSystem) BuildPackage(sourceDir string) error {
	if m.BuildPackageFunc != nil {
		return m.BuildPackageFunc(sourceDir)
	}
	return nil
}

// ScanPackages scans a flat archive directory and returns the index content
func (m *MockSystem) ScanPackages(archiveDir string) (string, error) {
	if m.ScanPackagesFunc != nil {
		return m.ScanPackagesFunc(archiveDir)
	}
	return "", nil
}

// InstallAptSource writes an apt source snippet to a system path
func (m *MockSystem) InstallAptSource(path, content string) error {
	if m.InstallAptSourceFunc != nil {
		return m.InstallAptSourceFunc(path, content)
	}
	return nil
}

// UpdateIndexes refreshes the package manager metadata
func (m *MockSystem) UpdateIndexes() error {
	if m.UpdateIndexesFunc != nil {
		return m.UpdateIndexesFunc()
	}
	return nil
}

// UpgradeInstalled upgrades installed packages to the newest available versions
func (m *MockSystem) UpgradeInstalled() error {
	if m.UpgradeInstalledFunc != nil {
		return m.UpgradeInstalledFunc()
	}
	return nil
}

// Ensure MockSystem implements System interface
var _ System = (*MockSystem)(nil)
