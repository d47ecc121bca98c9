// Package version exposes the build identity stamped in at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/MerlinElMago/bunsen-utilities/internal/common/version.Version=..."
// and friends; a plain `go build` reports the dev defaults.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Info returns the full build identity.
func Info() string {
	return fmt.Sprintf("bunsen-rebuild %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
