package dpkg

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	ErrToolMissing = errors.New("required tool not installed")
)

// BuildTools are the external commands the rebuild pipeline shells out to,
// from dependency installation through index generation.
var BuildTools = []string{
	"sudo",
	"dpkg-query",
	"mk-build-deps",
	"dpkg-buildpackage",
	"dpkg-scanpackages",
	"apt-get",
}

// VerifyTools checks that every named command is on PATH. It returns
// ErrToolMissing naming the first absent one, so a run can refuse up front
// instead of dying halfway through a build.
func VerifyTools(tools ...string) error {
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", ErrToolMissing, tool)
		}
	}
	return nil
}
