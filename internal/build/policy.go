package build

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// FailurePolicy decides whether the run continues after a repository build
// fails. It receives the failed repository and its error.
type FailurePolicy func(repo string, err error) bool

// AbortOnFailure stops the run at the first failed repository.
func AbortOnFailure(string, error) bool { return false }

// SkipAndContinue records the failure and moves on to the next repository.
func SkipAndContinue(string, error) bool { return true }

// PromptOnFailure asks whether to continue. Only an explicit "y" or "yes"
// continues; anything else, including read errors and empty input, aborts.
func PromptOnFailure(in io.Reader, out io.Writer) FailurePolicy {
	reader := bufio.NewReader(in)
	return func(repo string, err error) bool {
		fmt.Fprintf(out, "Build of %s failed: %v\n", repo, err)
		fmt.Fprint(out, "Continue with the remaining repositories? [y/N] ")

		line, readErr := reader.ReadString('\n')
		if readErr != nil && line == "" {
			return false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
