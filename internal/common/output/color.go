// Package output handles colored terminal output.
package output

import (
	"os"

	"github.com/fatih/color"
)

var (
	// Build outcome colors
	Built   = color.New(color.FgGreen)
	Skipped = color.New(color.FgYellow)
	Failed  = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
)

// NoColor disables ANSI codes in all output.
func NoColor() {
	color.NoColor = true
}

// ForceColor emits ANSI codes even when stdout is not a terminal.
func ForceColor() {
	color.NoColor = false
}

// Interactive reports whether stdin, stdout and stderr are all terminals.
// Prompts and sudo password entry need all three.
func Interactive() bool {
	return isCharDevice(os.Stdin) && isCharDevice(os.Stdout) && isCharDevice(os.Stderr)
}

func isCharDevice(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// OutcomeColor maps a build outcome to its display color.
func OutcomeColor(outcome string) *color.Color {
	switch outcome {
	case "Built":
		return Built
	case "Skipped":
		return Skipped
	case "Failed":
		return Failed
	default:
		return color.New(color.Reset)
	}
}

// FormatOutcome renders a build outcome as a colored [Outcome] tag.
func FormatOutcome(outcome string) string {
	return OutcomeColor(outcome).Sprintf("[%s]", outcome)
}

// FormatPackage renders a package name in the package color.
func FormatPackage(pkg string) string {
	return Package.Sprint(pkg)
}

// Sprint returns its arguments rendered in the given color.
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}

// PrintSuccess prints a checkmarked success line.
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintWarning prints a warning line.
func PrintWarning(format string, args ...interface{}) {
	Warning.Printf("⚠ "+format+"\n", args...)
}

// PrintInfo prints a progress line.
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}
