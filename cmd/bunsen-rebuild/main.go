package main

import (
	"fmt"
	"os"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/output"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/version"
	"github.com/spf13/cobra"
)

var (
	flagVerbose bool
	flagQuiet   bool
	flagNoColor bool
)

var rootCmd = &cobra.Command{
	Use:   "bunsen-rebuild",
	Short: "Rebuild BunsenLabs packages from source",
	Long: `A tool for keeping locally built BunsenLabs packages current: it checks
installed packages against their source repositories, rebuilds the ones with
newer releases, and publishes the results to a local apt archive.`,
	Version: version.Short(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(flagVerbose)
		logger.SetQuiet(flagQuiet)
		if flagNoColor {
			output.NoColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show debug output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only print errors")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Turn off colored output")

	rootCmd.SetVersionTemplate(version.Info() + "\n")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
