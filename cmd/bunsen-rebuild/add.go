package main

import (
	"github.com/MerlinElMago/bunsen-utilities/internal/common/config"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/dpkg"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/output"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <repository> [repository...]",
	Short: "Build named repositories and add them to the archive",
	Long: `Build the named source repositories at their current upstream state,
regardless of what is installed, and publish the packages to the local
archive.

Examples:
  bunsen-rebuild add bunsen-images
  bunsen-rebuild add bunsen-images bunsen-themes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	ctx, stop := startRun("add")
	defer stop()
	defer logger.Default().Close()

	if err := dpkg.VerifyTools(dpkg.BuildTools...); err != nil {
		fatal("add", "%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("add", "%v", err)
	}

	buildAndPublish(ctx, "add", cfg, dpkg.NewRunner(), args)

	output.PrintSuccess("Done")
}
