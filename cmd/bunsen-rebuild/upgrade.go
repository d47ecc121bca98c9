package main

import (
	"fmt"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/config"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/dpkg"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/output"
	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Rebuild outdated packages and upgrade the system",
	Long: `Check installed packages against their source repositories, rebuild every
repository with a newer release, publish the packages to the local archive,
and upgrade the system from it.

Build failures prompt before the run continues with the remaining
repositories.`,
	Args: cobra.NoArgs,
	Run:  runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) {
	ctx, stop := startRun("upgrade")
	defer stop()
	defer logger.Default().Close()

	if err := dpkg.VerifyTools(dpkg.BuildTools...); err != nil {
		fatal("upgrade", "%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("upgrade", "%v", err)
	}

	scanner, err := newScanner(cfg)
	if err != nil {
		fatal("upgrade", "%v", err)
	}

	system := dpkg.NewRunner()

	output.PrintInfo("Checking %s* packages against %s/%s...",
		cfg.Packages.Prefix, cfg.Hosting.Provider, cfg.Hosting.Owner)

	report, err := scanner.ScanInstalled(ctx, system, cfg.Packages.Prefix+"*")
	if err != nil {
		fatal("upgrade", "%v", err)
	}

	displayScanReport(report)
	if report.NothingToDo() {
		return
	}

	buildAndPublish(ctx, "upgrade", cfg, system, report.Set.Items())

	fmt.Println()
	output.PrintInfo("Upgrading installed packages from the archive...")
	if err := system.UpgradeInstalled(); err != nil {
		fatal("upgrade", "upgrade failed: %v", err)
	}
	output.PrintSuccess("Upgrade complete")
}
