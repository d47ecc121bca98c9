package main

import (
	"github.com/MerlinElMago/bunsen-utilities/internal/common/config"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/dpkg"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/output"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check installed packages for newer releases",
	Long: `Check every installed package matching the configured prefix against the
debian/changelog of its source repository and report which ones have a newer
release available. Nothing is built or installed.`,
	Args: cobra.NoArgs,
	Run:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	ctx, stop := startRun("check")
	defer stop()
	defer logger.Default().Close()

	if err := dpkg.VerifyTools("dpkg-query"); err != nil {
		fatal("check", "%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("check", "%v", err)
	}

	scanner, err := newScanner(cfg)
	if err != nil {
		fatal("check", "%v", err)
	}

	output.PrintInfo("Checking %s* packages against %s/%s...",
		cfg.Packages.Prefix, cfg.Hosting.Provider, cfg.Hosting.Owner)

	report, err := scanner.ScanInstalled(ctx, dpkg.NewRunner(), cfg.Packages.Prefix+"*")
	if err != nil {
		fatal("check", "%v", err)
	}

	displayScanReport(report)
}
