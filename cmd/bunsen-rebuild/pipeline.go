package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/MerlinElMago/bunsen-utilities/internal/build"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/config"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/dpkg"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/hosting"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/output"
	"github.com/MerlinElMago/bunsen-utilities/internal/repo"
	"github.com/MerlinElMago/bunsen-utilities/internal/update"
)

// preflight refuses environments the pipeline cannot run in. Builds must not
// run as root, and prompts plus sudo password entry need real terminals.
func preflight() error {
	if os.Geteuid() == 0 {
		return fmt.Errorf("refusing to run as root; privileges are raised with sudo only where needed")
	}
	if !output.Interactive() {
		return fmt.Errorf("stdin, stdout and stderr must be terminals")
	}
	return nil
}

// startRun performs the setup shared by every command: environment guards,
// the per-command run log, and a signal-aware context.
func startRun(category string) (context.Context, context.CancelFunc) {
	if err := preflight(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	if err := logger.Default().EnableFileLogging(category); err != nil {
		logger.Warn("run log unavailable: %v", err)
	}

	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// fatal reports an error, points at the run log, and exits.
func fatal(category, format string, args ...interface{}) {
	logger.Error(format, args...)
	if dir, err := logger.LogDir(); err == nil {
		output.Dim.Printf("Details in %s\n", filepath.Join(dir, category+".log"))
	}
	logger.Default().Close()
	os.Exit(1)
}

func newService(cfg *config.Config) (hosting.Service, error) {
	return hosting.New(cfg.Hosting.Provider, cfg.Hosting.Owner, cfg.Hosting.Branch)
}

// newScanner wires a version scanner from the main config and repos.toml.
func newScanner(cfg *config.Config) (*update.Scanner, error) {
	service, err := newService(cfg)
	if err != nil {
		return nil, err
	}

	reposPath, err := update.DefaultReposPath()
	if err != nil {
		return nil, err
	}
	repos, err := update.LoadReposConfig(reposPath)
	if err != nil {
		return nil, err
	}

	fetcher := update.NewFetcher(service, repos.Fetch)
	if cfg.Hosting.Token != "" {
		fetcher.SetAuthToken(cfg.Hosting.Token)
	}

	return update.NewScanner(fetcher, update.WithResolver(update.NewResolver(repos.Packages)))
}

// buildAndPublish rebuilds the given repositories and publishes whatever they
// produced into the local archive. It exits the process on pipeline errors.
func buildAndPublish(ctx context.Context, category string, cfg *config.Config, system dpkg.System, repos []string) {
	archiveRoot, err := cfg.GetArchiveRoot()
	if err != nil {
		fatal(category, "%v", err)
	}
	workDir, err := cfg.GetWorkspaceDir()
	if err != nil {
		fatal(category, "%v", err)
	}
	outputDir, err := cfg.GetOutputDir()
	if err != nil {
		fatal(category, "%v", err)
	}

	service, err := newService(cfg)
	if err != nil {
		fatal(category, "%v", err)
	}

	orchestrator, err := build.New(system, service, workDir, outputDir,
		build.WithFailurePolicy(build.PromptOnFailure(os.Stdin, os.Stdout)))
	if err != nil {
		fatal(category, "%v", err)
	}

	fmt.Println()
	output.PrintInfo("Rebuilding %d repository(s)...", len(repos))

	report, runErr := orchestrator.Run(ctx, repos)
	displayRunReport(report)
	if runErr != nil {
		fatal(category, "rebuild aborted: %v", runErr)
	}
	if report.Aborted {
		fatal(category, "rebuild stopped after a failed build")
	}

	names := report.ArtifactNames()
	if len(names) == 0 {
		fatal(category, "no packages were built")
	}

	opts, err := publishOptions(cfg)
	if err != nil {
		fatal(category, "%v", err)
	}
	publisher, err := repo.New(system, outputDir, archiveRoot, opts...)
	if err != nil {
		fatal(category, "%v", err)
	}

	result, err := publisher.Publish(ctx, names)
	if err != nil {
		fatal(category, "publishing failed: %v", err)
	}

	displayPublishResult(archiveRoot, result)
}

// publishOptions translates the archive and signing config into publisher
// options, skipping the ones left blank.
func publishOptions(cfg *config.Config) ([]repo.Option, error) {
	opts := []repo.Option{repo.WithAptSource(cfg.Archive.AptList)}
	if cfg.Archive.Label != "" {
		opts = append(opts, repo.WithLabel(cfg.Archive.Label))
	}
	if cfg.Signing.KeyFile != "" {
		keyPath, err := config.ExpandHome(cfg.Signing.KeyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, repo.WithSigningKey(keyPath))
	}
	return opts, nil
}

func displayScanReport(report *update.ScanReport) {
	if len(report.Results) == 0 {
		output.PrintWarning("No installed packages match the configured prefix")
		return
	}

	fmt.Println()
	output.Header.Println("Version Check")
	fmt.Println()

	var failures int
	for _, r := range report.Results {
		switch {
		case r.Error != nil:
			failures++
			output.Error.Printf("  ✗ %s: %v\n", r.Package, r.Error)
		case r.NeedsRebuild:
			fmt.Printf("  %s %s: %s → %s\n",
				output.Sprint(output.Success, "↑"), output.FormatPackage(r.Package),
				r.InstalledVersion, r.RemoteVersion)
		default:
			output.Dim.Printf("    %s: %s is current\n", r.Package, r.InstalledVersion)
		}
	}

	fmt.Println()
	if failures > 0 {
		output.PrintWarning("%d package(s) could not be checked", failures)
	}
	switch {
	case report.Set.Len() > 0:
		output.PrintInfo("%d repository(s) to rebuild: %s",
			report.Set.Len(), strings.Join(report.Set.Items(), ", "))
	case failures > 0:
		output.PrintWarning("Nothing to rebuild, but not every package could be checked")
	default:
		output.PrintSuccess("Everything is up to date")
	}
}

func displayRunReport(report *build.Report) {
	if report == nil || len(report.Results) == 0 {
		return
	}

	fmt.Println()
	output.Header.Println("Build Results")
	fmt.Println()

	for _, r := range report.Results {
		status := output.FormatOutcome(string(r.Outcome))
		switch r.Outcome {
		case build.OutcomeBuilt:
			fmt.Printf("  %s %s %s: %s\n", status, output.FormatPackage(r.Repository),
				r.Version, strings.Join(r.Artifacts, ", "))
		default:
			fmt.Printf("  %s %s: %v\n", status, output.FormatPackage(r.Repository), r.Error)
		}
	}

	fmt.Println()
	output.Info.Printf("%d built, %d skipped, %d failed\n",
		report.Built(), report.Skipped(), report.Failed())
}

func displayPublishResult(archiveRoot string, result *repo.PublishResult) {
	fmt.Println()
	for _, name := range result.Published {
		output.Success.Printf("  ✓ Published %s\n", name)
	}
	if n := len(result.Removed); n > 0 {
		output.Dim.Printf("  Removed %d superseded file(s)\n", n)
	}

	suffix := ""
	if result.Signed {
		suffix = ", signed"
	}
	output.Info.Printf("Archive %s now indexes %d package(s)%s\n", archiveRoot, result.Indexed, suffix)
}
