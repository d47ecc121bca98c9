package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MerlinElMago/bunsen-utilities/internal/common/debver"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/dpkg"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/hosting"
	"github.com/MerlinElMago/bunsen-utilities/internal/common/logger"
	"github.com/MerlinElMago/bunsen-utilities/internal/update"
)

var (
	// ErrBuildFailed is returned when the package build tool exits nonzero
	ErrBuildFailed = errors.New("package build failed")
	// ErrNoPackagesBuilt is returned when a build exits cleanly but produces no packages
	ErrNoPackagesBuilt = errors.New("build produced no packages")
)

// Orchestrator drives the per-repository build pipeline: download, extract,
// validate, install build dependencies, build, collect artifacts.
type Orchestrator struct {
	system    dpkg.System
	service   hosting.Service
	client    *update.RetryableHTTPClient
	workDir   string
	outputDir string
	policy    FailurePolicy
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithClient sets a custom HTTP client for archive downloads.
func WithClient(client *update.RetryableHTTPClient) Option {
	return func(o *Orchestrator) error {
		if client == nil {
			return fmt.Errorf("client cannot be nil")
		}
		o.client = client
		return nil
	}
}

// WithFailurePolicy sets the decision taken after a failed repository.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(o *Orchestrator) error {
		if policy == nil {
			return fmt.Errorf("failure policy cannot be nil")
		}
		o.policy = policy
		return nil
	}
}

// New creates an Orchestrator building into outputDir with workspaces under
// workDir. The default failure policy aborts the run on the first failure.
func New(system dpkg.System, service hosting.Service, workDir, outputDir string, opts ...Option) (*Orchestrator, error) {
	if system == nil {
		return nil, fmt.Errorf("dpkg system cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("hosting service cannot be nil")
	}
	if workDir == "" || outputDir == "" {
		return nil, fmt.Errorf("work and output directories must be set")
	}

	o := &Orchestrator{
		system:    system,
		service:   service,
		workDir:   workDir,
		outputDir: outputDir,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.client == nil {
		o.client = update.NewRetryableHTTPClient()
	}
	if o.policy == nil {
		o.policy = AbortOnFailure
	}

	return o, nil
}

// Run builds every repository in order, one at a time, collecting a terminal
// result per repository. A Skipped repository (not buildable as packaged)
// never stops the run; a Failed one consults the failure policy while
// repositories remain. Context cancellation stops between repositories.
func (o *Orchestrator) Run(ctx context.Context, repos []string) (*Report, error) {
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	report := &Report{}
	for i, repo := range repos {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return report, err
		}

		result := o.buildOne(ctx, repo)
		report.Results = append(report.Results, *result)

		switch result.Outcome {
		case OutcomeBuilt:
			logger.Info("Built %s %s (%d packages)", repo, result.Version, len(result.Artifacts))
		case OutcomeSkipped:
			logger.Warn("Skipped %s: %v", repo, result.Error)
		case OutcomeFailed:
			logger.Error("Failed %s: %v", repo, result.Error)
			if i < len(repos)-1 && !o.policy(repo, result.Error) {
				report.Aborted = true
				return report, nil
			}
		}
	}

	return report, nil
}

// buildOne runs the pipeline for a single repository. The workspace is
// released on every exit path.
func (o *Orchestrator) buildOne(ctx context.Context, repo string) *Result {
	result := &Result{Repository: repo}

	ws, err := NewWorkspace(o.workDir, repo)
	if err != nil {
		return result.failed(err)
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			logger.Warn("Failed to release workspace for %s: %v", repo, err)
		}
	}()

	url := o.service.ArchiveURL(repo)
	logger.Debug("Fetching %s", url)
	if err := o.fetchArchive(ctx, url, ws.ArchivePath()); err != nil {
		return result.failed(err)
	}

	if err := ExtractArchive(ws.ArchivePath(), ws.ExtractDir()); err != nil {
		return result.failed(err)
	}

	srcDir, err := LocateSourceRoot(ws.ExtractDir())
	if err != nil {
		return result.failed(err)
	}

	if err := ValidateSourceTree(srcDir); err != nil {
		return result.skipped(err)
	}

	info, err := ReadSourceInfo(srcDir)
	if err != nil {
		return result.skipped(err)
	}
	result.Source = info.Name
	result.Version = info.Version

	// A helper package left behind by an aborted run would block
	// mk-build-deps, so purge it first.
	if err := o.system.RemoveBuildDepsHelper(info.Name); err != nil {
		return result.failed(err)
	}
	if err := o.system.InstallBuildDeps(srcDir); err != nil {
		return result.failed(err)
	}
	defer func() {
		if err := o.system.RemoveBuildDepsHelper(info.Name); err != nil {
			logger.Warn("Failed to purge %s build-deps helper: %v", info.Name, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return result.failed(err)
	}

	logger.Info("Building %s %s", info.Name, info.FullVersion)
	if err := o.system.BuildPackage(srcDir); err != nil {
		return result.failed(errors.Join(ErrBuildFailed, err))
	}

	names, err := o.collectArtifacts(ws.ExtractDir())
	if err != nil {
		return result.failed(err)
	}
	result.Artifacts = names

	result.Outcome = OutcomeBuilt
	return result
}

// collectArtifacts moves the .deb files the build dropped next to the source
// tree into the shared output directory and returns their logical package
// names, deduplicated in listing order.
func (o *Orchestrator) collectArtifacts(buildDir string) ([]string, error) {
	debs, err := filepath.Glob(filepath.Join(buildDir, "*.deb"))
	if err != nil {
		return nil, err
	}
	if len(debs) == 0 {
		return nil, ErrNoPackagesBuilt
	}

	seen := make(map[string]bool)
	var names []string
	for _, deb := range debs {
		artifact, err := debver.ParseDebName(filepath.Base(deb))
		if err != nil {
			return nil, err
		}

		dest := filepath.Join(o.outputDir, filepath.Base(deb))
		if err := moveFile(deb, dest); err != nil {
			return nil, fmt.Errorf("failed to move %s: %w", filepath.Base(deb), err)
		}
		logger.Debug("Collected %s", filepath.Base(deb))

		if !seen[artifact.Package] {
			seen[artifact.Package] = true
			names = append(names, artifact.Package)
		}
	}

	return names, nil
}

// moveFile renames src to dest, falling back to copy-and-remove when the
// two live on different filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
