// Package update discovers which installed packages have a newer version
// declared upstream and therefore which source repositories need a rebuild.
//
// The package implements:
//   - Remote version discovery from debian/changelog files on the hosting
//     service, with per-repository overrides and fallbacks (tags API, HTML
//     page scraping) configured in repos.toml
//   - Package-to-repository resolution for packages whose name differs from
//     the source repository that produces them
//   - Scanning of installed packages into a deduplicated rebuild set, with
//     per-package failure isolation
//
// Repository overrides are read from ~/.config/bunsen-rebuild/repos.toml.
// A missing file means no overrides; resolution stays total either way.
//
// Usage:
//
//	fetcher := update.NewFetcher(service, repos.Fetch)
//	scanner, err := update.NewScanner(fetcher, update.WithResolver(update.NewResolver(repos.Packages)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := scanner.ScanInstalled(ctx, system, "bunsen-*")
package update
