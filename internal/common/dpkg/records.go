package dpkg

import (
	"strings"
)

// PackageRecord represents a single row from a package database query
type PackageRecord struct {
	Name    string // e.g., "bunsen-images"
	Status  string // status abbreviation, "ii" for installed
	Version string // e.g., "10.5-1"
}

// Installed reports whether the record describes a fully installed package.
// Rows for removed-but-not-purged or half-configured packages carry other
// abbreviations ("rc", "iU", ...) and must be ignored.
func (r PackageRecord) Installed() bool {
	return r.Status == "ii"
}

// ParseRecords parses `dpkg-query -W -f='${Package} ${db:Status-Abbrev} ${Version}\n'`
// output into PackageRecord slices. Malformed lines are dropped.
func ParseRecords(output string) []PackageRecord {
	var records []PackageRecord

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}

		records = append(records, PackageRecord{
			Name:    fields[0],
			Status:  fields[1],
			Version: fields[2],
		})
	}

	return records
}
