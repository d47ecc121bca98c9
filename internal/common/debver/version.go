// Package debver implements Debian package version ordering.
package debver

import (
	"strings"
)

// Compare compares two Debian version strings per dpkg ordering rules.
// Returns: -1 if a < b, 0 if a == b, 1 if a > b.
//
// A version is epoch:upstream-revision. The epoch is the numeric prefix
// before the first colon (absent means 0). The revision is everything after
// the last hyphen (absent sorts lowest). Upstream and revision are compared
// by alternating non-digit and digit segments; digit segments compare
// numerically, non-digit segments bytewise with letters before non-letters
// and '~' before everything, including the end of the string.
func Compare(a, b string) int {
	aEpoch, aRest := splitEpoch(a)
	bEpoch, bRest := splitEpoch(b)

	if aEpoch != bEpoch {
		if aEpoch < bEpoch {
			return -1
		}
		return 1
	}

	aUpstream, aRevision := splitRevision(aRest)
	bUpstream, bRevision := splitRevision(bRest)

	if cmp := compareFragment(aUpstream, bUpstream); cmp != 0 {
		return cmp
	}
	return compareFragment(aRevision, bRevision)
}

// Newer reports whether version a sorts strictly after version b.
func Newer(a, b string) bool {
	return Compare(a, b) > 0
}

// splitEpoch separates the numeric epoch from the remainder of the version.
// A missing or unparseable epoch counts as 0.
func splitEpoch(v string) (int, string) {
	idx := strings.IndexByte(v, ':')
	if idx < 0 {
		return 0, v
	}

	epoch := 0
	for i := 0; i < idx; i++ {
		c := v[i]
		if c < '0' || c > '9' {
			// Malformed epoch, treat as absent.
			return 0, v[idx+1:]
		}
		epoch = epoch*10 + int(c-'0')
	}
	return epoch, v[idx+1:]
}

// splitRevision separates the Debian revision (after the last hyphen) from
// the upstream version. A version without a hyphen has an empty revision.
func splitRevision(v string) (string, string) {
	idx := strings.LastIndexByte(v, '-')
	if idx < 0 {
		return v, ""
	}
	return v[:idx], v[idx+1:]
}

// charOrder assigns the dpkg collating weight for a non-digit byte.
// '~' sorts before everything (even the end of the string), letters sort
// before all other characters.
func charOrder(c byte) int {
	switch {
	case c == '~':
		return -1
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return int(c)
	default:
		return int(c) + 256
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// compareFragment compares an upstream version or revision fragment by
// alternating non-digit and digit segments.
func compareFragment(a, b string) int {
	i, j := 0, 0

	for i < len(a) || j < len(b) {
		// Non-digit run. An exhausted string counts as weight 0, so a
		// remaining '~' still sorts below it.
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ac, bc := 0, 0
			if i < len(a) && !isDigit(a[i]) {
				ac = charOrder(a[i])
			}
			if j < len(b) && !isDigit(b[j]) {
				bc = charOrder(b[j])
			}
			if ac != bc {
				if ac < bc {
					return -1
				}
				return 1
			}
			if i < len(a) && !isDigit(a[i]) {
				i++
			}
			if j < len(b) && !isDigit(b[j]) {
				j++
			}
		}

		// Digit run, compared numerically. Skip leading zeros first so
		// "007" equals "7".
		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		firstDiff := 0
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		// The number with more digits remaining is larger.
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			if firstDiff < 0 {
				return -1
			}
			return 1
		}
	}

	return 0
}

// UpstreamVersion strips the revision suffix after the last hyphen from a
// version string, returning the upstream part. Versions whose upstream part
// itself contains hyphens keep everything up to the last one; that matches
// how Debian source versions are written but cannot distinguish an upstream
// hyphen from a revision separator when no revision is present.
func UpstreamVersion(v string) string {
	upstream, _ := splitRevision(v)
	return upstream
}
