package ldmodel

import (
	"strconv"
	"strings"
)

// SemVer is a parsed semantic version, used by the semVerEqual/semVerLessThan/
// semVerGreaterThan clause operators. Build metadata is discarded when parsing. Ordering
// compares the numeric core first; a pre-release then sorts before the same core without one,
// and two pre-release strings compare lexically.
type SemVer struct {
	Major, Minor, Patch int
	PreRelease          string
}

// ParseSemVer parses a "major.minor.patch[-prerelease][+build]" string. Missing minor/patch
// components default to 0, matching the tolerant parsing LaunchDarkly SDKs use for flag
// targeting rules.
func ParseSemVer(s string) (SemVer, bool) {
	if s == "" {
		return SemVer{}, false
	}
	core := s
	var pre string
	if plus := strings.IndexByte(core, '+'); plus >= 0 {
		core = core[:plus]
	}
	if dash := strings.IndexByte(core, '-'); dash >= 0 {
		pre = core[dash+1:]
		core = core[:dash]
	}
	parts := strings.Split(core, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return SemVer{}, false
	}
	nums := [3]int{}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return SemVer{}, false
		}
		nums[i] = n
	}
	return SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2], PreRelease: pre}, true
}

// Compare returns -1, 0, or 1 per the usual ordering convention, comparing the numeric core
// first and then treating the presence of a pre-release as "less than" no pre-release.
func (v SemVer) Compare(o SemVer) int {
	if c := compareInt(v.Major, o.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, o.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, o.Patch); c != 0 {
		return c
	}
	switch {
	case v.PreRelease == o.PreRelease:
		return 0
	case v.PreRelease == "":
		return 1
	case o.PreRelease == "":
		return -1
	default:
		return strings.Compare(v.PreRelease, o.PreRelease)
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
