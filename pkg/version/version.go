package version

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// pattern is the accepted version grammar: MAJOR.MINOR.PATCH with an optional -suffix
var pattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[A-Za-z0-9.]+)?$`)

// Validate returns ErrInvalidVersionFormat unless version matches MAJOR.MINOR.PATCH[-suffix]
func Validate(version, source string) error {
	if !pattern.MatchString(version) {
		return &types.ErrInvalidVersionFormat{Version: version, Source: source}
	}
	return nil
}

// IsValid reports whether version matches the accepted grammar
func IsValid(version string) bool {
	return pattern.MatchString(version)
}

// Normalize trims whitespace and a leading v from versions reported by package tools
func Normalize(version string) string {
	version = strings.TrimSpace(version)
	version = strings.TrimPrefix(version, "v")
	version = strings.TrimPrefix(version, "V")
	return version
}

// DebianUpstream strips the epoch and numeric Debian revision from a dpkg version,
// e.g. "1:1.0.3-1" -> "1.0.3", and restores "~" pre-release separators to "-"
func DebianUpstream(version string) string {
	version = Normalize(version)
	if idx := strings.Index(version, ":"); idx >= 0 {
		version = version[idx+1:]
	}
	if idx := strings.LastIndex(version, "-"); idx > 0 {
		revision := version[idx+1:]
		if revision != "" && strings.Trim(revision, "0123456789.") == "" && strings.Count(version[:idx], ".") >= 2 {
			version = version[:idx]
		}
	}
	return strings.ReplaceAll(version, "~", "-")
}

// DebianVersion turns a version into a native Debian package version. Pre-release
// separators become "~" so pre-releases sort before their release.
func DebianVersion(version string) string {
	return strings.ReplaceAll(Normalize(version), "-", "~")
}

// Compare compares two version strings, normalizing them first
// Returns -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func Compare(v1, v2 string) int {
	norm1 := Normalize(v1)
	norm2 := Normalize(v2)

	if norm1 == norm2 {
		return 0
	}

	sv1, err1 := semver.NewVersion(norm1)
	sv2, err2 := semver.NewVersion(norm2)
	if err1 != nil || err2 != nil {
		return strings.Compare(norm1, norm2)
	}

	return sv1.Compare(sv2)
}

// IsUpToDate reports whether installed is at least target
func IsUpToDate(installed, target string) bool {
	if installed == "" || target == "" {
		return false
	}
	return Compare(installed, target) >= 0
}
