package types

import (
	"fmt"
	"strings"
)

// ErrInvalidVersionFormat is returned when a version does not match MAJOR.MINOR.PATCH[-suffix]
type ErrInvalidVersionFormat struct {
	Version string
	Source  string
}

func (e *ErrInvalidVersionFormat) Error() string {
	msg := fmt.Sprintf("invalid version format %q (expected MAJOR.MINOR.PATCH[-suffix])", e.Version)
	if e.Source != "" {
		msg += " from " + e.Source
	}
	return msg
}

// ErrMissingElevationTool is returned when a privileged command is needed but neither root nor sudo is available
type ErrMissingElevationTool struct {
	Command string
}

func (e *ErrMissingElevationTool) Error() string {
	return "sudo is required to run " + e.Command + " but was not found, re-run as root"
}

// ErrCannotBootstrapSnap is returned when snapd is missing and cannot be installed
type ErrCannotBootstrapSnap struct {
	PackageManager PackageManager
	Err            error
}

func (e *ErrCannotBootstrapSnap) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot install snapd with %s: %v", e.PackageManager, e.Err)
	}
	return fmt.Sprintf("cannot install snapd: package manager %s is not supported", e.PackageManager)
}

func (e *ErrCannotBootstrapSnap) Unwrap() error {
	return e.Err
}

// ErrWrongPackageManager is returned when a strategy requires a package manager the host does not have
type ErrWrongPackageManager struct {
	Expected PackageManager
	Actual   PackageManager
}

func (e *ErrWrongPackageManager) Error() string {
	return fmt.Sprintf("package manager %s is required, found %s", e.Expected, e.Actual)
}

// ErrChecksumMismatch is returned when checksums don't match
type ErrChecksumMismatch struct {
	Expected string
	Actual   string
	File     string
}

func (e *ErrChecksumMismatch) Error() string {
	return "checksum mismatch for " + e.File + ": expected " + e.Expected + ", got " + e.Actual
}

// ErrPackageInstallFailed is returned when every install attempt for a package failed
type ErrPackageInstallFailed struct {
	Package  string
	Attempts []string
	Err      error
}

func (e *ErrPackageInstallFailed) Error() string {
	msg := "failed to install " + e.Package
	if len(e.Attempts) > 0 {
		msg += " (tried: " + strings.Join(e.Attempts, "; ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ErrPackageInstallFailed) Unwrap() error {
	return e.Err
}

// ErrDownloadFailed is returned when an artifact could not be downloaded.
// It is recoverable: the Debian package strategy falls back to pip.
type ErrDownloadFailed struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ErrDownloadFailed) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download of %s failed: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download of %s failed: %v", e.URL, e.Err)
}

func (e *ErrDownloadFailed) Unwrap() error {
	return e.Err
}

// ErrUnknownPackageManager is reported when no supported package manager was found.
// It is never fatal, callers log it with a manual-action suggestion.
type ErrUnknownPackageManager struct {
	Packages []string
}

func (e *ErrUnknownPackageManager) Error() string {
	return "no supported package manager found, install manually: " + strings.Join(e.Packages, " ")
}
