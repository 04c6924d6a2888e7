package types

import "fmt"

// PackageManager identifies the system package manager found on the host
type PackageManager string

const (
	PackageManagerApt     PackageManager = "apt"
	PackageManagerDnf     PackageManager = "dnf"
	PackageManagerYum     PackageManager = "yum"
	PackageManagerPacman  PackageManager = "pacman"
	PackageManagerZypper  PackageManager = "zypper"
	PackageManagerUnknown PackageManager = "unknown"
)

// PackageManagerPriority is the order in which package managers are probed, first match wins
var PackageManagerPriority = []PackageManager{
	PackageManagerApt,
	PackageManagerDnf,
	PackageManagerYum,
	PackageManagerPacman,
	PackageManagerZypper,
}

// Binary returns the executable used to detect and drive the package manager
func (p PackageManager) Binary() string {
	switch p {
	case PackageManagerApt:
		return "apt-get"
	case PackageManagerUnknown, "":
		return ""
	default:
		return string(p)
	}
}

// ArchKind classifies a CPU architecture into the set of architectures artifacts are published for
type ArchKind string

const (
	ArchAMD64 ArchKind = "amd64"
	ArchARM64 ArchKind = "arm64"
	ArchOther ArchKind = "other"
)

// Environment describes the host the installer runs on.
// It is created once per invocation by platform.Probe and never modified.
type Environment struct {
	// OSID is the lower-cased distribution identifier (ID in /etc/os-release)
	OSID string `json:"os_id" yaml:"os_id"`
	// OSVersionID is the distribution version (VERSION_ID in /etc/os-release)
	OSVersionID string `json:"os_version_id" yaml:"os_version_id"`
	// OSPrettyName is the human readable distribution name
	OSPrettyName string `json:"os_pretty_name" yaml:"os_pretty_name"`
	// Arch is amd64, arm64 or the raw machine type for anything else
	Arch string `json:"arch" yaml:"arch"`
	// PackageManager is the first system package manager found on PATH
	PackageManager PackageManager `json:"package_manager" yaml:"package_manager"`
	// SnapAvailable is true when the snap executable is on PATH
	SnapAvailable bool `json:"snap_available" yaml:"snap_available"`
	// CanElevate is true when privileged commands can run, either as root or through sudo
	CanElevate bool `json:"can_elevate" yaml:"can_elevate"`
	// IsRoot is true when the effective user is root and no elevation is needed
	IsRoot bool `json:"is_root" yaml:"is_root"`
}

// ArchKind returns the architecture classification
func (e Environment) ArchKind() ArchKind {
	switch e.Arch {
	case string(ArchAMD64):
		return ArchAMD64
	case string(ArchARM64):
		return ArchARM64
	default:
		return ArchOther
	}
}

func (e Environment) String() string {
	name := e.OSPrettyName
	if name == "" {
		name = e.OSID
	}
	return fmt.Sprintf("%s (%s %s, %s, pm=%s, snap=%t)", name, e.OSID, e.OSVersionID, e.Arch, e.PackageManager, e.SnapAvailable)
}
