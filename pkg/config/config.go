package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// SystemConfigFile is read when no explicit config path is given
	SystemConfigFile = "/etc/cryptnox-installer.yaml"
	// VersionEnv overrides the version to install
	VersionEnv = "CRYPTNOX_VERSION"
)

// Config holds the names, endpoints and tunables of the installer
type Config struct {
	// Package is the PyPI distribution name
	Package string `yaml:"package"`
	// Binary is the executable the package installs
	Binary string `yaml:"binary"`
	// Snap is the snap store package name
	Snap string `yaml:"snap"`
	// DebPackage is the dpkg/rpm package name
	DebPackage string `yaml:"deb_package"`
	// DefaultVersion is used when no override is given and the package index is unreachable
	DefaultVersion string `yaml:"default_version"`
	// PyPIURL is the JSON endpoint template for the package index, supports {{.package}}
	PyPIURL string `yaml:"pypi_url"`
	// ReleaseRepo is the GitHub owner/repo hosting pre-built Debian packages
	ReleaseRepo string `yaml:"release_repo"`
	// ReleaseURLTemplate builds asset download URLs, supports {{.repo}}, {{.version}}, {{.filename}}
	ReleaseURLTemplate string `yaml:"release_url_template"`
	// ArtifactTemplate builds the .deb filename, supports {{.package}}, {{.version}}, {{.arch}}, {{.tag}}
	ArtifactTemplate string `yaml:"artifact_template"`
	// ReleaseTag pins the OS release tag instead of deriving it from the host
	ReleaseTag string `yaml:"release_tag,omitempty"`
	// ChecksumFile is the checksum manifest published alongside the release assets
	ChecksumFile string `yaml:"checksum_file"`
	// GitHubAPI enables release asset lookup through the GitHub API before falling back to ReleaseURLTemplate
	GitHubAPI *bool `yaml:"github_api,omitempty"`
	// PythonDeps are pip-only dependencies not bundled in the Debian package
	PythonDeps []string `yaml:"python_deps"`
	// SnapInterfaces are the device-access interfaces connected after snap install
	SnapInterfaces []string `yaml:"snap_interfaces"`
	// Service is the smartcard middleware daemon
	Service string `yaml:"service"`
	// ReaderScanTimeout bounds the card reader scan in --status
	ReaderScanTimeout Duration `yaml:"reader_scan_timeout"`
	HTTPTimeout       Duration `yaml:"http_timeout"`
	// TmpDir is the scratch directory for downloads, defaults to os.TempDir()
	TmpDir string `yaml:"tmp_dir,omitempty"`
	// NFCBlacklistFile is written by --setup
	NFCBlacklistFile string `yaml:"nfc_blacklist_file"`
	// NFCModules are the kernel modules blacklisted by --setup
	NFCModules []string `yaml:"nfc_modules"`
	// NFCUnloadOrder is the order --setup unloads the modules in, dependents first
	NFCUnloadOrder []string `yaml:"nfc_unload_order"`
}

// UseGitHubAPI reports whether release assets should be looked up through the GitHub API
func (c *Config) UseGitHubAPI() bool {
	return c.GitHubAPI == nil || *c.GitHubAPI
}

// ScratchDir returns the directory for temporary downloads
func (c *Config) ScratchDir() string {
	if c.TmpDir != "" {
		return c.TmpDir
	}
	return os.TempDir()
}

// Duration is a time.Duration that unmarshals from strings such as "5s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// LoadConfig loads the user config file at path and merges it over the embedded defaults.
// An empty path reads SystemConfigFile if it exists.
func LoadConfig(path string) (*Config, error) {
	defaults, err := LoadDefaultConfig()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = SystemConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var user Config
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	merged := mergeConfig(defaults, &user)
	if merged.TmpDir != "" && !filepath.IsAbs(merged.TmpDir) {
		if abs, err := filepath.Abs(merged.TmpDir); err == nil {
			merged.TmpDir = abs
		}
	}
	return merged, nil
}

// VersionOverride returns the version pinned through the environment, if any
func VersionOverride() string {
	return os.Getenv(VersionEnv)
}
