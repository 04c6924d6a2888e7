package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// LoadDefaultConfig loads the embedded default configuration
func LoadDefaultConfig() (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(defaultConfigYAML, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded default config: %w", err)
	}
	return &config, nil
}

// mergeConfig overlays user-provided fields on top of the defaults.
// Fields the user leaves empty keep their default value.
func mergeConfig(base, user *Config) *Config {
	merged := *base

	mergeString(&merged.Package, user.Package)
	mergeString(&merged.Binary, user.Binary)
	mergeString(&merged.Snap, user.Snap)
	mergeString(&merged.DebPackage, user.DebPackage)
	mergeString(&merged.DefaultVersion, user.DefaultVersion)
	mergeString(&merged.PyPIURL, user.PyPIURL)
	mergeString(&merged.ReleaseRepo, user.ReleaseRepo)
	mergeString(&merged.ReleaseURLTemplate, user.ReleaseURLTemplate)
	mergeString(&merged.ArtifactTemplate, user.ArtifactTemplate)
	mergeString(&merged.ReleaseTag, user.ReleaseTag)
	mergeString(&merged.ChecksumFile, user.ChecksumFile)
	mergeString(&merged.Service, user.Service)
	mergeString(&merged.TmpDir, user.TmpDir)
	mergeString(&merged.NFCBlacklistFile, user.NFCBlacklistFile)

	if user.GitHubAPI != nil {
		merged.GitHubAPI = user.GitHubAPI
	}
	if user.PythonDeps != nil {
		merged.PythonDeps = user.PythonDeps
	}
	if len(user.SnapInterfaces) > 0 {
		merged.SnapInterfaces = user.SnapInterfaces
	}
	if len(user.NFCModules) > 0 {
		merged.NFCModules = user.NFCModules
	}
	if len(user.NFCUnloadOrder) > 0 {
		merged.NFCUnloadOrder = user.NFCUnloadOrder
	}
	if user.ReaderScanTimeout.Duration > 0 {
		merged.ReaderScanTimeout = user.ReaderScanTimeout
	}
	if user.HTTPTimeout.Duration > 0 {
		merged.HTTPTimeout = user.HTTPTimeout
	}
	return &merged
}

func mergeString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
