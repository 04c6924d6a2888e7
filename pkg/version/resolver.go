package version

import (
	"context"
	"strings"

	"github.com/flanksource/commons/logger"
)

// Lookup queries a remote package index for the latest published version
type Lookup interface {
	LatestVersion(ctx context.Context) (string, error)
}

// Resolver determines the version to install
type Resolver struct {
	lookup         Lookup
	defaultVersion string
}

// NewResolver creates a resolver; lookup may be nil to disable the remote lookup
func NewResolver(lookup Lookup, defaultVersion string) *Resolver {
	return &Resolver{lookup: lookup, defaultVersion: defaultVersion}
}

// Resolve returns, in priority order, the override, the latest version from the
// package index, or the built-in default. The override and the looked up version are
// validated; the default is trusted.
func (r *Resolver) Resolve(ctx context.Context, override string) (string, error) {
	if override != "" {
		if err := Validate(override, "override"); err != nil {
			return "", err
		}
		logger.V(2).Infof("Using version %s from override", override)
		return override, nil
	}

	if latest := r.Latest(ctx); latest != "" {
		if err := Validate(latest, "package index"); err != nil {
			return "", err
		}
		logger.V(2).Infof("Using latest version %s from package index", latest)
		return latest, nil
	}

	logger.V(2).Infof("Using default version %s", r.defaultVersion)
	return r.defaultVersion, nil
}

// Latest returns the latest published version, or empty when the lookup fails
func (r *Resolver) Latest(ctx context.Context) string {
	if r.lookup == nil {
		return ""
	}
	latest, err := r.lookup.LatestVersion(ctx)
	if err != nil {
		logger.V(1).Infof("Latest version lookup failed: %v", err)
		return ""
	}
	return strings.TrimSpace(latest)
}
