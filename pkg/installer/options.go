package installer

import (
	"context"
	"net/http"

	"github.com/flanksource/cryptnox-installer/pkg/release"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// Locator resolves the Debian package artifact for a version
type Locator interface {
	Locate(ctx context.Context, env types.Environment, version string) (*release.Artifact, error)
}

// Fetcher downloads a URL to a local file
type Fetcher interface {
	Download(ctx context.Context, url, dest string) error
}

// Option configures an Executor
type Option func(*Executor)

// WithLocator overrides how release artifacts are located
func WithLocator(l Locator) Option {
	return func(e *Executor) {
		e.locator = l
	}
}

// WithFetcher overrides how release artifacts are downloaded
func WithFetcher(f Fetcher) Option {
	return func(e *Executor) {
		e.fetcher = f
	}
}

// WithHTTPClient sets the client used for release lookups, downloads and checksum manifests
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		e.http = c
	}
}

// WithKeepArtifacts keeps downloaded packages in the scratch directory
func WithKeepArtifacts(keep bool) Option {
	return func(e *Executor) {
		e.keepArtifacts = keep
	}
}
