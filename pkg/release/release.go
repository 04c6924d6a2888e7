// Package release locates the pre-built Debian packages published on GitHub.
package release

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/template"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Artifact is a downloadable Debian package and its checksum manifest
type Artifact struct {
	Filename    string
	URL         string
	ChecksumURL string
	Tag         string
}

// Locator renders artifact names and resolves their download URLs
type Locator struct {
	cfg    *config.Config
	github *github.Client
}

// NewLocator creates a Locator; gh may be nil to only use the URL template
func NewLocator(cfg *config.Config, gh *github.Client) *Locator {
	return &Locator{cfg: cfg, github: gh}
}

// NewGitHubClient creates an API client authenticated with GITHUB_TOKEN or GH_TOKEN when set
func NewGitHubClient(httpClient *http.Client) *github.Client {
	for _, name := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(name); token != "" {
			logger.V(3).Infof("Using GitHub token from %s", name)
			ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
			return github.NewClient(oauth2.NewClient(ctx, ts))
		}
	}
	return github.NewClient(httpClient)
}

// Filename renders the artifact name for version on env
func (l *Locator) Filename(env types.Environment, version string) (string, string, error) {
	tag := Tag(env, l.cfg.ReleaseTag)
	name, err := template.TemplateString(l.cfg.ArtifactTemplate, map[string]string{
		"package": l.cfg.DebPackage,
		"version": version,
		"arch":    env.Arch,
		"tag":     tag,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render artifact name: %w", err)
	}
	return strings.TrimSpace(name), tag, nil
}

func (l *Locator) templateURL(version, filename string) (string, error) {
	url, err := template.TemplateString(l.cfg.ReleaseURLTemplate, map[string]string{
		"repo":     l.cfg.ReleaseRepo,
		"version":  version,
		"filename": filename,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render release URL: %w", err)
	}
	return strings.TrimSpace(url), nil
}

// Locate returns the artifact for version on env. The GitHub API is asked for the
// release assets first; the URL template is used when the API is disabled, unreachable
// or the release does not list the asset.
func (l *Locator) Locate(ctx context.Context, env types.Environment, version string) (*Artifact, error) {
	filename, tag, err := l.Filename(env, version)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{Filename: filename, Tag: tag}
	if l.github != nil && l.cfg.UseGitHubAPI() {
		if err := l.fromAPI(ctx, version, artifact); err != nil {
			logger.V(1).Infof("GitHub release lookup failed, using URL template: %v", err)
		}
	}

	if artifact.URL == "" {
		if artifact.URL, err = l.templateURL(version, filename); err != nil {
			return nil, err
		}
	}
	if artifact.ChecksumURL == "" && l.cfg.ChecksumFile != "" {
		if artifact.ChecksumURL, err = l.templateURL(version, l.cfg.ChecksumFile); err != nil {
			return nil, err
		}
	}
	return artifact, nil
}

func (l *Locator) fromAPI(ctx context.Context, version string, artifact *Artifact) error {
	owner, repo, ok := strings.Cut(l.cfg.ReleaseRepo, "/")
	if !ok {
		return fmt.Errorf("invalid release repository %q, expected owner/repo", l.cfg.ReleaseRepo)
	}

	var rel *github.RepositoryRelease
	var lastErr error
	for _, tag := range []string{"v" + version, version} {
		r, _, err := l.github.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
		if err == nil {
			rel = r
			break
		}
		lastErr = err
	}
	if rel == nil {
		return fmt.Errorf("release %s not found in %s: %w", version, l.cfg.ReleaseRepo, lastErr)
	}

	for _, asset := range rel.Assets {
		switch asset.GetName() {
		case artifact.Filename:
			artifact.URL = asset.GetBrowserDownloadURL()
		case l.cfg.ChecksumFile:
			artifact.ChecksumURL = asset.GetBrowserDownloadURL()
		}
	}
	if artifact.URL == "" {
		return fmt.Errorf("release %s has no asset %s", rel.GetTagName(), artifact.Filename)
	}
	return nil
}
