// Package debbuild packages the tool's PyPI source distribution as a Debian package.
package debbuild

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/commons/files"
	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/checksum"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/pypi"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/template"
	"github.com/flanksource/cryptnox-installer/pkg/utils"
	"github.com/flanksource/cryptnox-installer/pkg/version"
)

const DefaultMaintainer = "Cryptnox <info@cryptnox.ch>"

// Fetcher downloads a URL to a local file
type Fetcher interface {
	Download(ctx context.Context, url, dest string) error
}

// Options controls a build
type Options struct {
	Version   string
	OutputDir string
	// Keep preserves the work directory for inspection
	Keep       bool
	Maintainer string
}

type Builder struct {
	cfg     *config.Config
	runner  system.Runner
	index   *pypi.Client
	fetcher Fetcher
	now     func() time.Time
}

func New(cfg *config.Config, runner system.Runner, index *pypi.Client, fetcher Fetcher) *Builder {
	return &Builder{cfg: cfg, runner: runner, index: index, fetcher: fetcher, now: time.Now}
}

// Build produces a .deb for opts.Version in opts.OutputDir and returns its path
func (b *Builder) Build(ctx context.Context, opts Options) (string, error) {
	if !system.Has(b.runner, "dpkg-buildpackage") {
		return "", fmt.Errorf("dpkg-buildpackage not found, install dpkg-dev debhelper dh-python")
	}
	if opts.Maintainer == "" {
		opts.Maintainer = DefaultMaintainer
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	dist, err := b.index.Sdist(ctx, opts.Version)
	if err != nil {
		return "", err
	}

	workDir, err := os.MkdirTemp(b.cfg.ScratchDir(), "cryptnox-deb-")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	if opts.Keep {
		logger.Infof("Keeping work directory %s", workDir)
	} else {
		defer os.RemoveAll(workDir)
	}

	archive := filepath.Join(workDir, dist.Filename)
	if err := b.fetcher.Download(ctx, dist.URL, archive); err != nil {
		return "", err
	}
	if _, err := checksum.Verify(archive, dist.SHA256); err != nil {
		return "", err
	}

	if err := files.Untar(archive, workDir); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", dist.Filename, err)
	}
	srcDir, err := findSourceTree(workDir)
	if err != nil {
		return "", err
	}

	summary, err := b.index.Summary(ctx)
	if err != nil || summary == "" {
		summary = b.cfg.Package
	}
	data := map[string]interface{}{
		"package":    b.cfg.DebPackage,
		"version":    version.DebianVersion(opts.Version),
		"maintainer": opts.Maintainer,
		"summary":    summary,
		"homepage":   "https://github.com/" + b.cfg.ReleaseRepo,
		"date":       b.now().Format(time.RFC1123Z),
	}
	debianDir := filepath.Join(srcDir, "debian")
	if err := template.RenderFiles(debianDir, debianFiles, data, 0644); err != nil {
		return "", err
	}
	if err := template.RenderFiles(debianDir, executableFiles, data, 0755); err != nil {
		return "", err
	}

	logger.Infof("Building %s %s in %s", b.cfg.DebPackage, opts.Version, utils.LogPath(srcDir))
	build := system.Cmd("dpkg-buildpackage", "-us", "-uc", "-b").WithDir(srcDir)
	if err := b.runner.Run(ctx, build).Error(build); err != nil {
		return "", err
	}

	built, err := doublestar.FilepathGlob(filepath.Join(workDir, b.cfg.DebPackage+"_*.deb"))
	if err != nil || len(built) == 0 {
		return "", fmt.Errorf("dpkg-buildpackage produced no package in %s", workDir)
	}

	dest := filepath.Join(opts.OutputDir, filepath.Base(built[0]))
	if err := copyFile(built[0], dest); err != nil {
		return "", err
	}
	return dest, nil
}

// findSourceTree returns the extracted project directory
func findSourceTree(dir string) (string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, "*", "{setup.py,pyproject.toml}"))
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no setup.py or pyproject.toml found in the source distribution")
	}
	return filepath.Dir(matches[0]), nil
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
