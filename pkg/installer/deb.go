package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/checksum"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// installDeb installs the pre-built Debian package. A download failure is returned
// as *types.ErrDownloadFailed for the caller to fall back on.
func (e *Executor) installDeb(ctx context.Context, version string) error {
	if e.env.PackageManager != types.PackageManagerApt {
		return &types.ErrWrongPackageManager{Expected: types.PackageManagerApt, Actual: e.env.PackageManager}
	}

	if err := e.packages.InstallDependencies(ctx); err != nil {
		return fmt.Errorf("failed to install dependencies: %w", err)
	}

	artifact, err := e.locator.Locate(ctx, e.env, version)
	if err != nil {
		return err
	}

	dest := filepath.Join(e.cfg.ScratchDir(), artifact.Filename)
	if !e.keepArtifacts {
		defer os.Remove(dest)
	}

	if err := e.fetcher.Download(ctx, artifact.URL, dest); err != nil {
		return err
	}

	var expected string
	if artifact.ChecksumURL != "" {
		expected = checksum.Lookup(ctx, e.http, artifact.ChecksumURL, artifact.Filename)
	}
	if _, err := checksum.Verify(dest, expected); err != nil {
		return err
	}

	if err := e.installPackageFile(ctx, dest); err != nil {
		return err
	}

	e.installPythonDeps(ctx)
	return nil
}

// installPackageFile installs a .deb, repairing missing dependencies when dpkg fails
func (e *Executor) installPackageFile(ctx context.Context, path string) error {
	install := system.Cmd("dpkg", "-i", path)
	dpkgErr := e.elevator.Exec(ctx, install)
	if dpkgErr == nil {
		return nil
	}

	logger.Warnf("dpkg reported missing dependencies, repairing with apt-get")
	repair := system.Cmd("apt-get", "install", "-f", "-y")
	if err := e.elevator.Exec(ctx, repair); err != nil {
		return &types.ErrPackageInstallFailed{
			Package:  e.cfg.DebPackage,
			Attempts: []string{install.String(), repair.String()},
			Err:      err,
		}
	}
	return nil
}

// installPythonDeps installs the pip-only dependencies not bundled in the Debian package
func (e *Executor) installPythonDeps(ctx context.Context) {
	for _, dep := range e.cfg.PythonDeps {
		if err := e.pipInstall(ctx, dep); err != nil {
			logger.Warnf("Could not install %s: %v", dep, err)
		}
	}
}
