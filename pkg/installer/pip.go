package installer

import (
	"context"
	"errors"
	"fmt"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// installPipChannel installs the system dependencies then the tool through pip
func (e *Executor) installPipChannel(ctx context.Context, version string) error {
	if err := e.packages.InstallDependencies(ctx); err != nil {
		var unknown *types.ErrUnknownPackageManager
		if !errors.As(err, &unknown) {
			return fmt.Errorf("failed to install dependencies: %w", err)
		}
		logger.Warnf("%v", unknown)
	}
	return e.InstallPip(ctx, version)
}

// InstallPip installs or upgrades the tool at version through pip
func (e *Executor) InstallPip(ctx context.Context, version string) error {
	return e.pipInstall(ctx, fmt.Sprintf("%s==%s", e.cfg.Package, version))
}

// Python returns the interpreter used to run pip
func (e *Executor) Python() string {
	if system.Has(e.runner, "python3") || !system.Has(e.runner, "python") {
		return "python3"
	}
	return "python"
}

// PipCommands returns the install variants tried in order for requirement
func (e *Executor) PipCommands(requirement string) []system.Command {
	base := []string{"-m", "pip", "install"}
	if !e.env.IsRoot {
		base = append(base, "--user")
	}
	base = append(base, "--upgrade")

	withOverride := append(append([]string{}, base...), "--break-system-packages", requirement)
	plain := append(append([]string{}, base...), requirement)
	return []system.Command{
		system.Cmd(e.Python(), withOverride...),
		system.Cmd(e.Python(), plain...),
	}
}

func (e *Executor) pipInstall(ctx context.Context, requirement string) error {
	var attempts []string
	var lastErr error
	for _, cmd := range e.PipCommands(requirement) {
		attempts = append(attempts, cmd.String())
		result := e.runner.Run(ctx, cmd)
		if result.OK() {
			return nil
		}
		lastErr = result.Error(cmd)
		logger.V(1).Infof("%v", lastErr)
	}
	return &types.ErrPackageInstallFailed{Package: requirement, Attempts: attempts, Err: lastErr}
}
