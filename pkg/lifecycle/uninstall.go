package lifecycle

import (
	"context"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// Uninstall removes the tool from every channel it is found in. Running it again
// once nothing is installed is a no-op.
func (r *Reporter) Uninstall(ctx context.Context) types.UninstallReport {
	report := types.UninstallReport{Failed: map[types.Strategy]string{}}

	channels := r.Versions(ctx).Channels()
	if len(channels) == 0 {
		logger.Warnf("%s is not installed through any channel", r.cfg.Package)
		return report
	}

	for _, channel := range channels {
		if err := r.remove(ctx, channel); err != nil {
			logger.Errorf("Failed to remove %s installed via %s: %v", r.cfg.Package, channel.DisplayName(), err)
			report.Failed[channel] = err.Error()
			continue
		}
		logger.Infof("Removed %s installed via %s", r.cfg.Package, channel.DisplayName())
		report.Removed = append(report.Removed, channel)
	}
	report.Sort()
	return report
}

func (r *Reporter) remove(ctx context.Context, channel types.Strategy) error {
	elevator := r.executor.Elevator()
	pm := r.env.PackageManager

	switch channel {
	case types.StrategySnap:
		return elevator.Exec(ctx, system.Cmd("snap", "remove", r.cfg.Snap))
	case types.StrategyDebian:
		if pm == types.PackageManagerApt {
			return r.executor.Packages().Remove(ctx, r.cfg.DebPackage)
		}
		return elevator.Exec(ctx, system.Cmd("dpkg", "-r", r.cfg.DebPackage))
	case types.StrategyRpmOrPip:
		switch pm {
		case types.PackageManagerDnf, types.PackageManagerYum, types.PackageManagerZypper:
			return r.executor.Packages().Remove(ctx, r.cfg.DebPackage)
		}
		return elevator.Exec(ctx, system.Cmd("rpm", "-e", r.cfg.DebPackage))
	default:
		return r.pipUninstall(ctx)
	}
}

func (r *Reporter) pipUninstall(ctx context.Context) error {
	python := r.executor.Python()
	variants := []system.Command{
		system.Cmd(python, "-m", "pip", "uninstall", "-y", "--break-system-packages", r.cfg.Package),
		system.Cmd(python, "-m", "pip", "uninstall", "-y", r.cfg.Package),
	}
	var err error
	for _, cmd := range variants {
		if err = r.runner.Run(ctx, cmd).Error(cmd); err == nil {
			return nil
		}
	}
	return err
}
