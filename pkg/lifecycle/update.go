package lifecycle

import (
	"context"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/strategy"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/flanksource/cryptnox-installer/pkg/version"
)

// Update upgrades the tool through the channel it is installed with.
// Without an existing installation it installs with the selected strategy.
func (r *Reporter) Update(ctx context.Context, target string) (types.Outcome, error) {
	report := r.Versions(ctx)
	active := ActiveChannel(report)

	if active == types.StrategyNone {
		s := strategy.Select(r.env)
		logger.Infof("%s is not installed, installing with %s", r.cfg.Package, s.DisplayName())
		return r.executor.Execute(ctx, s, target)
	}

	installed := report.Installed[active]
	outcome := types.Outcome{Requested: active, Channel: active, Version: target}
	if active != types.StrategySnap && version.IsUpToDate(installed, target) {
		logger.Infof("%s %s is already up to date (%s)", r.cfg.Package, installed, active.DisplayName())
		outcome.Version = installed
		outcome.Success = true
		return outcome, nil
	}

	logger.Infof("Updating %s %s to %s via %s", r.cfg.Package, installed, target, active.DisplayName())

	var err error
	switch active {
	case types.StrategySnap:
		err = r.executor.Elevator().Exec(ctx, system.Cmd("snap", "refresh", r.cfg.Snap))
	case types.StrategyDebian:
		return r.executor.Execute(ctx, types.StrategyDebian, target)
	case types.StrategyRpmOrPip:
		err = r.executor.Packages().Upgrade(ctx, r.cfg.DebPackage)
	case types.StrategyNativePip:
		err = r.executor.InstallPip(ctx, target)
	}
	if err != nil {
		return outcome, err
	}
	outcome.Success = true
	return outcome, nil
}
