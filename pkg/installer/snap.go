package installer

import (
	"context"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

func (e *Executor) installSnap(ctx context.Context) error {
	if !system.Has(e.runner, "snap") {
		if err := e.bootstrapSnap(ctx); err != nil {
			return err
		}
	}

	if err := e.elevator.Exec(ctx, system.Cmd("snap", "install", e.cfg.Snap)); err != nil {
		return &types.ErrPackageInstallFailed{Package: e.cfg.Snap, Attempts: []string{"snap install " + e.cfg.Snap}, Err: err}
	}

	e.ConnectSnapInterfaces(ctx)
	return nil
}

// ConnectSnapInterfaces grants the device-access interfaces, failures only warn
func (e *Executor) ConnectSnapInterfaces(ctx context.Context) {
	for _, iface := range e.cfg.SnapInterfaces {
		plug := e.cfg.Snap + ":" + iface
		if err := e.elevator.Exec(ctx, system.Cmd("snap", "connect", plug)); err != nil {
			logger.Warnf("Could not connect %s, card readers may not be accessible: %v", plug, err)
		}
	}
}

func (e *Executor) bootstrapSnap(ctx context.Context) error {
	pm := e.packages.Manager()
	if pm == types.PackageManagerUnknown {
		return &types.ErrCannotBootstrapSnap{PackageManager: pm}
	}

	logger.Infof("snap not found, installing snapd with %s", pm)
	if err := e.packages.Install(ctx, "snapd"); err != nil {
		return &types.ErrCannotBootstrapSnap{PackageManager: pm, Err: err}
	}
	if err := e.elevator.Exec(ctx, system.Cmd("systemctl", "enable", "--now", "snapd.socket")); err != nil {
		logger.Warnf("Could not enable snapd.socket: %v", err)
	}
	return nil
}
