package installer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/download"
	installerhttp "github.com/flanksource/cryptnox-installer/pkg/http"
	"github.com/flanksource/cryptnox-installer/pkg/release"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
)

// Executor runs installation strategies on a probed host
type Executor struct {
	env           types.Environment
	cfg           *config.Config
	runner        system.Runner
	elevator      *system.Elevator
	packages      *system.Packages
	http          *http.Client
	locator       Locator
	fetcher       Fetcher
	keepArtifacts bool
}

func New(env types.Environment, cfg *config.Config, runner system.Runner, opts ...Option) *Executor {
	elevator := system.NewElevator(runner, env)
	e := &Executor{
		env:      env,
		cfg:      cfg,
		runner:   runner,
		elevator: elevator,
		packages: system.NewPackages(env.PackageManager, elevator),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.http == nil {
		e.http = installerhttp.GetHttpClient(installerhttp.WithTimeout(cfg.HTTPTimeout.Duration))
	}
	if e.locator == nil {
		e.locator = release.NewLocator(cfg, release.NewGitHubClient(e.http))
	}
	if e.fetcher == nil {
		e.fetcher = download.New(e.http)
	}
	return e
}

// Environment returns the host the executor was created for
func (e *Executor) Environment() types.Environment {
	return e.env
}

func (e *Executor) Elevator() *system.Elevator {
	return e.elevator
}

func (e *Executor) Packages() *system.Packages {
	return e.packages
}

// Execute runs strategy for version. A Debian package that cannot be downloaded
// falls back to native pip, which Outcome reports as the channel that ran.
func (e *Executor) Execute(ctx context.Context, strategy types.Strategy, version string) (types.Outcome, error) {
	outcome := types.Outcome{Requested: strategy, Channel: strategy, Version: version}
	logger.Infof("Installing %s %s using %s", e.cfg.Package, version, strategy.DisplayName())

	var err error
	switch strategy {
	case types.StrategySnap:
		err = e.installSnap(ctx)
	case types.StrategyDebian:
		err = e.installDeb(ctx, version)
		var downloadErr *types.ErrDownloadFailed
		if errors.As(err, &downloadErr) {
			logger.Warnf("%v, falling back to %s", downloadErr, types.StrategyNativePip.DisplayName())
			outcome.Channel = types.StrategyNativePip
			outcome.Fallback = types.StrategyNativePip
			err = e.installPipChannel(ctx, version)
		}
	case types.StrategyRpmOrPip, types.StrategyNativePip:
		err = e.installPipChannel(ctx, version)
	default:
		err = fmt.Errorf("unknown installation strategy %q", strategy)
	}

	if err != nil {
		return outcome, err
	}

	if outcome.Channel != types.StrategySnap {
		e.postInstall(ctx)
	}
	outcome.Success = true
	return outcome, nil
}

// postInstall enables the smartcard service and checks the tool is reachable
func (e *Executor) postInstall(ctx context.Context) {
	if e.cfg.Service != "" && system.Has(e.runner, "systemctl") {
		if err := e.elevator.Exec(ctx, system.Cmd("systemctl", "enable", "--now", e.cfg.Service)); err != nil {
			logger.Warnf("Could not enable %s: %v", e.cfg.Service, err)
		}
	}

	if e.cfg.Binary != "" && !system.Has(e.runner, e.cfg.Binary) {
		logger.Warnf("%s is not on PATH, add ~/.local/bin to PATH or open a new shell", e.cfg.Binary)
	}
}
