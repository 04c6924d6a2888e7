package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	installerhttp "github.com/flanksource/cryptnox-installer/pkg/http"
	"github.com/flanksource/cryptnox-installer/pkg/installer"
	"github.com/flanksource/cryptnox-installer/pkg/lifecycle"
	"github.com/flanksource/cryptnox-installer/pkg/platform"
	"github.com/flanksource/cryptnox-installer/pkg/pypi"
	"github.com/flanksource/cryptnox-installer/pkg/setup"
	"github.com/flanksource/cryptnox-installer/pkg/strategy"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/template"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/flanksource/cryptnox-installer/pkg/version"
)

// app holds the components shared by every action of one invocation
type app struct {
	cfg      *config.Config
	http     *http.Client
	runner   system.Runner
	index    *pypi.Client
	resolver *version.Resolver
	executor *installer.Executor
	reporter *lifecycle.Reporter
}

func newApp(cfg *config.Config, runner system.Runner) (*app, error) {
	env := platform.Probe()
	logger.V(1).Infof("Detected %s", env)

	client := installerhttp.GetHttpClient(
		installerhttp.WithTimeout(cfg.HTTPTimeout.Duration),
		installerhttp.WithUserAgent(userAgent()),
	)
	return buildApp(cfg, env, runner, client, installer.WithKeepArtifacts(keepArtifacts))
}

func buildApp(cfg *config.Config, env types.Environment, runner system.Runner, client *http.Client, opts ...installer.Option) (*app, error) {
	url, err := indexURL(cfg)
	if err != nil {
		return nil, err
	}
	index := pypi.NewClient(client, url)
	resolver := version.NewResolver(index, cfg.DefaultVersion)
	executor := installer.New(env, cfg, runner, append([]installer.Option{installer.WithHTTPClient(client)}, opts...)...)

	return &app{
		cfg:      cfg,
		http:     client,
		runner:   runner,
		index:    index,
		resolver: resolver,
		executor: executor,
		reporter: lifecycle.New(cfg, runner, executor, resolver),
	}, nil
}

// indexURL renders the package index JSON endpoint for the configured package
func indexURL(cfg *config.Config) (string, error) {
	url, err := template.TemplateString(cfg.PyPIURL, map[string]string{"package": cfg.Package})
	if err != nil {
		return "", fmt.Errorf("invalid pypi_url: %w", err)
	}
	return url, nil
}

func run(ctx context.Context, out io.Writer, act action) error {
	a, err := newApp(cfg, system.NewExecRunner())
	if err != nil {
		return err
	}
	return a.dispatch(ctx, out, act)
}

func (a *app) dispatch(ctx context.Context, out io.Writer, act action) error {
	tool := a.cfg.Package

	switch act {
	case actionVersions:
		return printVersions(out, tool, a.reporter.Versions(ctx))

	case actionStatus:
		return printStatus(out, tool, a.reporter.Status(ctx))

	case actionUninstall:
		report := a.reporter.Uninstall(ctx)
		printUninstall(out, tool, report)
		if len(report.Failed) > 0 {
			return fmt.Errorf("failed to remove %s from %d channel(s)", tool, len(report.Failed))
		}
		return nil

	case actionSetup:
		if err := setup.New(a.cfg, a.executor.Elevator(), a.executor.Packages()).Run(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Card reader setup complete\n", green("✅"))
		return nil
	}

	target, err := a.resolver.Resolve(ctx, config.VersionOverride())
	if err != nil {
		return err
	}

	if act == actionUpdate {
		outcome, err := a.reporter.Update(ctx, target)
		printOutcome(out, tool, outcome)
		return err
	}

	s, explicit := act.strategy()
	if !explicit {
		var family strategy.Family
		s, family = strategy.SelectWithFamily(a.executor.Environment())
		logger.Infof("Detected %s family, installing via %s", family, s.DisplayName())
	}

	outcome, err := a.executor.Execute(ctx, s, target)
	printOutcome(out, tool, outcome)
	return err
}
