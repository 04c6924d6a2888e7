// Package lifecycle reports on and maintains an existing installation across every channel.
package lifecycle

import (
	"bufio"
	"context"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/installer"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/flanksource/cryptnox-installer/pkg/version"
	"github.com/samber/lo"
)

// Reporter inspects and maintains the installed tool
type Reporter struct {
	env      types.Environment
	cfg      *config.Config
	runner   system.Runner
	executor *installer.Executor
	resolver *version.Resolver
}

func New(cfg *config.Config, runner system.Runner, executor *installer.Executor, resolver *version.Resolver) *Reporter {
	return &Reporter{
		env:      executor.Environment(),
		cfg:      cfg,
		runner:   runner,
		executor: executor,
		resolver: resolver,
	}
}

// Versions probes every channel independently and looks up the latest published version.
// Channels where the tool is not installed are omitted. It never fails.
func (r *Reporter) Versions(ctx context.Context) types.VersionReport {
	report := types.VersionReport{Installed: map[types.Strategy]string{}}

	probes := map[types.Strategy]func(context.Context) string{
		types.StrategySnap:      r.snapVersion,
		types.StrategyDebian:    r.debVersion,
		types.StrategyRpmOrPip:  r.rpmVersion,
		types.StrategyNativePip: r.pipVersion,
	}
	for _, s := range types.Strategies {
		if v := probes[s](ctx); v != "" {
			logger.V(2).Infof("Found %s %s via %s", r.cfg.Package, v, s.DisplayName())
			report.Installed[s] = v
		}
	}

	if r.resolver != nil {
		report.Latest = r.resolver.Latest(ctx)
	}
	return report
}

// ActiveChannel returns the highest priority channel the tool is installed through
func ActiveChannel(report types.VersionReport) types.Strategy {
	if channels := report.Channels(); len(channels) > 0 {
		return channels[0]
	}
	return types.StrategyNone
}

func (r *Reporter) capture(ctx context.Context, name string, args ...string) (string, bool) {
	if !system.Has(r.runner, name) {
		return "", false
	}
	result := r.runner.Run(ctx, system.Cmd(name, args...))
	if !result.OK() {
		return "", false
	}
	return strings.TrimSpace(result.Stdout), true
}

func (r *Reporter) snapVersion(ctx context.Context) string {
	out, ok := r.capture(ctx, "snap", "list", r.cfg.Snap)
	if !ok {
		return ""
	}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == r.cfg.Snap {
			return fields[1]
		}
	}
	return ""
}

func (r *Reporter) debVersion(ctx context.Context) string {
	out, ok := r.capture(ctx, "dpkg-query", "-W", "-f=${Version}", r.cfg.DebPackage)
	if !ok || out == "" {
		return ""
	}
	return version.DebianUpstream(out)
}

func (r *Reporter) rpmVersion(ctx context.Context) string {
	out, ok := r.capture(ctx, "rpm", "-q", "--qf", "%{VERSION}", r.cfg.DebPackage)
	if !ok || !version.IsValid(out) {
		return ""
	}
	return out
}

// distroSitePackages are the module directories owned by the system package manager
var distroSitePackages = []string{"/usr/lib/python3", "/usr/lib64/python3"}

// pipVersion reports the pip installed version. Modules the Debian or RPM package placed in
// the distribution's site-packages also show up in pip and are not a pip installation.
func (r *Reporter) pipVersion(ctx context.Context) string {
	out, ok := r.capture(ctx, r.executor.Python(), "-m", "pip", "show", r.cfg.Package)
	if !ok {
		return ""
	}
	var v, location string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if value, found := strings.CutPrefix(line, "Version:"); found {
			v = strings.TrimSpace(value)
		} else if value, found := strings.CutPrefix(line, "Location:"); found {
			location = strings.TrimSpace(value)
		}
	}
	if lo.SomeBy(distroSitePackages, func(prefix string) bool { return strings.HasPrefix(location, prefix) }) {
		logger.V(2).Infof("Ignoring %s in %s, owned by the system package manager", r.cfg.Package, location)
		return ""
	}
	return v
}
