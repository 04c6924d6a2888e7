package lifecycle

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/samber/lo"
)

const DefaultReaderScanTimeout = 5 * time.Second

var readerIndex = regexp.MustCompile(`^\s*\d+:\s*`)

// Status reports the smartcard service state, installed versions, snap interface
// connections and attached card readers
func (r *Reporter) Status(ctx context.Context) types.StatusReport {
	report := types.StatusReport{Environment: r.env}

	report.ServiceState = r.serviceState(ctx)
	report.ServiceActive = report.ServiceState == "active"
	report.Versions = r.Versions(ctx)

	if _, ok := report.Versions.Installed[types.StrategySnap]; ok {
		report.Interfaces = r.snapInterfaces(ctx)
	}

	report.Readers, report.ReaderScanError = r.scanReaders(ctx)
	return report
}

func (r *Reporter) serviceState(ctx context.Context) string {
	if !system.Has(r.runner, "systemctl") {
		return "unknown"
	}
	result := r.runner.Run(ctx, system.Cmd("systemctl", "is-active", r.cfg.Service))
	state := strings.TrimSpace(result.Stdout)
	if state == "" {
		return "unknown"
	}
	return state
}

func (r *Reporter) snapInterfaces(ctx context.Context) []string {
	out, ok := r.capture(ctx, "snap", "connections", r.cfg.Snap)
	if !ok {
		return nil
	}
	lines := lo.Filter(strings.Split(out, "\n"), func(line string, _ int) bool {
		return lo.SomeBy(r.cfg.SnapInterfaces, func(iface string) bool {
			return strings.Contains(line, iface)
		})
	})
	return lo.Map(lines, func(line string, _ int) string {
		return strings.TrimSpace(line)
	})
}

// scanReaders lists attached readers, bounded by the reader scan timeout
func (r *Reporter) scanReaders(ctx context.Context) ([]string, string) {
	if !system.Has(r.runner, "pcsc_scan") {
		return nil, "pcsc_scan not found, install pcsc-tools"
	}

	timeout := r.cfg.ReaderScanTimeout.Duration
	if timeout <= 0 {
		timeout = DefaultReaderScanTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := system.Cmd("pcsc_scan", "-r").WithTimeout(timeout)
	result := r.runner.Run(ctx, cmd)
	if ctx.Err() != nil {
		return nil, fmt.Sprintf("reader scan timed out after %s", timeout)
	}
	if !result.OK() {
		return nil, result.Error(cmd).Error()
	}

	var readers []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(readerIndex.ReplaceAllString(line, ""))
		if line == "" || strings.HasPrefix(line, "Using reader plug'n play") || strings.HasPrefix(line, "Scanning present readers") {
			continue
		}
		readers = append(readers, line)
	}
	if len(readers) == 0 {
		return nil, "no card readers found"
	}
	return readers, ""
}
