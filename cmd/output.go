package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/flanksource/cryptnox-installer/pkg/types"
	"github.com/flanksource/cryptnox-installer/pkg/version"
	"github.com/olekukonko/tablewriter"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func printOutcome(w io.Writer, tool string, outcome types.Outcome) {
	if outcome.FellBack() {
		fmt.Fprintf(w, "%s %s could not be used, fell back to %s\n",
			yellow("⚠️"), outcome.Requested.DisplayName(), outcome.Fallback.DisplayName())
	}
	if !outcome.Success {
		fmt.Fprintf(w, "%s Installation of %s via %s failed\n", red("❌"), tool, outcome.Channel.DisplayName())
		return
	}
	fmt.Fprintf(w, "%s %s %s installed via %s\n", green("✅"), tool, outcome.Version, outcome.Channel.DisplayName())
}

// versionRows renders one row per installed channel in detection priority order
func versionRows(report types.VersionReport) [][]string {
	var rows [][]string
	for _, channel := range report.Channels() {
		installed := report.Installed[channel]
		state := "unknown"
		switch {
		case report.Latest == "":
		case version.IsUpToDate(installed, report.Latest):
			state = green("up to date")
		default:
			state = yellow("update available: " + report.Latest)
		}
		rows = append(rows, []string{channel.DisplayName(), installed, state})
	}
	return rows
}

func printVersions(w io.Writer, tool string, report types.VersionReport) error {
	if !report.IsInstalled() {
		fmt.Fprintf(w, "%s %s is not installed\n", yellow("⚠️"), tool)
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Channel", "Installed", "Status")
		if err := table.Bulk(versionRows(report)); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	latest := report.Latest
	if latest == "" {
		latest = "unavailable"
	}
	fmt.Fprintf(w, "Latest published version: %s\n", bold(latest))
	return nil
}

func printUninstall(w io.Writer, tool string, report types.UninstallReport) {
	if len(report.Removed) == 0 && len(report.Failed) == 0 {
		fmt.Fprintf(w, "%s %s was not found on any channel\n", yellow("⚠️"), tool)
		return
	}
	for _, channel := range report.Removed {
		fmt.Fprintf(w, "%s Removed %s (%s)\n", green("✅"), tool, channel.DisplayName())
	}
	for _, channel := range types.Strategies {
		if msg, ok := report.Failed[channel]; ok {
			fmt.Fprintf(w, "%s Failed to remove %s (%s): %s\n", red("❌"), tool, channel.DisplayName(), msg)
		}
	}
}

func printStatus(w io.Writer, tool string, report types.StatusReport) error {
	fmt.Fprintf(w, "%s %s\n", bold("System:"), report.Environment)

	state := red(report.ServiceState)
	if report.ServiceActive {
		state = green(report.ServiceState)
	}
	fmt.Fprintf(w, "%s %s\n\n", bold("Smartcard service:"), state)

	if err := printVersions(w, tool, report.Versions); err != nil {
		return err
	}

	if len(report.Interfaces) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Snap interfaces:"))
		for _, line := range report.Interfaces {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintf(w, "\n%s\n", bold("Card readers:"))
	if report.ReaderScanError != "" {
		fmt.Fprintf(w, "  %s %s\n", yellow("⚠️"), report.ReaderScanError)
		return nil
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(report.Readers, "\n  "))
	return nil
}
