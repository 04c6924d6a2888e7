package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var buildInfo = struct {
	Version, Commit, Date string
	Dirty                 bool
}{Version: "dev", Commit: "unknown", Date: "unknown"}

// SetVersion records the build metadata injected by the linker
func SetVersion(version, commit, date, dirty string) {
	buildInfo.Version = version
	buildInfo.Commit = commit
	buildInfo.Date = date
	buildInfo.Dirty = dirty == "true"
}

func versionString() string {
	v := buildInfo.Version
	if buildInfo.Dirty {
		v += "-dirty"
	}
	return fmt.Sprintf("cryptnox-installer %s (commit %s, built %s, %s/%s)", v, buildInfo.Commit, buildInfo.Date, runtime.GOOS, runtime.GOARCH)
}

// userAgent identifies the installer build to the package index and GitHub
func userAgent() string {
	return "cryptnox-installer/" + buildInfo.Version
}

// --version reports the tool versions, so the installer's own build lives on a sub-command
var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "Print the installer build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func init() {
	rootCmd.AddCommand(aboutCmd)
}
