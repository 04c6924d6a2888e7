package cmd

import (
	"fmt"

	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/flanksource/cryptnox-installer/pkg/debbuild"
	"github.com/flanksource/cryptnox-installer/pkg/download"
	"github.com/flanksource/cryptnox-installer/pkg/system"
	"github.com/spf13/cobra"
)

var (
	buildVersion    string
	buildOutput     string
	buildKeep       bool
	buildMaintainer string
)

var buildDebCmd = &cobra.Command{
	Use:   "build-deb",
	Short: "Build a Debian package from the PyPI source distribution",
	Long: `Build a Debian package of cryptnox-cli from its published source distribution.

Requires dpkg-buildpackage, debhelper and dh-python on the build host.

Examples:
  cryptnox-installer build-deb
  cryptnox-installer build-deb --version 1.0.3 --output dist/`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := system.NewExecRunner()
		a, err := newApp(cfg, runner)
		if err != nil {
			return err
		}

		target := buildVersion
		if target == "" {
			target = config.VersionOverride()
		}
		target, err = a.resolver.Resolve(cmd.Context(), target)
		if err != nil {
			return err
		}

		builder := debbuild.New(a.cfg, runner, a.index, download.New(a.http))
		path, err := builder.Build(cmd.Context(), debbuild.Options{
			Version:    target,
			OutputDir:  buildOutput,
			Keep:       buildKeep,
			Maintainer: buildMaintainer,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Built %s\n", green("✅"), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildDebCmd)
	buildDebCmd.Flags().StringVar(&buildVersion, "version", "", "Version to package, defaults to the latest published version")
	buildDebCmd.Flags().StringVarP(&buildOutput, "output", "o", ".", "Directory the .deb is written to")
	buildDebCmd.Flags().BoolVar(&buildKeep, "keep", false, "Keep the build directory")
	buildDebCmd.Flags().StringVar(&buildMaintainer, "maintainer", debbuild.DefaultMaintainer, "Maintainer field of the package")
}
