package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flanksource/clicky"
	"github.com/flanksource/cryptnox-installer/pkg/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	actions    []action
	cfg        *config.Config
	// keepArtifacts keeps downloaded packages in the scratch directory
	keepArtifacts bool
)

var rootCmd = &cobra.Command{
	Use:   "cryptnox-installer",
	Short: "Install, update and remove cryptnox-cli on Linux",
	Long: `cryptnox-installer installs cryptnox-cli through the best channel for the host:
the Snap store, a pre-built Debian package or pip with the system package manager.

Without an action flag the channel is selected from the detected distribution.
When more than one action flag is given the first one wins.

Examples:
  cryptnox-installer              # Auto-detect and install
  cryptnox-installer --deb        # Install the Debian package, pip if it cannot be downloaded
  cryptnox-installer --status     # Show service, version and card reader status
  CRYPTNOX_VERSION=1.0.2 cryptnox-installer --pip`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		clicky.Flags.UseFlags()

		var err error
		cfg, err = config.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), cmd.OutOrStdout(), selectedAction(actions))
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the installer config file (default "+config.SystemConfigFile+")")
	clicky.BindAllFlags(rootCmd.PersistentFlags(), "!tasks", "!format")

	rootCmd.Flags().BoolVar(&keepArtifacts, "keep", false, "Keep downloaded packages in the temp directory")
	bindActionFlags(rootCmd.Flags(), &actions)
	rootCmd.SetFlagErrorFunc(flagError)
	rootCmd.SetErr(os.Stderr)
}
