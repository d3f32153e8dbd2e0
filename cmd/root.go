package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifyd/internal/config"
)

// NewRootCmd builds the notifyd command tree around cfg.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:   "notifyd",
		Short: "Local notification daemon and CLI",
		Long: `notifyd runs a local notification center that delivers immediate and
scheduled notifications, and provides commands to drive it from scripts.

Start the daemon with "notifyd serve"; every other command talks to it over HTTP.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL,
		"notifyd server URL (overrides NOTIFYD_SERVER_URL env var)")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.AddCommand(
		NewServeCmd(cfg),
		NewSendCmd(cfg),
		NewScheduleCmd(cfg),
		NewDelayCmd(cfg),
		NewCancelCmd(cfg),
		NewCancelAllCmd(cfg),
		NewCancelThreadCmd(cfg),
		NewBadgeCmd(cfg),
		NewPendingCmd(cfg),
		NewListCmd(cfg),
		NewRespondCmd(cfg),
		NewPermissionCmd(cfg),
		NewCategoriesCmd(cfg),
		NewLogCmd(cfg),
		NewVersionCmd(cfg),
		NewUpdateCmd(cfg),
	)
	return root
}

// Execute loads configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
