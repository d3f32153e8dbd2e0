package cmd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifyd/internal/build"
	"github.com/shaharia-lab/notifyd/internal/config"
)

// NewVersionCmd returns the "version" subcommand. It also asks the daemon for
// its version and warns when the CLI and daemon disagree.
func NewVersionCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI and daemon versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "notifyd %s\n", build.String())

			info, err := newClient(cfg).Version(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "daemon: unreachable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon: %s\n", info["version"])
			if msg := compareVersions(build.Version, info["version"]); msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}
}

// compareVersions returns a warning when cli and daemon are different
// releases. Non-semver builds are not compared.
func compareVersions(cli, daemon string) string {
	cv, err := semver.NewVersion(cli)
	if err != nil {
		return ""
	}
	dv, err := semver.NewVersion(daemon)
	if err != nil {
		return ""
	}
	switch {
	case cv.LessThan(dv):
		return fmt.Sprintf("warning: CLI %s is older than daemon %s; run \"notifyd update\"", cv, dv)
	case cv.GreaterThan(dv):
		return fmt.Sprintf("warning: daemon %s is older than CLI %s; restart the daemon", dv, cv)
	}
	return ""
}
