package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifyd/internal/build"
	"github.com/shaharia-lab/notifyd/internal/config"
)

const releaseSlug = "shaharia-lab/notifyd"

// NewUpdateCmd returns the "update" subcommand. It replaces the running
// binary with the latest GitHub release and reminds the user to restart a
// daemon that is still serving an older build.
func NewUpdateCmd(cfg *config.AppConfig) *cobra.Command {
	var yes, check bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update notifyd to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			current := strings.TrimPrefix(build.Version, "v")
			if _, err := semver.StrictNewVersion(current); err != nil {
				return errors.New("cannot update a development build; install a tagged release first")
			}

			updater, err := selfupdate.NewUpdater(selfupdate.Config{})
			if err != nil {
				return fmt.Errorf("creating updater: %w", err)
			}
			release, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(releaseSlug))
			if err != nil {
				return fmt.Errorf("checking for updates: %w", err)
			}
			if !found || !release.GreaterThan(current) {
				fmt.Fprintf(out, "notifyd %s is the latest release\n", current)
				return nil
			}

			latest := release.Version()
			if check {
				fmt.Fprintf(out, "notifyd %s is available (installed %s)\n", latest, current)
				return nil
			}
			if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Update notifyd %s to %s?", current, latest)) {
				fmt.Fprintln(out, "update canceled")
				return nil
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("finding current executable: %w", err)
			}
			if err := updater.UpdateTo(cmd.Context(), release, exe); err != nil {
				return fmt.Errorf("updating to %s: %w", latest, err)
			}
			fmt.Fprintf(out, "updated to %s\n", latest)
			if hint := restartHint(cmd.Context(), cfg, latest); hint != "" {
				fmt.Fprintln(out, hint)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&check, "check", false, "Only report whether a newer release exists")
	return cmd
}

// confirm asks a yes/no question. Anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// restartHint reports when the daemon at cfg.ServerURL is older than the
// freshly installed version. An unreachable daemon yields no hint.
func restartHint(ctx context.Context, cfg *config.AppConfig, installed string) string {
	info, err := newClient(cfg).Version(ctx)
	if err != nil {
		return ""
	}
	running, err := semver.NewVersion(info["version"])
	if err != nil {
		return ""
	}
	want, err := semver.NewVersion(installed)
	if err != nil || !running.LessThan(want) {
		return ""
	}
	return fmt.Sprintf("the daemon at %s still runs %s; restart \"notifyd serve\" to pick up %s", cfg.ServerURL, running, want)
}
