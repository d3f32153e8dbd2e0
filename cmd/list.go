package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifyd/internal/config"
	"github.com/shaharia-lab/notifyd/internal/notification"
	"github.com/shaharia-lab/notifyd/internal/storage"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// setColorProfile disables styling when requested or when stdout is not a terminal.
func setColorProfile(cmd *cobra.Command) {
	noColor, _ := cmd.Flags().GetBool("no-color")
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(cmd.OutOrStdout()).EnvColorProfile())
}

// NewListCmd returns the "list" subcommand.
func NewListCmd(cfg *config.AppConfig) *cobra.Command {
	var pendingOnly, deliveredOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending and delivered notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setColorProfile(cmd)
			c := newClient(cfg)
			out := cmd.OutOrStdout()
			now := time.Now()

			if !deliveredOnly {
				pending, err := c.Pending(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Pending (%d)", len(pending))))
				renderPending(out, pending, now)
			}
			if !pendingOnly {
				delivered, err := c.Delivered(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Delivered (%d)", len(delivered))))
				renderDelivered(out, delivered)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only list pending notifications")
	cmd.Flags().BoolVar(&deliveredOnly, "delivered", false, "Only list delivered notifications")
	cmd.MarkFlagsMutuallyExclusive("pending", "delivered")
	return cmd
}

// NewCategoriesCmd returns the "categories" subcommand.
func NewCategoriesCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List notification categories and their actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setColorProfile(cmd)
			defs, err := newClient(cfg).Categories(cmd.Context())
			if err != nil {
				return err
			}
			renderCategories(cmd.OutOrStdout(), defs)
			return nil
		},
	}
}

// NewLogCmd returns the "log" subcommand showing recent presentation attempts.
func NewLogCmd(cfg *config.AppConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent delivery presentation attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setColorProfile(cmd)
			entries, err := newClient(cfg).DeliveryLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderDeliveryLog(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderEmpty(w io.Writer) {
	fmt.Fprintln(w, mutedStyle.Render("  (none)"))
}

func renderPending(w io.Writer, pending []notification.Request, now time.Time) {
	if len(pending) == 0 {
		renderEmpty(w)
		return
	}
	t := newTable("ID", "TITLE", "THREAD", "TRIGGER", "FIRES")
	for _, r := range pending {
		t.Row(r.ID, r.Content.Title, r.Content.ThreadID, describeTrigger(r.Trigger), describeFire(r, now))
	}
	fmt.Fprintln(w, t.Render())
}

func renderDelivered(w io.Writer, delivered []notification.Delivered) {
	if len(delivered) == 0 {
		renderEmpty(w)
		return
	}
	t := newTable("ID", "TITLE", "THREAD", "CATEGORY", "DELIVERED")
	for _, d := range delivered {
		c := d.Request.Content
		t.Row(d.ID(), c.Title, c.ThreadID, string(c.Category), d.DeliveredAt.Local().Format(time.DateTime))
	}
	fmt.Fprintln(w, t.Render())
}

func renderCategories(w io.Writer, defs []notification.CategoryDefinition) {
	if len(defs) == 0 {
		renderEmpty(w)
		return
	}
	t := newTable("CATEGORY", "TITLE", "ACTIONS")
	for _, d := range defs {
		actions := make([]string, 0, len(d.Actions))
		for _, a := range d.Actions {
			actions = append(actions, a.ID)
		}
		t.Row(string(d.ID), d.Title, strings.Join(actions, ", "))
	}
	fmt.Fprintln(w, t.Render())
}

func renderDeliveryLog(w io.Writer, entries []storage.DeliveryLogEntry) {
	if len(entries) == 0 {
		renderEmpty(w)
		return
	}
	t := newTable("TIME", "NOTIFICATION", "PROVIDER", "STATUS", "ERROR")
	for _, e := range entries {
		t.Row(e.CreatedAt.Local().Format(time.DateTime), e.NotificationID, e.Provider, e.Status, e.ErrorMsg)
	}
	fmt.Fprintln(w, t.Render())
}

// describeTrigger renders a trigger in one short phrase.
func describeTrigger(t notification.Trigger) string {
	switch v := t.(type) {
	case notification.At:
		s := "at " + v.Date.Local().Format(time.DateTime)
		if v.Repeat {
			s += ", yearly"
		}
		return s
	case notification.After:
		s := "after " + v.Delay.String()
		if v.Repeat {
			s += ", repeating"
		}
		return s
	default:
		return "immediate"
	}
}

// describeFire renders how long until the next firing. The center's own
// schedule wins over the time computed from the trigger.
func describeFire(r notification.Request, now time.Time) string {
	next := notification.FireTime(r.Trigger, r.SubmittedAt)
	if r.NextFireAt != nil {
		next = *r.NextFireAt
	}
	if next.IsZero() {
		return "-"
	}
	if !next.After(now) {
		return "due"
	}
	return "in " + next.Sub(now).Round(time.Second).String()
}
