package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifyd/internal/client"
	"github.com/shaharia-lab/notifyd/internal/config"
	"github.com/shaharia-lab/notifyd/internal/service"
)

// contentFlags are the content options shared by send and schedule.
type contentFlags struct {
	title     string
	body      string
	subtitle  string
	badge     int
	sound     string
	image     string
	thread    string
	category  string
	urgency   string
	relevance float64
	userInfo  map[string]string
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Notification title (required)")
	cmd.Flags().StringVarP(&f.body, "body", "b", "", "Notification body")
	cmd.Flags().StringVar(&f.subtitle, "subtitle", "", "Secondary line under the title")
	cmd.Flags().IntVar(&f.badge, "badge", 0, "Badge count to apply on delivery")
	cmd.Flags().StringVar(&f.sound, "sound", "", "Sound: default, none, tritone, chime, glass, horn, bell, electronic")
	cmd.Flags().StringVar(&f.image, "image", "", "Image URL to attach")
	cmd.Flags().StringVar(&f.thread, "thread", "", "Thread identifier for grouping")
	cmd.Flags().StringVar(&f.category, "category", "", "Category: BASIC, INTERACTIVE, QUICK_ACTIONS, REMINDER")
	cmd.Flags().StringVar(&f.urgency, "urgency", "", "Urgency: passive, active, timeSensitive, critical")
	cmd.Flags().Float64Var(&f.relevance, "relevance", 0, "Relevance score between 0 and 1")
	cmd.Flags().StringToStringVar(&f.userInfo, "info", nil, "Extra key=value metadata (repeatable)")
	_ = cmd.MarkFlagRequired("title")
}

func (f *contentFlags) request(cmd *cobra.Command) service.SendRequest {
	req := service.SendRequest{
		Title:    f.title,
		Body:     f.body,
		Subtitle: f.subtitle,
		Sound:    f.sound,
		ImageURL: f.image,
		ThreadID: f.thread,
		Category: f.category,
		Urgency:  f.urgency,
		UserInfo: f.userInfo,
	}
	if cmd.Flags().Changed("badge") {
		n := f.badge
		req.Badge = &n
	}
	if cmd.Flags().Changed("relevance") {
		r := f.relevance
		req.RelevanceScore = &r
	}
	return req
}

func newClient(cfg *config.AppConfig) *client.Client {
	return client.New(cfg.ServerURL, nil)
}

// NewSendCmd returns the "send" subcommand.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var f contentFlags
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Deliver a notification now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := newClient(cfg).Send(cmd.Context(), f.request(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Notification sent.")
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// NewScheduleCmd returns the "schedule" subcommand.
func NewScheduleCmd(cfg *config.AppConfig) *cobra.Command {
	var f contentFlags
	var at string
	var in time.Duration
	var repeats bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a notification for a date or after a delay",
		Long: `Schedule a notification. Use --at for a calendar date (RFC 3339) or --in for a
delay. Without either the notification fires after 60 seconds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := service.ScheduleRequest{SendRequest: f.request(cmd), Repeats: repeats}
			if at != "" && cmd.Flags().Changed("in") {
				return errors.New("--at and --in are mutually exclusive")
			}
			if at != "" {
				date, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at date: %w", err)
				}
				req.Date = &date
			}
			if cmd.Flags().Changed("in") {
				secs := in.Seconds()
				req.DelaySeconds = &secs
			}

			id, err := newClient(cfg).Schedule(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notification scheduled: %s\n", id)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "Delivery date in RFC 3339 format, e.g. 2026-12-24T18:30:00Z")
	cmd.Flags().DurationVar(&in, "in", 0, "Delivery delay, e.g. 90s or 5m")
	cmd.Flags().BoolVar(&repeats, "repeats", false, "Repeat the trigger")
	return cmd
}

// NewDelayCmd returns the "delay" subcommand.
func NewDelayCmd(cfg *config.AppConfig) *cobra.Command {
	var req service.DelayedRequest
	var minutes float64

	cmd := &cobra.Command{
		Use:   "delay",
		Short: "Deliver a notification after a number of minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("minutes") {
				req.DelayMinutes = &minutes
			}
			id, err := newClient(cfg).ScheduleDelayed(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notification scheduled: %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "Notification title (required)")
	cmd.Flags().StringVarP(&req.Body, "body", "b", "", "Notification body")
	cmd.Flags().StringVar(&req.Sound, "sound", "", "Sound name")
	cmd.Flags().Float64VarP(&minutes, "minutes", "m", service.DefaultDelayMinutes, "Delay in minutes")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// NewCancelCmd returns the "cancel" subcommand.
func NewCancelCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending or delivered notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient(cfg).Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Notification %s canceled.\n", args[0])
			return nil
		},
	}
}

// NewCancelAllCmd returns the "cancel-all" subcommand.
func NewCancelAllCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel every pending and delivered notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := newClient(cfg).CancelAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Canceled %d notification(s).\n", n)
			return nil
		},
	}
}

// NewCancelThreadCmd returns the "cancel-thread" subcommand.
func NewCancelThreadCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-thread <thread-id>",
		Short: "Cancel the pending notifications of a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := newClient(cfg).CancelThread(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Canceled %d notification(s) in thread %s.\n", n, args[0])
			return nil
		},
	}
}

// NewBadgeCmd returns the "badge" subcommand.
func NewBadgeCmd(cfg *config.AppConfig) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "badge [count]",
		Short: "Show, set or clear the badge count",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(cfg)
			switch {
			case reset:
				if err := c.ClearBadge(cmd.Context()); err != nil {
					return err
				}
			case len(args) == 1:
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid badge count %q", args[0])
				}
				if err := c.SetBadge(cmd.Context(), n); err != nil {
					return err
				}
			}
			n, err := c.Badge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Badge: %d\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "clear", false, "Reset the badge to zero")
	return cmd
}

// NewPendingCmd returns the "pending" subcommand.
func NewPendingCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Print the number of pending notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := newClient(cfg).PendingCount(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

// NewRespondCmd returns the "respond" subcommand that answers a delivered
// notification with one of its category's actions.
func NewRespondCmd(cfg *config.AppConfig) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "respond <id> [action]",
		Short: "Respond to a delivered notification",
		Long: `Respond to a delivered notification with an action offered by its category,
e.g. SNOOZE_ACTION or REPLY_ACTION. Without an action the default tap is sent.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := service.ActionResponse{NotificationID: args[0], Text: text}
			if len(args) == 2 {
				resp.ActionID = args[1]
			}
			res, err := newClient(cfg).Respond(cmd.Context(), resp)
			if err != nil {
				return err
			}
			if res.SnoozedID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Snoozed as %s.\n", res.SnoozedID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s handled.\n", res.ActionID)
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Reply text for REPLY_ACTION")
	return cmd
}

// NewPermissionCmd returns the "permission" subcommand.
func NewPermissionCmd(cfg *config.AppConfig) *cobra.Command {
	var request bool
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Show or request notification authorization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := newClient(cfg)
			var ok bool
			var err error
			if request {
				ok, err = c.RequestPermission(cmd.Context())
			} else {
				ok, err = c.Permission(cmd.Context())
			}
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are authorized.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are not authorized.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&request, "request", false, "Request authorization")
	return cmd
}
