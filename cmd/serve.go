package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/notifyd/internal/api"
	"github.com/shaharia-lab/notifyd/internal/attachment"
	"github.com/shaharia-lab/notifyd/internal/build"
	"github.com/shaharia-lab/notifyd/internal/center"
	"github.com/shaharia-lab/notifyd/internal/config"
	"github.com/shaharia-lab/notifyd/internal/delivery"
	"github.com/shaharia-lab/notifyd/internal/eventbus"
	"github.com/shaharia-lab/notifyd/internal/logger"
	"github.com/shaharia-lab/notifyd/internal/server"
	"github.com/shaharia-lab/notifyd/internal/service"
	"github.com/shaharia-lab/notifyd/internal/storage"
	"github.com/shaharia-lab/notifyd/internal/telemetry"
)

const eventWorkers = 4

// NewServeCmd returns the "serve" subcommand that runs the notification daemon.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int
	var autoGrant bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the notification daemon",
		Long: `Run the local notification center and its HTTP command surface.
Scheduled notifications survive restarts; overdue ones are delivered on startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("auto-grant") {
				cfg.AutoGrant = autoGrant
			}

			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(build.Version, fmt.Sprintf("http://localhost:%d", cfg.Port), logFile)

			if err := runServe(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "An error occurred: %v\nPlease check the logs at: %s\n", err, logFile)
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides NOTIFYD_PORT env var)")
	cmd.Flags().BoolVar(&autoGrant, "auto-grant", cfg.AutoGrant,
		"Grant the first authorization request (overrides NOTIFYD_AUTO_GRANT env var)")

	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Ensure data directories exist.
	for _, dir := range []string{cfg.DataDir, cfg.LogDir(), cfg.AttachmentsDir()} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), logger.Rotation{
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompression,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	sysLogger.Info("notifyd starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, "notifyd", build.Version)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			sysLogger.Warn("tracing shutdown failed", "error", err)
		}
	}()
	metrics := telemetry.NewMetrics()

	db, fresh, err := storage.NewSQLiteDB(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if fresh {
		sysLogger.Info("created notification database", "path", cfg.DatabasePath())
	}

	requestStore := storage.NewSQLiteRequestStore(db)
	deliveryLog := storage.NewSQLiteDeliveryLogStore(db)

	bus := eventbus.New(eventWorkers, eventbus.WithLogger(sysLogger))
	defer bus.Close()

	nc, err := center.New(center.Config{
		Store:          requestStore,
		Publisher:      bus,
		Logger:         sysLogger,
		Metrics:        metrics,
		AutoGrant:      cfg.AutoGrant,
		DeliveredLimit: cfg.DeliveredLimit,
		MaxConcurrency: cfg.MaxConcurrency,
	})
	if err != nil {
		return fmt.Errorf("creating notification center: %w", err)
	}

	categories, err := config.LoadCategories(cfg.CategoriesFile())
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	if err := nc.SetCategories(ctx, categories); err != nil {
		return fmt.Errorf("registering categories: %w", err)
	}

	// Presentation must be subscribed before the center starts firing.
	presenter := delivery.NewHandler(delivery.HandlerConfig{
		Lookup:    requestStore,
		Auth:      nc,
		Providers: deliveryProviders(cfg, sysLogger),
		Log:       deliveryLog,
		Rate:      cfg.DeliveryRate,
		Metrics:   metrics,
		Logger:    sysLogger,
	})
	bus.Subscribe(presenter.Listener())

	if err := nc.Start(ctx); err != nil {
		return fmt.Errorf("starting notification center: %w", err)
	}
	defer func() {
		if err := nc.Stop(); err != nil {
			sysLogger.Warn("stopping notification center failed", "error", err)
		}
	}()

	resolver := attachment.NewResolver(attachment.Options{
		Dir:      cfg.AttachmentsDir(),
		Timeout:  cfg.AttachmentTimeout,
		MaxBytes: cfg.AttachmentMaxBytes,
	}, metrics, sysLogger)

	manager := service.NewNotificationManager(nc, resolver, bus, metrics, sysLogger)
	manager.CheckPermissionStatus(ctx)
	manager.RefreshNotificationLists(ctx)

	commandSvc := service.NewCommandService(manager, sysLogger)
	actionSvc := service.NewActionService(manager, bus, metrics, sysLogger)

	apiSrv := api.New(commandSvc, actionSvc, deliveryLog, sysLogger)
	srv := server.New(apiSrv, server.Options{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins(),
		Metrics:        metrics.Handler(),
		Logger:         sysLogger,
	})

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	return srv.Run(ctx)
}

func deliveryProviders(cfg *config.AppConfig, log *slog.Logger) []delivery.Provider {
	providers := []delivery.Provider{delivery.NewLogProvider(log)}
	if cfg.SMTP.Enabled() {
		providers = append(providers, delivery.NewSMTPProvider(delivery.SMTPConfig{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			Username:   cfg.SMTP.Username,
			Password:   cfg.SMTP.Password,
			FromAddr:   cfg.SMTP.From,
			ToAddrs:    cfg.SMTP.To,
			Encryption: cfg.SMTP.Encryption,
		}))
		log.Info("smtp presentation enabled", "host", cfg.SMTP.Host)
	}
	return providers
}

// printBanner writes the startup banner to stdout. All structured logs go
// to the log file instead.
func printBanner(version, serverURL, logFile string) {
	fmt.Print(`
              _   _  __           _
  _ __   ___ | |_(_)/ _|_   _  __| |
 | '_ \ / _ \| __| | |_| | | |/ _` + "`" + ` |
 | | | | (_) | |_| |  _| |_| | (_| |
 |_| |_|\___/ \__|_|_|  \__, |\__,_|
                        |___/

`)
	fmt.Printf("notifyd %s running.\n", version)
	fmt.Printf("Command surface at %s/api\n", serverURL)
	fmt.Printf("Logs: %s\n\n", logFile)
}
