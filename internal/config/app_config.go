package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"NOTIFYD_PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.notifyd.
	DataDir string `envconfig:"NOTIFYD_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ServerURL is the daemon address used by the CLI commands.
	// Defaults to http://localhost:<Port>.
	ServerURL string `envconfig:"NOTIFYD_SERVER_URL"`

	// AutoGrant makes the notification center grant authorization requests.
	// When false every request is denied and privileged commands are refused.
	AutoGrant bool `envconfig:"NOTIFYD_AUTO_GRANT" default:"true"`

	// DeliveredLimit caps how many delivered notifications the center retains.
	DeliveredLimit int `envconfig:"NOTIFYD_DELIVERED_LIMIT" default:"64"`

	// AttachmentTimeout bounds a single attachment download.
	AttachmentTimeout time.Duration `envconfig:"NOTIFYD_ATTACHMENT_TIMEOUT" default:"15s"`

	// AttachmentMaxBytes rejects attachment bodies larger than this.
	AttachmentMaxBytes int64 `envconfig:"NOTIFYD_ATTACHMENT_MAX_BYTES" default:"10485760"`

	// MaxConcurrency limits how many scheduled deliveries run at once.
	MaxConcurrency int `envconfig:"NOTIFYD_MAX_CONCURRENCY" default:"3"`

	// DeliveryRate is the number of presentations per second across providers.
	DeliveryRate float64 `envconfig:"NOTIFYD_DELIVERY_RATE" default:"5"`

	// SMTP enables email presentation of delivered notifications when Host is set.
	SMTP SMTPConfig `envconfig:"NOTIFYD_SMTP"`

	// Log file rotation.
	LogMaxSizeMB   int  `envconfig:"NOTIFYD_LOG_MAX_SIZE_MB" default:"20"`
	LogMaxBackups  int  `envconfig:"NOTIFYD_LOG_MAX_BACKUPS" default:"5"`
	LogMaxAgeDays  int  `envconfig:"NOTIFYD_LOG_MAX_AGE_DAYS" default:"28"`
	LogCompression bool `envconfig:"NOTIFYD_LOG_COMPRESS" default:"false"`

	// OTLPEndpoint enables trace export over OTLP/gRPC. Tracing is off when empty.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// CORSOrigins is a comma separated list of allowed browser origins.
	CORSOrigins string `envconfig:"NOTIFYD_CORS_ORIGINS"`
}

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host       string `envconfig:"HOST"`
	Port       int    `envconfig:"PORT" default:"587"`
	Username   string `envconfig:"USERNAME"`
	Password   string `envconfig:"PASSWORD"`
	From       string `envconfig:"FROM"`
	To         string `envconfig:"TO"`
	Encryption string `envconfig:"ENCRYPTION" default:"starttls"`
}

// Enabled reports whether enough settings are present to send mail.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != "" && s.To != ""
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.notifyd if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".notifyd")
	}
	if c.ServerURL == "" {
		c.ServerURL = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AllowedOrigins splits CORSOrigins into a list. Empty entries are dropped.
func (c *AppConfig) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogDir returns the path to the log directory (~/.notifyd/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DatabasePath returns the path to the SQLite database file.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "notifyd.db")
}

// AttachmentsDir returns the staging directory for downloaded attachments.
func (c *AppConfig) AttachmentsDir() string {
	return filepath.Join(c.DataDir, "attachments")
}

// CategoriesFile returns the path to the optional category override file.
func (c *AppConfig) CategoriesFile() string {
	return filepath.Join(c.DataDir, "categories.yaml")
}
