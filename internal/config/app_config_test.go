package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test. An empty but set
// variable is parsed by envconfig and fails for non-string fields.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestAppConfig_DirectoryPaths(t *testing.T) {
	c := &AppConfig{DataDir: "/data"}

	tests := []struct {
		name string
		fn   func() string
		want string
	}{
		{"LogDir", c.LogDir, "/data/logs"},
		{"DatabasePath", c.DatabasePath, "/data/notifyd.db"},
		{"AttachmentsDir", c.AttachmentsDir, "/data/attachments"},
		{"CategoriesFile", c.CategoriesFile, "/data/categories.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn())
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("NOTIFYD_PORT", "9090")
	t.Setenv("NOTIFYD_DATA_DIR", "/tmp/test-notifyd")
	t.Setenv("LOG_LEVEL", "debug")
	unsetEnv(t, "NOTIFYD_SERVER_URL", "NOTIFYD_AUTO_GRANT", "NOTIFYD_ATTACHMENT_TIMEOUT",
		"NOTIFYD_DELIVERED_LIMIT", "NOTIFYD_ATTACHMENT_MAX_BYTES", "NOTIFYD_SMTP_HOST", "NOTIFYD_SMTP_PORT")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test-notifyd", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "http://localhost:9090", cfg.ServerURL)
	assert.True(t, cfg.AutoGrant)
	assert.Equal(t, 64, cfg.DeliveredLimit)
	assert.Equal(t, 15*time.Second, cfg.AttachmentTimeout)
	assert.Equal(t, int64(10<<20), cfg.AttachmentMaxBytes)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NOTIFYD_DATA_DIR", "/tmp/test-notifyd")
	t.Setenv("NOTIFYD_SERVER_URL", "http://daemon:1234/")
	t.Setenv("NOTIFYD_AUTO_GRANT", "false")
	t.Setenv("NOTIFYD_ATTACHMENT_TIMEOUT", "3s")
	t.Setenv("NOTIFYD_SMTP_HOST", "smtp.example.com")
	t.Setenv("NOTIFYD_SMTP_FROM", "notifyd@example.com")
	t.Setenv("NOTIFYD_SMTP_TO", "me@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://daemon:1234", cfg.ServerURL)
	assert.False(t, cfg.AutoGrant)
	assert.Equal(t, 3*time.Second, cfg.AttachmentTimeout)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("NOTIFYD_DATA_DIR", "/tmp/test-notifyd")
	t.Setenv("NOTIFYD_PORT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestAppConfig_AllowedOrigins(t *testing.T) {
	assert.Nil(t, (&AppConfig{}).AllowedOrigins())
	c := &AppConfig{CORSOrigins: "http://a.test, ,http://b.test "}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.AllowedOrigins())
}
