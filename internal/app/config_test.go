package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"keeperbridge/internal/app"
)

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := app.LoadConfig(flags(t))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080", cfg.Relay.URL)
	require.Equal(t, 30*time.Second, cfg.Relay.ConnectTimeout)
	require.Equal(t, 2*time.Second, cfg.Relay.ReconnectBackoff)
	require.Equal(t, 64, cfg.Relay.SendQueue)
	require.Equal(t, 64, cfg.Relay.InboundQueue)
	require.False(t, cfg.Relay.Reconnect)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)
	require.Equal(t, "hwi", cfg.Device.Binary)
	require.Empty(t, cfg.Metrics.Addr)
	require.Equal(t, filepath.Join(os.Getenv("HOME"), ".keeperbridge"), cfg.Home)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
relay:
  url: https://file.example.com
  connect_timeout: 5s
  reconnect: true
log:
  level: debug
device:
  binary: /opt/hwi
`), 0o600))

	t.Setenv("KEEPERBRIDGE_LOG_LEVEL", "warn")

	cfg, err := app.LoadConfig(flags(t, "--config", file, "--relay", "https://flag.example.com", "--home", dir))
	require.NoError(t, err)
	require.Equal(t, "https://flag.example.com", cfg.Relay.URL)
	require.Equal(t, 5*time.Second, cfg.Relay.ConnectTimeout)
	require.True(t, cfg.Relay.Reconnect)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "/opt/hwi", cfg.Device.Binary)
	require.Equal(t, dir, cfg.Home)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("KEEPERBRIDGE_LOG_FORMAT", "xml")
	_, err := app.LoadConfig(nil)
	require.ErrorContains(t, err, "log.format")
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	file := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(file, []byte("relay: [unterminated"), 0o600))

	_, err := app.LoadConfig(flags(t, "--config", file))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	log, err := app.NewLogger(app.LogConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = app.NewLogger(app.LogConfig{Level: "loud"})
	require.Error(t, err)
}
