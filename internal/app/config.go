package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = "keeperbridge"
	envPrefix  = "KEEPERBRIDGE"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home    string        `mapstructure:"home"` // data dir, e.g. $HOME/.keeperbridge
	Relay   RelayConfig   `mapstructure:"relay"`
	Log     LogConfig     `mapstructure:"log"`
	Device  DeviceConfig  `mapstructure:"device"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type RelayConfig struct {
	URL              string        `mapstructure:"url"` // relay base URL, e.g. https://relay.example.com
	ConnectTimeout   time.Duration `mapstructure:"connect_timeout"`
	Reconnect        bool          `mapstructure:"reconnect"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
	SendQueue        int           `mapstructure:"send_queue"`
	InboundQueue     int           `mapstructure:"inbound_queue"` // messages buffered ahead of stdout
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type DeviceConfig struct {
	Binary    string `mapstructure:"binary"`
	Emulators bool   `mapstructure:"emulators"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the endpoint
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("home", "")

	v.SetDefault("relay.url", "http://127.0.0.1:8080")
	v.SetDefault("relay.connect_timeout", "30s")
	v.SetDefault("relay.reconnect", false)
	v.SetDefault("relay.reconnect_backoff", "2s")
	v.SetDefault("relay.send_queue", 64)
	v.SetDefault("relay.inbound_queue", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("device.binary", "hwi")
	v.SetDefault("device.emulators", false)

	v.SetDefault("metrics.addr", "")
}

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"home":         "home",
	"relay":        "relay.url",
	"log-level":    "log.level",
	"metrics-addr": "metrics.addr",
	"emulators":    "device.emulators",
}

// BindFlags registers the flags read by LoadConfig on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default ./keeperbridge.yaml or ~/.keeperbridge/keeperbridge.yaml)")
	fs.String("home", "", "data dir (default ~/.keeperbridge)")
	fs.String("relay", "", "relay base URL (e.g. https://relay.example.com)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")
	fs.Bool("emulators", false, "talk to HWI device emulators")
}

// LoadConfig merges defaults, the config file, KEEPERBRIDGE_* environment
// variables and flags from fs, in increasing priority. fs may be nil.
func LoadConfig(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.keeperbridge")

	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setConfigDefaults(v)

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	home, err := expandHome(cfg.Home)
	if err != nil {
		return Config{}, err
	}
	cfg.Home = home

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the app cannot run with.
func (c Config) Validate() error {
	if c.Relay.URL == "" {
		return errors.New("relay.url is required (use --relay or KEEPERBRIDGE_RELAY_URL)")
	}
	if c.Relay.ConnectTimeout <= 0 {
		return fmt.Errorf("relay.connect_timeout must be positive, got %s", c.Relay.ConnectTimeout)
	}
	if c.Relay.SendQueue <= 0 {
		return fmt.Errorf("relay.send_queue must be positive, got %d", c.Relay.SendQueue)
	}
	if c.Relay.InboundQueue <= 0 {
		return fmt.Errorf("relay.inbound_queue must be positive, got %d", c.Relay.InboundQueue)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

func expandHome(dir string) (string, error) {
	if dir != "" && !strings.HasPrefix(dir, "~") {
		return dir, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if dir == "" {
		return filepath.Join(userHome, ".keeperbridge"), nil
	}
	return filepath.Join(userHome, strings.TrimPrefix(dir, "~")), nil
}
