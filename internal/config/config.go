// Package config loads tracker settings from config file, environment, and
// defaults. Precedence is flag > TRACKER_* env > config file > default; the
// flag layer is applied by the commands after Load.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// ServerURL is the tracker backend root.
	ServerURL string `mapstructure:"server_url"`
	// Token authenticates API calls when the backend requires it.
	Token string `mapstructure:"token"`
	// PageSize is the list page limit. Must be positive.
	PageSize int `mapstructure:"page_size"`
	// RequestTimeout bounds a single API attempt.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// MaxRetries is the extra-attempt budget for idempotent reads.
	MaxRetries int `mapstructure:"max_retries"`
	// LogFile receives structured logs while the TUI owns the terminal.
	// Empty selects a per-user default under the OS cache directory.
	LogFile string `mapstructure:"log_file"`
	// Theme is "auto", "dark", or "light".
	Theme string `mapstructure:"theme"`
}

// Load reads configuration. explicitPath points at a specific config file
// ("" = search the usual locations); a missing file is not an error, env and
// defaults still apply.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Every key needs a default so AutomaticEnv can bind it during Unmarshal.
	v.SetDefault("server_url", "http://localhost:8547")
	v.SetDefault("token", "")
	v.SetDefault("page_size", 25)
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("max_retries", 2)
	v.SetDefault("log_file", "")
	v.SetDefault("theme", "auto")

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicitPath, err)
		}
	} else {
		v.SetConfigName("config")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "tracker"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return errors.New("config: server_url must not be empty")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config: page_size must be positive, got %d", c.PageSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("config: max_retries must not be negative, got %d", c.MaxRetries)
	}
	switch c.Theme {
	case "auto", "dark", "light":
	default:
		return fmt.Errorf("config: theme must be auto, dark, or light, got %q", c.Theme)
	}
	return nil
}
