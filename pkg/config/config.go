// Package config loads connector configuration from a YAML file with
// environment variable overrides. Environment keys use the COINGLASS_
// prefix, e.g. COINGLASS_API_KEY.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "COINGLASS"

// Config is the full connector configuration.
type Config struct {
	// APIKey authenticates both the REST and the streaming client.
	APIKey string `mapstructure:"api_key"`

	REST      RESTConfig      `mapstructure:"rest"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Log       LogConfig       `mapstructure:"log"`
}

// RESTConfig tunes the REST client.
type RESTConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxRetries      uint          `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	RateLimitPerSec int           `mapstructure:"rate_limit_per_sec"`
}

// WebSocketConfig tunes the streaming client.
type WebSocketConfig struct {
	URL                  string        `mapstructure:"url"`
	HeartbeatInterval    time.Duration `mapstructure:"heartbeat_interval"`
	ReconnectInterval    time.Duration `mapstructure:"reconnect_interval"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
}

// LogConfig tunes logging output.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from path, if non-empty, and the environment.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
		}
	}

	// AutomaticEnv only resolves keys viper already knows about; bind the
	// ones that may be absent from both defaults and file.
	if err := v.BindEnv("api_key"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("rest.timeout", 30*time.Second)
	v.SetDefault("rest.max_retries", 3)
	v.SetDefault("rest.retry_delay", time.Second)
	v.SetDefault("rest.rate_limit_per_sec", 10)
	v.SetDefault("websocket.heartbeat_interval", 20*time.Second)
	v.SetDefault("websocket.reconnect_interval", 5*time.Second)
	v.SetDefault("websocket.max_reconnect_attempts", 5)
	v.SetDefault("log.level", "info")
}

func validate(cfg *Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("api_key is required (set %s_API_KEY or the api_key config value)", envPrefix)
	}
	if cfg.WebSocket.MaxReconnectAttempts < 0 {
		return fmt.Errorf("websocket.max_reconnect_attempts cannot be negative")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	return nil
}
