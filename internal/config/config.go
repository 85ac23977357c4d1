package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "SOUPDECK"

	KeyPanelsFile      = "panels_file"
	KeyRefreshInterval = "refresh_interval"
	KeyUserAgent       = "user_agent"
	KeyDBPath          = "db_path"
	KeyLogFile         = "log_file"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyConcurrentFetch = "concurrent_fetch"
	KeyMaxRPS          = "max_rps"

	DefaultUserAgent = "soupdeck/0.1 (+https://github.com/glabrego/soupdeck)"
)

// Config holds runtime settings for the CLI app.
type Config struct {
	PanelsFile      string
	RefreshInterval time.Duration
	UserAgent       string
	// DBPath is the fetch history database. Empty disables history.
	DBPath          string
	LogFile         string
	LogLevel        string
	LogFormat       string
	ConcurrentFetch bool
	MaxRPS          float64
}

// NewViper returns a viper instance with defaults set and SOUPDECK_*
// environment variables bound.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	// An empty SOUPDECK_DB_PATH is how history gets turned off.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPanelsFile, "config.json")
	v.SetDefault(KeyRefreshInterval, 5*time.Minute)
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyDBPath, "soupdeck.db")
	v.SetDefault(KeyLogFile, "soupdeck.log")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyConcurrentFetch, false)
	v.SetDefault(KeyMaxRPS, 0.0)
}

// ReadFile merges an optional settings file into v. With an empty path it
// looks for soupdeck.yaml in the working directory and tolerates its absence.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("soupdeck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read settings file: %w", err)
	}
	return nil
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		PanelsFile:      strings.TrimSpace(v.GetString(KeyPanelsFile)),
		RefreshInterval: v.GetDuration(KeyRefreshInterval),
		UserAgent:       strings.TrimSpace(v.GetString(KeyUserAgent)),
		DBPath:          strings.TrimSpace(v.GetString(KeyDBPath)),
		LogFile:         strings.TrimSpace(v.GetString(KeyLogFile)),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:       strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		ConcurrentFetch: v.GetBool(KeyConcurrentFetch),
		MaxRPS:          v.GetFloat64(KeyMaxRPS),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadFromEnv() (Config, error) {
	return Load(NewViper())
}

func (c Config) Validate() error {
	if c.PanelsFile == "" {
		return errors.New("panels file path is required")
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("refresh interval must be at least 1s: %s", c.RefreshInterval)
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("max requests per second must not be negative: %g", c.MaxRPS)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error: %s", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be text or json: %s", c.LogFormat)
	}
	return nil
}
