// Package config loads the dashboard settings from a TOML or YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/brickcast/explore"
)

// Environment overrides.
const (
	EnvWebhookURL = "BRICKCAST_WEBHOOK_URL"
	EnvDataDir    = "BRICKCAST_DATA_DIR"
)

// AppConfig is the full application configuration.
type AppConfig struct {
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Data     DataConfig     `toml:"data" yaml:"data"`
	Explorer ExplorerConfig `toml:"explorer" yaml:"explorer"`
	Forecast ForecastConfig `toml:"forecast" yaml:"forecast"`
	Notify   NotifyConfig   `toml:"notify" yaml:"notify"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port    int  `toml:"port" yaml:"port"`
	DevMode bool `toml:"dev_mode" yaml:"dev_mode"`
}

// DataConfig locates the dataset chunks. Explicit Chunks win over a
// directory scan of Dir with Pattern.
type DataConfig struct {
	Chunks  []string `toml:"chunks" yaml:"chunks"`
	Dir     string   `toml:"dir" yaml:"dir"`
	Pattern string   `toml:"pattern" yaml:"pattern"`
}

// ExplorerConfig bounds the year slider and the top-N control.
type ExplorerConfig struct {
	MinYear     int `toml:"min_year" yaml:"min_year"`
	MaxYear     int `toml:"max_year" yaml:"max_year"`
	DefaultTopN int `toml:"default_top_n" yaml:"default_top_n"`
	MaxTopN     int `toml:"max_top_n" yaml:"max_top_n"`
	// GlobalFirstSeen computes first appearances over the whole dataset
	// instead of the filtered window.
	GlobalFirstSeen bool `toml:"global_first_seen" yaml:"global_first_seen"`
}

// ForecastConfig holds the forecaster defaults.
type ForecastConfig struct {
	TestYears   int `toml:"test_years" yaml:"test_years"`
	DefaultP    int `toml:"default_p" yaml:"default_p"`
	DefaultQ    int `toml:"default_q" yaml:"default_q"`
	DefaultDiff int `toml:"default_diff" yaml:"default_diff"`
}

// NotifyConfig configures the webhook notifier. An empty URL disables it.
type NotifyConfig struct {
	WebhookURL     string `toml:"webhook_url" yaml:"webhook_url"`
	Message        string `toml:"message" yaml:"message"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "text" or "json"
}

// LoadInfo describes what the file set explicitly.
type LoadInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port: 8501,
		},
		Data: DataConfig{
			Dir:     "data",
			Pattern: "lego_dataset_chunk_*.csv",
		},
		Explorer: ExplorerConfig{
			MinYear:     1950,
			MaxYear:     2017,
			DefaultTopN: 10,
			MaxTopN:     20,
		},
		Forecast: ForecastConfig{
			TestYears:   5,
			DefaultDiff: 1,
		},
		Notify: NotifyConfig{
			Message:        "Forecast sent!",
			TimeoutSeconds: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the file at path. An empty path returns the defaults with
// environment overrides applied.
func Load(path string) (*AppConfig, error) {
	cfg, _, err := LoadWithInfo(path)
	return cfg, err
}

// LoadWithInfo reads the file at path over the defaults, choosing TOML or
// YAML by extension, then applies environment overrides and validates.
func LoadWithInfo(path string) (*AppConfig, LoadInfo, error) {
	info := LoadInfo{Path: path}
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, info, fmt.Errorf("read config: %w", err)
		}

		var raw map[string]any
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".toml":
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, info, fmt.Errorf("parse %s: %w", path, err)
			}
			_ = toml.Unmarshal(data, &raw)
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, info, fmt.Errorf("parse %s: %w", path, err)
			}
			_ = yaml.Unmarshal(data, &raw)
		default:
			return nil, info, fmt.Errorf("unsupported config format %q", ext)
		}
		info.PortSpecified = hasKey(raw, "server", "port")
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, info, err
	}
	return cfg, info, nil
}

func hasKey(raw map[string]any, section, key string) bool {
	sub, ok := raw[section].(map[string]any)
	if !ok {
		return false
	}
	_, ok = sub[key]
	return ok
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv(EnvWebhookURL); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Data.Dir = v
	}
}

// Validate checks value ranges.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Explorer.MinYear > c.Explorer.MaxYear {
		errs = append(errs, fmt.Errorf("explorer.min_year %d after max_year %d", c.Explorer.MinYear, c.Explorer.MaxYear))
	}
	if c.Explorer.MaxTopN < 1 || c.Explorer.MaxTopN > len(explore.Palette) {
		errs = append(errs, fmt.Errorf("explorer.max_top_n %d outside 1-%d", c.Explorer.MaxTopN, len(explore.Palette)))
	}
	if c.Explorer.DefaultTopN < 1 || c.Explorer.DefaultTopN > c.Explorer.MaxTopN {
		errs = append(errs, fmt.Errorf("explorer.default_top_n %d outside 1-%d", c.Explorer.DefaultTopN, c.Explorer.MaxTopN))
	}
	if c.Forecast.TestYears < 1 {
		errs = append(errs, fmt.Errorf("forecast.test_years must be positive, got %d", c.Forecast.TestYears))
	}
	if c.Forecast.DefaultDiff < 0 || c.Forecast.DefaultDiff > 2 {
		errs = append(errs, fmt.Errorf("forecast.default_diff %d outside 0-2", c.Forecast.DefaultDiff))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Sources returns the explicit chunk list, or the directory and glob pattern
// to scan when none is set.
func (c *AppConfig) Sources() (chunks []string, dir, pattern string) {
	if len(c.Data.Chunks) > 0 {
		return c.Data.Chunks, "", ""
	}
	return nil, c.Data.Dir, c.Data.Pattern
}

// NewLogger builds a slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
