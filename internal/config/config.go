// Package config loads runtracker settings from defaults, an optional
// config.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/briangreenhill/runtracker/internal/run"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Mapbox     MapboxConfig     `mapstructure:"mapbox"`
	Directions DirectionsConfig `mapstructure:"directions"`
	Location   LocationConfig   `mapstructure:"location"`
	Share      ShareConfig      `mapstructure:"share"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type MapboxConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
	Profile string `mapstructure:"profile"`
}

type DirectionsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type LocationConfig struct {
	RegionRadius   float64       `mapstructure:"region_radius"`
	DistanceFilter float64       `mapstructure:"distance_filter"`
	ReplayInterval time.Duration `mapstructure:"replay_interval"`
	Authorization  string        `mapstructure:"authorization"`
}

type ShareConfig struct {
	MapsURL string `mapstructure:"maps_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. Environment variables use the RUNTRACKER_ prefix
// (RUNTRACKER_SERVER_ADDR → server.addr); the Mapbox token is also read from
// MAPBOX_TOKEN.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("server.addr", ":8222")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.path", "./ran.db")
	v.SetDefault("mapbox.token", "")
	v.SetDefault("mapbox.base_url", "https://api.mapbox.com")
	v.SetDefault("mapbox.profile", "walking")
	v.SetDefault("directions.timeout", run.DefaultDirectionsTimeout)
	v.SetDefault("location.region_radius", run.DefaultRegionRadius)
	v.SetDefault("location.distance_filter", 50.0)
	v.SetDefault("location.replay_interval", time.Second)
	v.SetDefault("location.authorization", run.Authorized.String())
	v.SetDefault("share.maps_url", run.DefaultMapsURL)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("RUNTRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("mapbox.token", "RUNTRACKER_MAPBOX_TOKEN", "MAPBOX_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Directions.Timeout <= 0 {
		errs = append(errs, "directions.timeout must be positive")
	}
	if c.Location.RegionRadius <= 0 {
		errs = append(errs, "location.region_radius must be positive")
	}
	if c.Location.DistanceFilter < 0 {
		errs = append(errs, "location.distance_filter must not be negative")
	}
	if c.Location.ReplayInterval < 0 {
		errs = append(errs, "location.replay_interval must not be negative")
	}
	if _, ok := run.ParseAuthorizationStatus(c.Location.Authorization); !ok {
		errs = append(errs, fmt.Sprintf("location.authorization %q is not a known status", c.Location.Authorization))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// AuthorizationStatus is the starting status for pushed locations.
func (c *Config) AuthorizationStatus() run.AuthorizationStatus {
	status, _ := run.ParseAuthorizationStatus(c.Location.Authorization)
	return status
}
