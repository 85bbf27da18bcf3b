package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all rhythm configuration. Values come from defaults, then an
// optional YAML file, then RHYTHM_* environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Engine    EngineConfig    `yaml:"engine"`
	Catalogue CatalogueConfig `yaml:"catalogue"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Bind string `yaml:"bind" env:"RHYTHM_BIND"`
	Port int    `yaml:"port" env:"RHYTHM_PORT"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"RHYTHM_DB_PATH"`
}

type EngineConfig struct {
	WindowDays       int           `yaml:"window_days" env:"RHYTHM_WINDOW_DAYS"`
	StoreTimeout     time.Duration `yaml:"store_timeout" env:"RHYTHM_STORE_TIMEOUT"`
	ProfileTTL       time.Duration `yaml:"profile_ttl" env:"RHYTHM_PROFILE_TTL"`
	GrowthEdgeChance float64       `yaml:"growth_edge_chance" env:"RHYTHM_GROWTH_EDGE_CHANCE"`
	RandomSeed       uint64        `yaml:"random_seed" env:"RHYTHM_RANDOM_SEED"` // 0 seeds from the clock
	Timezone         string        `yaml:"timezone" env:"RHYTHM_TIMEZONE"`
}

type CatalogueConfig struct {
	Path string `yaml:"path" env:"RHYTHM_CATALOGUE"` // empty uses the embedded catalogue
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"RHYTHM_LOG_LEVEL"`
	Dev   bool   `yaml:"dev" env:"RHYTHM_LOG_DEV"`
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" env:"RHYTHM_OTEL_ENABLED"`
	Endpoint string `yaml:"endpoint" env:"RHYTHM_OTEL_ENDPOINT"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Engine: EngineConfig{
			WindowDays:       90,
			StoreTimeout:     300 * time.Millisecond,
			ProfileTTL:       12 * time.Hour,
			GrowthEdgeChance: 0.5,
			Timezone:         "UTC",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// DefaultPath returns ~/.rhythm/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".rhythm", "config.yaml"), nil
}

// Load builds the configuration. An empty path reads DefaultPath if it
// exists; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseEnv applies environment overrides onto target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Engine.WindowDays < 1 {
		return fmt.Errorf("engine.window_days must be positive, got %d", c.Engine.WindowDays)
	}
	if c.Engine.StoreTimeout <= 0 {
		return fmt.Errorf("engine.store_timeout must be positive")
	}
	if c.Engine.ProfileTTL <= 0 {
		return fmt.Errorf("engine.profile_ttl must be positive")
	}
	if c.Engine.GrowthEdgeChance < 0 || c.Engine.GrowthEdgeChance > 1 {
		return fmt.Errorf("engine.growth_edge_chance %v out of [0,1]", c.Engine.GrowthEdgeChance)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Window is the rhythm history window.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Engine.WindowDays) * 24 * time.Hour
}

// Location resolves the timezone used for hour and weekday bucketing.
func (c *Config) Location() (*time.Location, error) {
	if c.Engine.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone: %w", err)
	}
	return loc, nil
}
