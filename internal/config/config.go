package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"ctchen222/tictactoe/internal/validator"

	"gopkg.in/yaml.v2"
)

// Config holds the server settings. Values come from an optional YAML file,
// then environment variables.
type Config struct {
	HTTPAddr   string `yaml:"http_addr" validate:"required"`
	ServerID   string `yaml:"server_id"`
	RedisAddr  string `yaml:"redis_addr" validate:"required"`
	SQLitePath string `yaml:"sqlite_path" validate:"required"`
	JWTSecret  string `yaml:"jwt_secret" validate:"required,min=8"`

	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Game      GameConfig      `yaml:"game"`
	Scores    ScoresConfig    `yaml:"scores"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	CollectorAddr string `yaml:"collector_addr" validate:"required_if=Enabled true"`
	StdoutTraces  bool   `yaml:"stdout_traces"`
	ServiceName   string `yaml:"service_name" validate:"required"`
}

type GameConfig struct {
	MoveTimeout      time.Duration `yaml:"move_timeout" validate:"gt=0"`
	BotThinkTime     time.Duration `yaml:"bot_think_time" validate:"gte=0"`
	ReconnectionWait time.Duration `yaml:"reconnection_wait" validate:"gt=0"`
}

type ScoresConfig struct {
	Retention   int `yaml:"retention" validate:"gt=0"`
	RecentLimit int `yaml:"recent_limit" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr:   ":8080",
		RedisAddr:  "localhost:6379",
		SQLitePath: "./master.db",
		JWTSecret:  "my_super_secret_key",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			CollectorAddr: "otel-collector:4317",
			ServiceName:   "tic-tac-toe",
		},
		Game: GameConfig{
			MoveTimeout:      15 * time.Second,
			BotThinkTime:     500 * time.Millisecond,
			ReconnectionWait: 60 * time.Second,
		},
		Scores: ScoresConfig{
			Retention:   100,
			RecentLimit: 50,
		},
	}
}

// Load reads path (if it exists) over the defaults, applies environment
// overrides and validates the result. An empty path uses CONFIG_PATH.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.UnmarshalStrict(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("SERVER_ID"); v != "" {
		c.ServerID = v
	}
	if v := os.Getenv("REDIS_CONNSTRING"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("OTEL_COLLECTOR_ADDR"); v != "" {
		c.Telemetry.CollectorAddr = v
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED %q: %w", v, err)
		}
		c.Telemetry.Enabled = enabled
	}
	return nil
}
