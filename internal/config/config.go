package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/italolelis/flood_bridge/internal/svc/flood"
	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	Flood struct {
		URL         string        `envconfig:"URL" default:"http://localhost:3000"`
		Username    string        `envconfig:"USERNAME"`
		Password    string        `envconfig:"PASSWORD"`
		Destination string        `envconfig:"DESTINATION"`
		Tag         string        `envconfig:"TAG" default:"radarr"`
		StartOnAdd  bool          `envconfig:"START_ON_ADD" default:"true"`
		Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
		RateLimit   int           `envconfig:"RATE_LIMIT" default:"0"`
	}

	API struct {
		Username string `split_words:"true"`
		Password string `split_words:"true"`
	}

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:9092"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"60s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}

	Telemetry struct {
		Enabled      bool          `default:"true"`
		ServiceName  string        `split_words:"true" default:"flood_bridge"`
		OTLPEndpoint string        `envconfig:"OTLP_ENDPOINT"`
		OTLPInterval time.Duration `envconfig:"OTLP_INTERVAL" default:"30s"`
	}

	DBPath            string        `envconfig:"DB_PATH" default:"flood_bridge.db"`
	HistoryRetention  time.Duration `envconfig:"HISTORY_RETENTION" default:"720h"`
	CleanupInterval   time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1h"`
	DiscordWebhookURL string        `envconfig:"DISCORD_WEBHOOK_URL"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"INFO"`
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

// FloodSettings returns the Flood connection settings.
func (c *Config) FloodSettings() flood.Settings {
	return flood.Settings{
		URL:         c.Flood.URL,
		Username:    c.Flood.Username,
		Password:    c.Flood.Password,
		Destination: c.Flood.Destination,
		Tag:         c.Flood.Tag,
		StartOnAdd:  c.Flood.StartOnAdd,
	}
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
