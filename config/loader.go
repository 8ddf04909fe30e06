package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the application configuration from the given
// YAML file, filling in defaults for fields left at zero.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8190
	}
	if cfg.Backend.TelemetryIntervalMS == 0 {
		cfg.Backend.TelemetryIntervalMS = 1000
	}
	if cfg.Backend.LeaderboardIntervalMS == 0 {
		cfg.Backend.LeaderboardIntervalMS = 2000
	}
	if cfg.Backend.LapEventsIntervalMS == 0 {
		cfg.Backend.LapEventsIntervalMS = 5000
	}
	if cfg.Backend.TimeoutMS == 0 {
		cfg.Backend.TimeoutMS = 15000
	}
	if cfg.Track.Scale == 0 {
		cfg.Track.Scale = 1.0
	}
	if cfg.Render.TickHz == 0 {
		cfg.Render.TickHz = 60
	}
	if cfg.Render.Gain == 0 {
		cfg.Render.Gain = 8.0
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
