package config

// ServerConfig contains the HTTP read-surface configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0"`
}

// BackendConfig describes the race data backend and the polling cadence
// for each of its snapshot endpoints.
type BackendConfig struct {
	BaseURL               string `yaml:"baseURL" validate:"required,url"`
	TelemetryIntervalMS   int    `yaml:"telemetryIntervalMS" validate:"gte=0"`
	LeaderboardIntervalMS int    `yaml:"leaderboardIntervalMS" validate:"gte=0"`
	LapEventsIntervalMS   int    `yaml:"lapEventsIntervalMS" validate:"gte=0"`
	TimeoutMS             int    `yaml:"timeoutMS" validate:"gte=0"`
}

// TrackConfig points at the static track definition (an ordered geodetic
// point list) and sets the projection scale for the local frame.
type TrackConfig struct {
	DefinitionPath string  `yaml:"definitionPath" validate:"required"`
	Scale          float64 `yaml:"scale" validate:"gte=0"`
}

// RenderConfig tunes the display-side smoothing loop.
type RenderConfig struct {
	TickHz int     `yaml:"tickHz" validate:"gte=0"`
	Gain   float64 `yaml:"gain" validate:"gte=0"`
}

// LogConfig selects log level and destination directory.
// An empty Dir logs to stderr instead of rotated files.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server" validate:"required"`
	Backend BackendConfig `yaml:"backend" validate:"required"`
	Track   TrackConfig   `yaml:"track" validate:"required"`
	Render  RenderConfig  `yaml:"render"`
	Log     LogConfig     `yaml:"log"`
}
