package feed

// VehicleTelemetry is one vehicle's slice of a telemetry snapshot. Fields
// are pointers so that keys absent from a frame survive as nil and drive
// the store's sparse merge instead of zeroing prior values.
type VehicleTelemetry struct {
	GPSLat     *float64 `json:"gps_lat,omitempty"`
	GPSLon     *float64 `json:"gps_lon,omitempty"`
	Altitude   *float64 `json:"altitude,omitempty"`
	Speed      *float64 `json:"speed,omitempty"`
	RPM        *float64 `json:"rpm,omitempty"`
	Gear       *int     `json:"gear,omitempty"`
	Throttle   *float64 `json:"throttle,omitempty"`
	Brake      *float64 `json:"brake,omitempty"`
	Fuel       *float64 `json:"fuel,omitempty"`
	TireTemp   *float64 `json:"tire_temp,omitempty"`
	EngineTemp *float64 `json:"engine_temp,omitempty"`
	DRS        *bool    `json:"drs,omitempty"`
}

// Weather is the ambient conditions block of a telemetry snapshot.
type Weather struct {
	AirTemp       float64 `json:"air_temp"`
	TrackTemp     float64 `json:"track_temp"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	Rainfall      bool    `json:"rainfall"`
}

// TelemetrySnapshot is one full telemetry frame from the backend.
type TelemetrySnapshot struct {
	Timestamp float64                     `json:"timestamp"`
	Vehicles  map[string]VehicleTelemetry `json:"vehicles"`
	Weather   *Weather                    `json:"weather,omitempty"`
}

// LeaderboardEntry is one vehicle's row in the leaderboard snapshot.
type LeaderboardEntry struct {
	VehicleID   string  `json:"vehicle_id"`
	Position    int     `json:"position"`
	Laps        int     `json:"laps"`
	LastLapTime float64 `json:"last_lap_time"`
	BestLapTime float64 `json:"best_lap_time"`
	GapToLeader float64 `json:"gap_to_leader"`
	InPit       bool    `json:"in_pit"`
}

// Leaderboard is the full leaderboard snapshot.
type Leaderboard struct {
	Entries []LeaderboardEntry `json:"leaderboard"`
}

// LapEvent is a completed-lap record for one vehicle.
type LapEvent struct {
	VehicleID   string    `json:"vehicle_id"`
	Lap         int       `json:"lap"`
	LapTime     float64   `json:"lap_time"`
	SectorTimes []float64 `json:"sector_times"`
	Pit         bool      `json:"pit"`
}

// LapEvents is the lap-event snapshot.
type LapEvents struct {
	Events []LapEvent `json:"events"`
}

// Command is a playback control command sent to the backend.
// Type is one of play, pause, reverse, restart, speed; Value carries the
// speed multiplier for the speed command.
type Command struct {
	Type  string   `json:"type"`
	Value *float64 `json:"value,omitempty"`
}

// CommandTypes lists the accepted control command types.
var CommandTypes = map[string]bool{
	"play":    true,
	"pause":   true,
	"reverse": true,
	"restart": true,
	"speed":   true,
}
