package store

import (
	"sort"
	"sync"
	"time"

	"github.com/apexgrid/racedash/feed"
	"github.com/apexgrid/racedash/geo"
)

// Telemetry is the flattened, reconciled per-vehicle telemetry. Updates
// merge sparsely: a frame that omits a field leaves the prior value.
type Telemetry struct {
	Speed      float64 `json:"speed"`
	RPM        float64 `json:"rpm"`
	Gear       int     `json:"gear"`
	Throttle   float64 `json:"throttle"`
	Brake      float64 `json:"brake"`
	Fuel       float64 `json:"fuel"`
	TireTemp   float64 `json:"tire_temp"`
	EngineTemp float64 `json:"engine_temp"`
	DRS        bool    `json:"drs"`
}

// LapStats accumulates completed-lap information for a vehicle.
type LapStats struct {
	Lap         int       `json:"lap"`
	LastLapTime float64   `json:"last_lap_time"`
	BestLapTime float64   `json:"best_lap_time"`
	SectorTimes []float64 `json:"sector_times,omitempty"`
	InPit       bool      `json:"in_pit"`
}

// Position is a vehicle's reconciled spatial state: the raw projected
// fix, the track-locked position, and the derived heading and progress.
type Position struct {
	Raw      geo.LocalPoint `json:"raw"`
	Locked   geo.LocalPoint `json:"locked"`
	Heading  float64        `json:"heading"`
	Progress float64        `json:"progress"`
}

// VehicleEntity is one vehicle's full reconciled state. Entities are
// created on the first frame mentioning their id and never deleted during
// a session: a vehicle that stops reporting keeps its last known state so
// the render side does not pop.
type VehicleEntity struct {
	ID         string    `json:"id"`
	Position   Position  `json:"position"`
	HasFix     bool      `json:"has_fix"`
	Telemetry  Telemetry `json:"telemetry"`
	LapStats   LapStats  `json:"lap_stats"`
	LastUpdate time.Time `json:"last_update"`
}

// Playback is the session playback state mirrored from control commands
// and stream markers.
type Playback struct {
	Mode  string  `json:"mode"` // live | paused | reversed | finished
	Speed float64 `json:"speed"`
}

// Store is the single place where polled frames become durable, consistent,
// queryable state. One reconciler goroutine writes; HTTP handlers and the
// render loop read. Every read is a snapshot: readers never observe a
// partially-updated entity.
type Store struct {
	mu sync.RWMutex

	vehicles    map[string]*VehicleEntity
	leaderboard []feed.LeaderboardEntry
	weather     feed.Weather
	hasWeather  bool

	selected     string
	everSelected bool

	playback     Playback
	connected    bool
	everReceived bool
	lastUpdate   time.Time
	version      uint64
}

// New creates an empty Store in live playback at unit speed.
func New() *Store {
	return &Store{
		vehicles: map[string]*VehicleEntity{},
		playback: Playback{Mode: "live", Speed: 1.0},
	}
}

// UpsertVehicle merges a partial telemetry update into the entity for id,
// creating it on first sight. Fields absent from the update keep their
// prior values. A nil pos keeps the prior position, so a frame without GPS
// fields never snaps a vehicle back to the origin.
//
// If this is the very first vehicle the store has ever seen and nothing
// has ever been selected, it becomes the selected vehicle. The rule does
// not re-trigger later in the session.
func (s *Store) UpsertVehicle(id string, vt feed.VehicleTelemetry, pos *Position) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasEmpty := len(s.vehicles) == 0
	e := s.ensureVehicleLocked(id)

	if vt.Speed != nil {
		e.Telemetry.Speed = *vt.Speed
	}
	if vt.RPM != nil {
		e.Telemetry.RPM = *vt.RPM
	}
	if vt.Gear != nil {
		e.Telemetry.Gear = *vt.Gear
	}
	if vt.Throttle != nil {
		e.Telemetry.Throttle = *vt.Throttle
	}
	if vt.Brake != nil {
		e.Telemetry.Brake = *vt.Brake
	}
	if vt.Fuel != nil {
		e.Telemetry.Fuel = *vt.Fuel
	}
	if vt.TireTemp != nil {
		e.Telemetry.TireTemp = *vt.TireTemp
	}
	if vt.EngineTemp != nil {
		e.Telemetry.EngineTemp = *vt.EngineTemp
	}
	if vt.DRS != nil {
		e.Telemetry.DRS = *vt.DRS
	}
	if pos != nil {
		e.Position = *pos
		e.HasFix = true
	}
	e.LastUpdate = time.Now()

	if wasEmpty && !s.everSelected {
		s.selected = id
		s.everSelected = true
	}
	s.touchLocked()
}

// UpsertLeaderboard replaces the entry for the vehicle id, then re-sorts
// the full collection by ascending position. The sort is stable so rank
// ties keep their prior relative order instead of shuffling every tick.
func (s *Store) UpsertLeaderboard(entry feed.LeaderboardEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.leaderboard {
		if s.leaderboard[i].VehicleID == entry.VehicleID {
			s.leaderboard[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		s.leaderboard = append(s.leaderboard, entry)
	}
	sort.SliceStable(s.leaderboard, func(i, j int) bool {
		return s.leaderboard[i].Position < s.leaderboard[j].Position
	})
	s.touchLocked()
}

// ApplyLapEvent merges a completed-lap record into the vehicle's entity.
func (s *Store) ApplyLapEvent(ev feed.LapEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.ensureVehicleLocked(ev.VehicleID)
	if ev.Lap > e.LapStats.Lap {
		e.LapStats.Lap = ev.Lap
	}
	if ev.LapTime > 0 {
		e.LapStats.LastLapTime = ev.LapTime
		if e.LapStats.BestLapTime == 0 || ev.LapTime < e.LapStats.BestLapTime {
			e.LapStats.BestLapTime = ev.LapTime
		}
	}
	if len(ev.SectorTimes) > 0 {
		e.LapStats.SectorTimes = append([]float64(nil), ev.SectorTimes...)
	}
	e.LapStats.InPit = ev.Pit
	s.touchLocked()
}

// SetWeather replaces the ambient conditions.
func (s *Store) SetWeather(w feed.Weather) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = w
	s.hasWeather = true
	s.touchLocked()
}

// SetConnected records data-source connectivity. Any successful frame
// marks the store as having received data at least once.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
	if connected {
		s.everReceived = true
	}
	s.version++
}

// SelectVehicle sets the detail-view selection explicitly.
func (s *Store) SelectVehicle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
	s.everSelected = true
	s.version++
}

// SetPlayback replaces the playback mode.
func (s *Store) SetPlayback(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.Mode = mode
	s.version++
}

// SetPlaybackSpeed sets the playback speed multiplier.
func (s *Store) SetPlaybackSpeed(speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback.Speed = speed
	s.version++
}

// ResetToStart returns playback to live mode at unit speed.
func (s *Store) ResetToStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playback = Playback{Mode: "live", Speed: 1.0}
	s.version++
}

// Vehicle returns a snapshot of one entity.
func (s *Store) Vehicle(id string) (VehicleEntity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.vehicles[id]
	if !ok {
		return VehicleEntity{}, false
	}
	return copyEntity(e), true
}

// Vehicles returns snapshots of all entities, ordered by id.
func (s *Store) Vehicles() []VehicleEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]VehicleEntity, 0, len(s.vehicles))
	for _, e := range s.vehicles {
		out = append(out, copyEntity(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Leaderboard returns a snapshot of the sorted leaderboard.
func (s *Store) Leaderboard() []feed.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]feed.LeaderboardEntry(nil), s.leaderboard...)
}

// Weather returns the latest ambient conditions and whether any have
// arrived yet.
func (s *Store) Weather() (feed.Weather, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weather, s.hasWeather
}

// SelectedVehicle returns the current detail-view selection.
func (s *Store) SelectedVehicle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Playback returns the playback state.
func (s *Store) Playback() Playback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback
}

// Connected reports whether data has ever arrived and the source is not
// currently failing; drives the UI's connectivity indicator.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.everReceived && s.connected
}

// LastUpdate returns the time of the most recent data mutation.
func (s *Store) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// Version returns a counter that increments on every mutation; consumers
// use it as a cheap cache key.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) ensureVehicleLocked(id string) *VehicleEntity {
	e, ok := s.vehicles[id]
	if !ok {
		e = &VehicleEntity{ID: id}
		s.vehicles[id] = e
	}
	return e
}

func (s *Store) touchLocked() {
	s.lastUpdate = time.Now()
	s.version++
}

func copyEntity(e *VehicleEntity) VehicleEntity {
	out := *e
	out.LapStats.SectorTimes = append([]float64(nil), e.LapStats.SectorTimes...)
	return out
}
