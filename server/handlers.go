package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/apexgrid/racedash/feed"
	"github.com/apexgrid/racedash/render"
	"github.com/apexgrid/racedash/store"
)

type healthResponse struct {
	Status     string `json:"status"`
	Connected  bool   `json:"connected"`
	Vehicles   int    `json:"vehicles"`
	LastUpdate int64  `json:"last_update_epoch"`
	UptimeSec  int64  `json:"uptime_sec"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	st := s.engine.Store()
	resp := healthResponse{
		Status:     "ok",
		Connected:  st.Connected(),
		Vehicles:   len(st.Vehicles()),
		LastUpdate: st.LastUpdate().Unix(),
		UptimeSec:  int64(time.Since(s.lg.Start).Seconds()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

type vehiclesResponse struct {
	Vehicles []store.VehicleEntity `json:"vehicles"`
	Selected string                `json:"selected"`
}

func (s *Server) handleVehiclesJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	st := s.engine.Store()

	key := s.cache.key("vehicles", st.Version())
	if body, ok := s.cache.get(key); ok {
		_, _ = w.Write(body)
		return
	}

	body, err := json.Marshal(vehiclesResponse{
		Vehicles: st.Vehicles(),
		Selected: st.SelectedVehicle(),
	})
	if err != nil {
		w.WriteHeader(500)
		_, _ = w.Write(errorPayload(err))
		return
	}
	s.cache.put(key, body)
	_, _ = w.Write(body)
}

type renderResponse struct {
	States map[string]render.State `json:"states"`
}

// handleRenderJSON serves the interpolated display states. Not cached:
// the interpolator advances every render tick, far faster than the store
// version moves, so memoizing would serve visibly stale positions.
func (s *Server) handleRenderJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(renderResponse{States: s.engine.Interpolator().Snapshot()})
}

type leaderboardResponse struct {
	Leaderboard []feed.LeaderboardEntry `json:"leaderboard"`
}

func (s *Server) handleLeaderboardJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	st := s.engine.Store()

	key := s.cache.key("leaderboard", st.Version())
	if body, ok := s.cache.get(key); ok {
		_, _ = w.Write(body)
		return
	}

	body, err := json.Marshal(leaderboardResponse{Leaderboard: st.Leaderboard()})
	if err != nil {
		w.WriteHeader(500)
		_, _ = w.Write(errorPayload(err))
		return
	}
	s.cache.put(key, body)
	_, _ = w.Write(body)
}

type stateResponse struct {
	Connected bool           `json:"connected"`
	Playback  store.Playback `json:"playback"`
	Selected  string         `json:"selected"`
	Weather   *feed.Weather  `json:"weather,omitempty"`
	Track     string         `json:"track"`
}

func (s *Server) handleStateJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	st := s.engine.Store()

	resp := stateResponse{
		Connected: st.Connected(),
		Playback:  st.Playback(),
		Selected:  st.SelectedVehicle(),
		Track:     s.engine.TrackName(),
	}
	if weather, ok := st.Weather(); ok {
		resp.Weather = &weather
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// handleTrackGeoJSON serves the centerline. The model never changes after
// startup, so the body is cached under a constant version.
func (s *Server) handleTrackGeoJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")

	key := s.cache.key("track", 0)
	if body, ok := s.cache.get(key); ok {
		_, _ = w.Write(body)
		return
	}
	body, err := s.engine.Track().GeoJSON(s.engine.TrackName())
	if err != nil {
		w.WriteHeader(500)
		_, _ = w.Write(errorPayload(err))
		return
	}
	s.cache.put(key, body)
	_, _ = w.Write(body)
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var cmd feed.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		w.WriteHeader(400)
		_, _ = w.Write(errorPayload(err))
		return
	}
	if err := s.engine.SendControl(r.Context(), cmd); err != nil {
		s.lg.Error("control command failed", "type", cmd.Type, "err", err)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write(errorPayload(err))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type selectRequest struct {
	VehicleID string `json:"vehicle_id"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VehicleID == "" {
		w.WriteHeader(400)
		_, _ = w.Write(errorPayload(errMissingVehicleID))
		return
	}
	s.engine.Store().SelectVehicle(req.VehicleID)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "selected": req.VehicleID})
}

func errorPayload(err error) []byte {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return body
}
