package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apexgrid/racedash/config"
	"github.com/apexgrid/racedash/engine"
	"github.com/apexgrid/racedash/feed"
	"github.com/apexgrid/racedash/log"
)

const trackJSON = `{
	"name": "Test Ring",
	"points": [
		{"lat": 45.0000, "lon": 7.0000, "alt": 200},
		{"lat": 45.0010, "lon": 7.0000, "alt": 200},
		{"lat": 45.0010, "lon": 7.0010, "alt": 200},
		{"lat": 45.0000, "lon": 7.0010, "alt": 200}
	]
}`

func newTestServer(t *testing.T, backendURL string) (*Server, *engine.Engine) {
	t.Helper()

	trackPath := filepath.Join(t.TempDir(), "track.json")
	if err := os.WriteFile(trackPath, []byte(trackJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg config.AppConfig
	cfg.Backend.BaseURL = backendURL
	cfg.Track.DefinitionPath = trackPath
	cfg.Track.Scale = 1.0

	e, err := engine.New(cfg, log.Discard())
	if err != nil {
		t.Fatal(err)
	}
	return New(0, e, log.Discard()), e
}

func get(t *testing.T, ts *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, "http://backend.invalid")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	var resp healthResponse
	get(t, ts, "/api/health", &resp)
	if resp.Status != "ok" {
		t.Errorf("status: %q", resp.Status)
	}
	if resp.Connected {
		t.Error("fresh engine should not report connected")
	}
}

func TestVehiclesJSON(t *testing.T) {
	s, e := newTestServer(t, "http://backend.invalid")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	speed := 187.0
	e.Store().UpsertVehicle("V1", feed.VehicleTelemetry{Speed: &speed}, nil)

	var resp vehiclesResponse
	get(t, ts, "/api/vehicles.json", &resp)
	if len(resp.Vehicles) != 1 || resp.Vehicles[0].ID != "V1" {
		t.Fatalf("unexpected vehicles: %+v", resp.Vehicles)
	}
	if resp.Vehicles[0].Telemetry.Speed != 187.0 {
		t.Errorf("speed: %v", resp.Vehicles[0].Telemetry.Speed)
	}
	if resp.Selected != "V1" {
		t.Errorf("selected: %q", resp.Selected)
	}
}

func TestVehiclesJSON_CacheTracksVersion(t *testing.T) {
	s, e := newTestServer(t, "http://backend.invalid")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	e.Store().UpsertVehicle("V1", feed.VehicleTelemetry{}, nil)

	var first vehiclesResponse
	get(t, ts, "/api/vehicles.json", &first)

	// A mutation bumps the store version; the next read must not come
	// from the earlier cache entry.
	e.Store().UpsertVehicle("V2", feed.VehicleTelemetry{}, nil)

	var second vehiclesResponse
	get(t, ts, "/api/vehicles.json", &second)
	if len(second.Vehicles) != 2 {
		t.Errorf("cached stale body served: %+v", second.Vehicles)
	}
}

func TestLeaderboardJSON(t *testing.T) {
	s, e := newTestServer(t, "http://backend.invalid")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	e.Store().UpsertLeaderboard(feed.LeaderboardEntry{VehicleID: "V2", Position: 2})
	e.Store().UpsertLeaderboard(feed.LeaderboardEntry{VehicleID: "V1", Position: 1})

	var resp leaderboardResponse
	get(t, ts, "/api/leaderboard.json", &resp)
	if len(resp.Leaderboard) != 2 || resp.Leaderboard[0].VehicleID != "V1" {
		t.Errorf("unexpected leaderboard: %+v", resp.Leaderboard)
	}
}

func TestStateJSON(t *testing.T) {
	s, e := newTestServer(t, "http://backend.invalid")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	e.Store().SetWeather(feed.Weather{AirTemp: 19.5})
	e.Store().SetPlayback("paused")

	var resp stateResponse
	get(t, ts, "/api/state.json", &resp)
	if resp.Track != "Test Ring" {
		t.Errorf("track name: %q", resp.Track)
	}
	if resp.Playback.Mode != "paused" {
		t.Errorf("playback: %+v", resp.Playback)
	}
	if resp.Weather == nil || resp.Weather.AirTemp != 19.5 {
		t.Errorf("weather: %+v", resp.Weather)
	}
}

func TestTrackGeoJSON(t *testing.T) {
	s, _ := newTestServer(t, "http://backend.invalid")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/track.geojson")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content type: %q", ct)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("unexpected geojson shape: %+v", fc)
	}
	// Closed ring: 4 points plus the repeated first point.
	if got := len(fc.Features[0].Geometry.Coordinates); got != 5 {
		t.Errorf("ring has %d coordinates, want 5", got)
	}
}

func TestSelect(t *testing.T) {
	s, e := newTestServer(t, "http://backend.invalid")
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := bytes.NewBufferString(`{"vehicle_id": "V7"}`)
	resp, err := ts.Client().Post(ts.URL+"/api/select", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select returned %d", resp.StatusCode)
	}
	if got := e.Store().SelectedVehicle(); got != "V7" {
		t.Errorf("selection not applied: %q", got)
	}

	// Missing id is a client error.
	resp, err = ts.Client().Post(ts.URL+"/api/select", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty select returned %d", resp.StatusCode)
	}
}

func TestControl(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/control-command" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer backend.Close()

	s, e := newTestServer(t, backend.URL)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/control", "application/json",
		strings.NewReader(`{"type": "pause"}`))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("control returned %d", resp.StatusCode)
	}
	if pb := e.Store().Playback(); pb.Mode != "paused" {
		t.Errorf("playback not mirrored: %+v", pb)
	}

	// Unknown command types are rejected before reaching the backend.
	resp, err = ts.Client().Post(ts.URL+"/api/control", "application/json",
		strings.NewReader(`{"type": "warp"}`))
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("unknown command accepted")
	}

	// GET is not allowed on control.
	getResp, err := ts.Client().Get(ts.URL + "/api/control")
	if err != nil {
		t.Fatal(err)
	}
	_ = getResp.Body.Close()
	if getResp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET control returned %d", getResp.StatusCode)
	}
}
