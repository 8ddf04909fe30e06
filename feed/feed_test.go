package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind FrameKind
		wantErr  bool
	}{
		{
			name:     "telemetry frame",
			raw:      `{"timestamp":1723000000.5,"vehicles":{"V1":{"gps_lat":52.07,"gps_lon":-1.016,"speed":250.3}}}`,
			wantKind: FrameTelemetry,
		},
		{
			name:     "connection marker",
			raw:      `{"connected":true}`,
			wantKind: FrameConnection,
		},
		{
			name:     "disconnected marker",
			raw:      `{"connected":false}`,
			wantKind: FrameConnection,
		},
		{
			name:     "end of stream",
			raw:      `{"end_of_stream":true}`,
			wantKind: FrameEndOfStream,
		},
		{
			name:     "vehicles without timestamp",
			raw:      `{"vehicles":{}}`,
			wantKind: FrameTelemetry,
		},
		{
			name:    "malformed json",
			raw:     `{"timestamp":`,
			wantErr: true,
		},
		{
			name:    "unrecognized shape",
			raw:     `{"something":"else"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected decode error, got frame %+v", f)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeFrame failed: %v", err)
			}
			if f.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, f.Kind)
			}
		})
	}
}

func TestDecodeFrame_TelemetryFields(t *testing.T) {
	raw := `{"timestamp":10,"vehicles":{"V1":{"gps_lat":52.07,"speed":250.3,"gear":5}},"weather":{"air_temp":24.5,"rainfall":true}}`
	f, err := DecodeFrame([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	vt, ok := f.Telemetry.Vehicles["V1"]
	if !ok {
		t.Fatal("vehicle V1 missing")
	}
	if vt.GPSLat == nil || *vt.GPSLat != 52.07 {
		t.Errorf("gps_lat not decoded: %v", vt.GPSLat)
	}
	if vt.Gear == nil || *vt.Gear != 5 {
		t.Errorf("gear not decoded: %v", vt.Gear)
	}
	if vt.GPSLon != nil {
		t.Error("absent gps_lon should decode to nil")
	}
	if f.Telemetry.Weather == nil || !f.Telemetry.Weather.Rainfall {
		t.Errorf("weather not decoded: %+v", f.Telemetry.Weather)
	}
}

func TestClient_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.LatestTelemetry(context.Background())
	if !errors.Is(err, ErrNotReady) {
		t.Errorf("503 should map to ErrNotReady, got %v", err)
	}
}

func TestClient_LatestLeaderboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/latest-leaderboard" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"leaderboard":[{"vehicle_id":"V2","position":1},{"vehicle_id":"V1","position":2}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	lb, err := c.LatestLeaderboard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(lb.Entries) != 2 || lb.Entries[0].VehicleID != "V2" {
		t.Errorf("unexpected leaderboard: %+v", lb.Entries)
	}
}

func TestClient_SendControl(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/control-command" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		gotBody = string(buf)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	speed := 2.0
	if err := c.SendControl(context.Background(), Command{Type: "speed", Value: &speed}); err != nil {
		t.Fatalf("SendControl failed: %v", err)
	}
	if gotBody != `{"type":"speed","value":2}` {
		t.Errorf("unexpected body: %s", gotBody)
	}

	if err := c.SendControl(context.Background(), Command{Type: "warp"}); err == nil {
		t.Error("unknown command type should be rejected before any request")
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL)
	_, err := c.LatestTelemetry(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
