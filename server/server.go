package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/apexgrid/racedash/engine"
	"github.com/apexgrid/racedash/log"
)

var errMissingVehicleID = errors.New("vehicle_id is required")

const cacheSize = 128

// Server is the dashboard's HTTP read surface plus the two control
// endpoints. All state lives in the engine; the server only encodes it.
type Server struct {
	engine *engine.Engine
	lg     *log.Logger
	cache  *responseCache
	http   *http.Server
}

// New wires the routes and the response cache. The server does not listen
// until Start.
func New(port int, e *engine.Engine, lg *log.Logger) *Server {
	s := &Server{
		engine: e,
		lg:     lg,
		cache:  newResponseCache(cacheSize),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/vehicles.json", s.handleVehiclesJSON)
	mux.HandleFunc("/api/render.json", s.handleRenderJSON)
	mux.HandleFunc("/api/leaderboard.json", s.handleLeaderboardJSON)
	mux.HandleFunc("/api/state.json", s.handleStateJSON)
	mux.HandleFunc("/api/track.geojson", s.handleTrackGeoJSON)
	mux.HandleFunc("/api/control", s.handleControl)
	mux.HandleFunc("/api/select", s.handleSelect)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start begins serving and blocks until the listener closes. A clean
// Shutdown returns nil.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	s.lg.Info("server listening", "addr", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
