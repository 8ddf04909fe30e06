package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/apexgrid/racedash/config"
	"github.com/apexgrid/racedash/feed"
	"github.com/apexgrid/racedash/geo"
	"github.com/apexgrid/racedash/log"
	"github.com/apexgrid/racedash/poll"
	"github.com/apexgrid/racedash/render"
	"github.com/apexgrid/racedash/store"
	"github.com/apexgrid/racedash/track"
)

// Engine owns the full ingestion pipeline: the backend client, the
// projection context, the track model, the reconciliation store, and the
// render interpolator. It is the composition root; nothing in the
// pipeline holds hidden global state, so tests can run engines in
// parallel.
type Engine struct {
	cfg    config.AppConfig
	lg     *log.Logger
	client *feed.Client

	projector  *geo.Projector
	trackCache *track.Cache
	track      *track.Model
	trackName  string

	store  *store.Store
	interp *render.Interpolator
}

// New loads the track definition, centers the projection on its centroid,
// builds the track model, and wires the store and interpolator. Polling
// does not begin until Run.
func New(cfg config.AppConfig, lg *log.Logger) (*Engine, error) {
	def, err := track.LoadDefinition(cfg.Track.DefinitionPath)
	if err != nil {
		return nil, fmt.Errorf("load track: %w", err)
	}

	projector := geo.NewProjector(lg)
	projector.SetReferenceFromCentroid(def.Points, cfg.Track.Scale)

	cache := track.NewCache(projector)
	model := cache.Build(def.Points)

	lg.Info("track model built",
		"name", def.Name,
		"points", model.Len(),
		"scale", cfg.Track.Scale)

	return &Engine{
		cfg:        cfg,
		lg:         lg,
		client:     feed.NewClient(cfg.Backend.BaseURL),
		projector:  projector,
		trackCache: cache,
		track:      model,
		trackName:  def.Name,
		store:      store.New(),
		interp:     render.NewInterpolator(cfg.Render.Gain),
	}, nil
}

// Store exposes the read surface consumed by the HTTP layer.
func (e *Engine) Store() *store.Store { return e.store }

// Track returns the built track model.
func (e *Engine) Track() *track.Model { return e.track }

// TrackName returns the track definition's display name.
func (e *Engine) TrackName() string { return e.trackName }

// Interpolator returns the render-side smoothing state.
func (e *Engine) Interpolator() *render.Interpolator { return e.interp }

// Run starts the three poll sources, the reconciler, and the render
// ticker, and blocks until ctx is cancelled. Sources are stopped before
// Run returns, so no deliveries outlive it.
func (e *Engine) Run(ctx context.Context) error {
	timeout := time.Duration(e.cfg.Backend.TimeoutMS) * time.Millisecond
	opts := poll.Options{
		Immediate:   true,
		Timeout:     timeout,
		IsTransient: func(err error) bool { return errors.Is(err, feed.ErrNotReady) },
	}

	telemetry := poll.Start("telemetry",
		time.Duration(e.cfg.Backend.TelemetryIntervalMS)*time.Millisecond,
		e.client.LatestTelemetry, opts, e.lg)
	leaderboard := poll.Start("leaderboard",
		time.Duration(e.cfg.Backend.LeaderboardIntervalMS)*time.Millisecond,
		e.client.LatestLeaderboard, opts, e.lg)
	laps := poll.Start("lap-events",
		time.Duration(e.cfg.Backend.LapEventsIntervalMS)*time.Millisecond,
		e.client.LatestLapEvents, opts, e.lg)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		telemetry.Stop()
		leaderboard.Stop()
		laps.Stop()
		return nil
	})

	g.Go(func() error {
		return e.reconcile(ctx, telemetry, leaderboard, laps)
	})

	g.Go(func() error {
		return e.renderLoop(ctx)
	})

	return g.Wait()
}

// reconcile is the single consumer of all source channels; it is the only
// writer of the store, which preserves per-source apply order without any
// coordination between sources.
func (e *Engine) reconcile(
	ctx context.Context,
	telemetry *poll.Source[feed.Frame],
	leaderboard *poll.Source[feed.Leaderboard],
	laps *poll.Source[feed.LapEvents],
) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case f, ok := <-telemetry.Data():
			if !ok {
				return nil
			}
			e.applyFrame(f)

		case lb, ok := <-leaderboard.Data():
			if !ok {
				return nil
			}
			for _, entry := range lb.Entries {
				e.store.UpsertLeaderboard(entry)
			}
			e.store.SetConnected(true)

		case le, ok := <-laps.Data():
			if !ok {
				return nil
			}
			for _, ev := range le.Events {
				e.store.ApplyLapEvent(ev)
			}

		case err, ok := <-telemetry.Errors():
			if !ok {
				return nil
			}
			e.noteError(err)

		case err, ok := <-leaderboard.Errors():
			if !ok {
				return nil
			}
			e.noteError(err)

		case err, ok := <-laps.Errors():
			if !ok {
				return nil
			}
			e.noteError(err)
		}
	}
}

func (e *Engine) applyFrame(f feed.Frame) {
	switch f.Kind {
	case feed.FrameConnection:
		e.store.SetConnected(f.Connected)

	case feed.FrameEndOfStream:
		e.store.SetPlayback("finished")

	case feed.FrameTelemetry:
		snap := f.Telemetry
		for id, vt := range snap.Vehicles {
			var pos *store.Position
			if vt.GPSLat != nil && vt.GPSLon != nil {
				alt := 0.0
				if vt.Altitude != nil {
					alt = *vt.Altitude
				}
				raw := e.projector.ToLocal(*vt.GPSLat, *vt.GPSLon, alt)
				lock := e.track.Locate(raw)
				pos = &store.Position{
					Raw:      raw,
					Locked:   lock.Position,
					Heading:  lock.Heading,
					Progress: e.track.Progress(raw),
				}
				e.interp.SetTarget(id, lock.Position, lock.Heading)
			}
			e.store.UpsertVehicle(id, vt, pos)
		}
		if snap.Weather != nil {
			e.store.SetWeather(*snap.Weather)
		}
		e.store.SetConnected(true)
	}
}

// noteError marks the store disconnected on transport failures; transient
// not-ready conditions keep whatever connectivity state we had, since the
// backend itself is reachable.
func (e *Engine) noteError(err error) {
	if errors.Is(err, feed.ErrNotReady) {
		return
	}
	e.store.SetConnected(false)
}

// renderLoop advances the interpolator at the configured tick rate using
// the measured inter-tick delta, not the nominal one.
func (e *Engine) renderLoop(ctx context.Context) error {
	hz := e.cfg.Render.TickHz
	if hz <= 0 {
		hz = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			e.interp.Advance(now.Sub(last).Seconds())
			last = now
		}
	}
}

// SendControl forwards a playback command to the backend and, on explicit
// success, mirrors the resulting playback state into the store.
func (e *Engine) SendControl(ctx context.Context, cmd feed.Command) error {
	if err := e.client.SendControl(ctx, cmd); err != nil {
		return err
	}
	switch cmd.Type {
	case "play":
		e.store.SetPlayback("live")
	case "pause":
		e.store.SetPlayback("paused")
	case "reverse":
		e.store.SetPlayback("reversed")
	case "restart":
		e.store.ResetToStart()
	case "speed":
		if cmd.Value != nil {
			e.store.SetPlaybackSpeed(*cmd.Value)
		}
	}
	return nil
}
