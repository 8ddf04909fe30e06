// Package engine composes the telemetry pipeline: polling the backend,
// projecting and track-locking vehicle positions, reconciling frames into
// the store, and driving the render interpolator.
package engine
