// Package config provides YAML configuration loading and validation for
// the telemetry engine: backend polling cadence, track definition input,
// render smoothing parameters, and the HTTP server port.
package config
