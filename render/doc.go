// Package render smooths per-vehicle display state between data arrivals.
package render
