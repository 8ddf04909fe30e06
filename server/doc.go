// Package server exposes the reconciled race state over HTTP for the
// dashboard frontend.
package server
