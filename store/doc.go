// Package store holds the reconciled, render-ready session state:
// per-vehicle entities, the leaderboard, weather, selection, and playback
// mode. All mutation goes through defined upsert operations and all reads
// are consistent snapshots.
package store
