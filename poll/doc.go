// Package poll implements the resilient polling engine: each Source runs
// one independently-cadenced fetch loop against the backend with a
// single-flight guarantee (never two fetches outstanding for the same
// source) and explicit, idempotent teardown.
//
// Each fetch attempt is a cycle identified by a distinct token. Beginning
// a new cycle cancels the previous one's context and invalidates its
// token, so a response that arrives after being superseded is dropped
// before it reaches a consumer. The fixed interval is also the retry
// policy: failures are delivered on Errors() and the next tick tries
// again, with no added backoff.
//
// Multiple sources (telemetry, leaderboard, lap events) run side by side
// with no shared state; each delivers into its own channels and ordering
// is guaranteed only within a source.
package poll
