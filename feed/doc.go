// Package feed is the transport boundary to the race data backend: an
// HTTP client for the latest-snapshot endpoints, the wire types, and the
// tagged-union frame decoding that classifies a telemetry response as a
// real snapshot, a connection marker, or an end-of-stream marker exactly
// once, before anything downstream sees it.
package feed
