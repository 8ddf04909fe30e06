package feed

import (
	"encoding/json"
	"fmt"
)

// FrameKind discriminates the three shapes the telemetry endpoint can
// return: a real telemetry snapshot, a connection marker sent while the
// backend is spinning up a session, or an end-of-stream marker.
type FrameKind int

const (
	FrameTelemetry FrameKind = iota
	FrameConnection
	FrameEndOfStream
)

func (k FrameKind) String() string {
	switch k {
	case FrameTelemetry:
		return "telemetry"
	case FrameConnection:
		return "connection"
	case FrameEndOfStream:
		return "end-of-stream"
	}
	return "unknown"
}

// Frame is the decoded tagged union. Telemetry is non-nil only for
// FrameTelemetry.
type Frame struct {
	Kind      FrameKind
	Connected bool
	Telemetry *TelemetrySnapshot
}

// frameProbe looks only at the discriminating fields so the variant is
// decided once, here at the transport boundary.
type frameProbe struct {
	Connected   *bool           `json:"connected"`
	EndOfStream *bool           `json:"end_of_stream"`
	Timestamp   *float64        `json:"timestamp"`
	Vehicles    json.RawMessage `json:"vehicles"`
}

// DecodeFrame classifies and decodes a raw telemetry response body.
func DecodeFrame(raw []byte) (Frame, error) {
	var probe frameProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}

	switch {
	case probe.EndOfStream != nil && *probe.EndOfStream:
		return Frame{Kind: FrameEndOfStream}, nil
	case probe.Connected != nil:
		return Frame{Kind: FrameConnection, Connected: *probe.Connected}, nil
	case probe.Timestamp != nil || probe.Vehicles != nil:
		var snap TelemetrySnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return Frame{}, fmt.Errorf("decode telemetry frame: %w", err)
		}
		return Frame{Kind: FrameTelemetry, Connected: true, Telemetry: &snap}, nil
	}
	return Frame{}, fmt.Errorf("unrecognized frame shape: %s", truncate(raw, 120))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
