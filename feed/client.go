package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotReady marks the expected-transient condition where the backend is
// up but the resource is not available yet (session still loading). It is
// recovered by the next poll cycle; callers rate-limit its logging.
var ErrNotReady = errors.New("backend not ready")

// Client talks to the race data backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL. Request deadlines
// come from the caller's context (the polling engine supplies per-fetch
// timeouts), so the underlying http.Client carries none of its own.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusServiceUnavailable, http.StatusTooEarly:
		return nil, fmt.Errorf("%s: %w", path, ErrNotReady)
	default:
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

// LatestTelemetry fetches and decodes the latest telemetry frame.
func (c *Client) LatestTelemetry(ctx context.Context) (Frame, error) {
	raw, err := c.get(ctx, "/api/latest-telemetry")
	if err != nil {
		return Frame{}, err
	}
	return DecodeFrame(raw)
}

// LatestLeaderboard fetches and decodes the latest leaderboard snapshot.
func (c *Client) LatestLeaderboard(ctx context.Context) (Leaderboard, error) {
	var lb Leaderboard
	raw, err := c.get(ctx, "/api/latest-leaderboard")
	if err != nil {
		return lb, err
	}
	if err := json.Unmarshal(raw, &lb); err != nil {
		return lb, fmt.Errorf("decode leaderboard: %w", err)
	}
	return lb, nil
}

// LatestLapEvents fetches and decodes the latest lap-event snapshot.
func (c *Client) LatestLapEvents(ctx context.Context) (LapEvents, error) {
	var le LapEvents
	raw, err := c.get(ctx, "/api/latest-lap-events")
	if err != nil {
		return le, err
	}
	if err := json.Unmarshal(raw, &le); err != nil {
		return le, fmt.Errorf("decode lap events: %w", err)
	}
	return le, nil
}

// SendControl posts a playback control command. It is not part of any
// polling cycle and carries no implicit timeout beyond the caller's
// context: the caller must learn explicitly whether the command succeeded.
func (c *Client) SendControl(ctx context.Context, cmd Command) error {
	if !CommandTypes[cmd.Type] {
		return fmt.Errorf("unknown control command %q", cmd.Type)
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode control command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/control-command", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build control request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send control command: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control command rejected: HTTP %d", resp.StatusCode)
	}
	return nil
}
