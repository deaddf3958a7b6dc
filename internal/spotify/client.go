package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the Spotify Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// StatusError is a non-2xx response from the player API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify api: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the player API, the
// condition that triggers the orchestrator's single transfer-and-retry.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Client is a typed player client over an authenticated HTTP transport.
// The transport is expected to inject and refresh the OAuth token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *log.Logger
}

// NewClient creates a player client. httpClient carries the OAuth
// transport; a zero timeout falls back to 15 seconds.
func NewClient(httpClient *http.Client, timeout time.Duration, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    DefaultBaseURL,
		timeout:    timeout,
		logger:     logger,
	}
}

// SetBaseURL overrides the API root (tests).
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

// ==========================================================================
// Player endpoints
// ==========================================================================

type devicesResponse struct {
	Devices []Device `json:"devices"`
}

// ListDevices fetches the live device list.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var parsed devicesResponse
	if err := c.do(ctx, http.MethodGet, "/me/player/devices", nil, nil, &parsed); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return parsed.Devices, nil
}

type transferRequest struct {
	DeviceIDs []string `json:"device_ids"`
	Play      bool     `json:"play"`
}

// TransferPlayback moves the playback session to the given device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, forcePlay bool) error {
	body := transferRequest{DeviceIDs: []string{deviceID}, Play: forcePlay}
	if err := c.do(ctx, http.MethodPut, "/me/player", nil, body, nil); err != nil {
		return fmt.Errorf("transfer playback: %w", err)
	}
	return nil
}

// SetVolume sets the volume on the given device. Percent must already be
// clamped by the caller.
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) error {
	query := url.Values{}
	query.Set("volume_percent", strconv.Itoa(percent))
	if deviceID != "" {
		query.Set("device_id", deviceID)
	}
	if err := c.do(ctx, http.MethodPut, "/me/player/volume", query, nil, nil); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

// StartPlayback starts the given content on the given device.
func (c *Client) StartPlayback(ctx context.Context, deviceID string, body PlayBody) error {
	query := url.Values{}
	if deviceID != "" {
		query.Set("device_id", deviceID)
	}
	if err := c.do(ctx, http.MethodPut, "/me/player/play", query, body, nil); err != nil {
		return fmt.Errorf("start playback: %w", err)
	}
	return nil
}

// ==========================================================================
// Transport
// ==========================================================================

type apiErrorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed apiErrorResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return &StatusError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}
	return &StatusError{StatusCode: resp.StatusCode}
}
