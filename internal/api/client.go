// Package api calls the remote path optimization service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"welltwin-renderer/internal/dataset"
)

// DefaultBaseURL is the public optimization service.
const DefaultBaseURL = "https://etscan.org"

// Client posts coordinates to the optimizer and returns the proposed well
// path.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for baseURL with a 30s timeout. An empty
// baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

type optimizeRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type optimizeResponse struct {
	Path []dataset.SamplePoint `json:"path"`
}

// OptimizePath asks the service for the best path starting at (lat, lon).
// A missing path in the response is an empty result, not an error.
func (c *Client) OptimizePath(ctx context.Context, lat, lon float64) ([]dataset.SamplePoint, error) {
	body, err := json.Marshal(optimizeRequest{Lat: lat, Lon: lon})
	if err != nil {
		return nil, fmt.Errorf("api: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/dijkstrainput", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: optimize path: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api: optimize path: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out optimizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("api: decode response: %w", err)
	}
	return out.Path, nil
}
