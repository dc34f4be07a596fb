package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"aqmap-server/internal/modules/airquality/types"
)

// Fetcher returns the current reading array from the upstream.
type Fetcher interface {
	Fetch(ctx context.Context) ([]types.Reading, error)
}

type Client struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewClient returns a client for the upstream reading endpoint. A nil
// httpClient gets one with the given timeout.
func NewClient(url string, timeout time.Duration, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{url: url, client: httpClient, logger: logger}
}

// Fetch issues one GET. There is no retry: a failure is returned to the caller
// as is.
func (c *Client) Fetch(ctx context.Context) ([]types.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c.url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("close upstream body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return nil, fmt.Errorf("get %s: unexpected status %d", c.url, resp.StatusCode)
	}

	var readings []types.Reading
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}

	c.logger.Debug("upstream fetched",
		"url", c.url,
		"readings", len(readings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return readings, nil
}
