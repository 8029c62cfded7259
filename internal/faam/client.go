package faam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ClientOptions parameterise the stats API client.
type ClientOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches provider statistics from the FAAM view API.
type Client struct {
	opts   ClientOptions
	logger zerolog.Logger
	client *http.Client
}

// NewClient constructs a stats client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		opts:   opts,
		logger: logger.With().Str("component", "faam_client").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchStats retrieves the provider breakdown for the given window.
func (c *Client) FetchStats(ctx context.Context, windowHours int) (Stats, error) {
	if c.opts.BaseURL == "" {
		return Stats{}, errors.New("faam api url not configured")
	}

	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + "?window_hours=" + strconv.Itoa(windowHours)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("create stats request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("X-API-Key", c.opts.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Stats{}, fmt.Errorf("fetch stats: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Stats{}, fmt.Errorf("read stats body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Stats{}, fmt.Errorf("faam api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var stats Stats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}

	c.logger.Debug().Int("providers", len(stats.Providers)).Int("window_hours", windowHours).Msg("stats fetched")
	return stats, nil
}

var _ StatsFetcher = (*Client)(nil)
