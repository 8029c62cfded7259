package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DashboardOptions parameterise the rewards dashboard fetcher.
type DashboardOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Dashboard fetches the rendered rewards page as plain text.
type Dashboard struct {
	opts   DashboardOptions
	logger zerolog.Logger
	client *http.Client
}

// NewDashboard constructs a dashboard fetcher.
func NewDashboard(opts DashboardOptions, logger zerolog.Logger) *Dashboard {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Dashboard{
		opts:   opts,
		logger: logger.With().Str("component", "dashboard_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// FetchPage retrieves the page body. Transport and status errors abort
// the current tick; the caller decides how to log them.
func (d *Dashboard) FetchPage(ctx context.Context) (string, error) {
	if d.opts.URL == "" {
		return "", errors.New("dashboard url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.opts.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create dashboard request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, text/html")
	if ua := strings.TrimSpace(d.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch dashboard: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read dashboard body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dashboard returned status %d", resp.StatusCode)
	}

	d.logger.Debug().Int("bytes", len(body)).Msg("dashboard fetched")
	return string(body), nil
}

// Static always returns a fixed page body. Used by the simulate command
// and in tests.
type Static struct {
	Body string
}

func (s *Static) FetchPage(ctx context.Context) (string, error) {
	return s.Body, nil
}

var _ PageFetcher = (*Dashboard)(nil)
var _ PageFetcher = (*Static)(nil)
