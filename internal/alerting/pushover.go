package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const pushoverMessagesPath = "/1/messages.json"

// PushoverClient pushes messages through the Pushover API.
type PushoverClient struct {
	token   string
	userKey string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewPushoverClient constructs a Pushover sender.
func NewPushoverClient(token, userKey, baseURL string, timeout time.Duration, logger zerolog.Logger) *PushoverClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.pushover.net"
	}

	return &PushoverClient{
		token:   token,
		userKey: userKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "alert_pushover").Logger(),
	}
}

// Deliver posts one message via the messages endpoint.
func (p *PushoverClient) Deliver(ctx context.Context, title, message string, priority Priority) error {
	form := url.Values{
		"token":    {p.token},
		"user":     {p.userKey},
		"title":    {title},
		"message":  {message},
		"priority": {strconv.Itoa(int(priority))},
	}

	endpoint := p.baseURL + pushoverMessagesPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create pushover request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send pushover request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pushover returned status %d", resp.StatusCode)
	}

	var result struct {
		Status int      `json:"status"`
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && result.Status != 1 {
		return fmt.Errorf("pushover rejected message: %s", strings.Join(result.Errors, "; "))
	}

	p.logger.Info().Str("title", title).Int("priority", int(priority)).Msg("push notification sent")
	return nil
}

var _ PushSender = (*PushoverClient)(nil)
