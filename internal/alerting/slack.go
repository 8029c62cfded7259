package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const slackPostMessagePath = "/api/chat.postMessage"

// SlackClient delivers messages to Slack channels and direct-message
// users via chat.postMessage. The target is the channel or user ID.
type SlackClient struct {
	botToken string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewSlackClient constructs a Slack sender.
func NewSlackClient(botToken, baseURL string, timeout time.Duration, logger zerolog.Logger) *SlackClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://slack.com"
	}

	return &SlackClient{
		botToken: botToken,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_slack").Logger(),
	}
}

// Deliver posts one message to a single target.
func (s *SlackClient) Deliver(ctx context.Context, target, title, message string, priority Priority) error {
	text := "*" + title + "*\n" + message
	if priority >= PriorityHigh {
		text = ":rotating_light: " + text
	}

	payload := map[string]string{
		"channel": target,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	endpoint := s.baseURL + slackPostMessagePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		return fmt.Errorf("slack rejected message for %s: %s", target, result.Error)
	}

	s.logger.Info().Str("target", target).Str("title", title).Msg("slack message sent")
	return nil
}

var _ ChatSender = (*SlackClient)(nil)
