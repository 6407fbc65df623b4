package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kunena-discord/metrics"

	"github.com/rs/zerolog"
)

// UserAgent identifies the notifier to Discord.
const UserAgent = "Kunena-Discord-Notifier/1.0"

const (
	webhookPathSegment = "discord.com/api/webhooks/"
	maxErrorBody       = 4 << 10
)

var (
	ErrMalformedWebhook = errors.New("webhook URL is not an absolute http(s) URL")
	ErrNotDiscord       = errors.New("webhook URL is not a Discord webhook")
)

// ValidateWebhookURL checks that raw is an absolute http(s) URL whose host and
// path contain the Discord webhook segment.
func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedWebhook, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrMalformedWebhook
	}
	if !strings.Contains(u.Host+u.Path, webhookPathSegment) {
		return ErrNotDiscord
	}
	return nil
}

// Sender posts payloads to a Discord webhook, once, with no retry.
type Sender struct {
	client *http.Client
	log    zerolog.Logger
}

// NewSender uses client, or a client with the given timeout when client is nil.
func NewSender(client *http.Client, timeout time.Duration, log zerolog.Logger) *Sender {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Sender{client: client, log: log}
}

// Send posts payload to webhookURL and reports whether Discord accepted it.
// Every failure is logged here.
func (s *Sender) Send(ctx context.Context, webhookURL string, payload []byte) bool {
	if err := ValidateWebhookURL(webhookURL); err != nil {
		s.log.Error().Err(err).Msg("invalid Discord webhook URL")
		metrics.WebhookRequestsTotal.WithLabelValues("invalid").Inc()
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSpace(webhookURL), bytes.NewReader(payload))
	if err != nil {
		s.log.Error().Err(err).Msg("failed to build webhook request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues("error").Inc()
		metrics.WebhookRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		s.log.Error().Err(err).Msg("error sending to Discord")
		return false
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	metrics.WebhookRequestsTotal.WithLabelValues(status).Inc()
	metrics.WebhookRequestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		s.log.Info().Int("status", resp.StatusCode).Msg("message sent to Discord")
		return true
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	s.log.Error().
		Int("status", resp.StatusCode).
		Str("body", string(body)).
		Msg("Discord rejected the webhook")
	if resp.StatusCode == http.StatusBadRequest {
		s.log.Error().Msg("Discord 400 error, likely payload too large or malformed")
	}
	return false
}
