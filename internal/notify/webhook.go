package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/albeorla/reddit-pain-radar/internal/store"
)

const (
	maxSummaryLength   = 1024
	truncationSuffix   = "..."
	maxWebhookAttempts = 2
	baseRetryDelay     = 5 * time.Second
)

// WebhookConfig configures the generic webhook delivery channel.
type WebhookConfig struct {
	Timeout time.Duration
}

// DefaultWebhookConfig matches the teacher's per-channel HTTP timeout.
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{Timeout: 10 * time.Second}
}

// WebhookChannel posts a JSON payload to each match's own
// NotificationWebhook URL. Unlike the teacher's Discord/Slack notifiers,
// which hard-code one destination per process, this channel reads the
// destination off the match itself, since every watchlist can point at a
// different endpoint.
type WebhookChannel struct {
	config      WebhookConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewWebhookChannel builds a WebhookChannel. The limiter caps outbound
// delivery at 2 requests/second with a burst of 5, the same order of
// magnitude as the teacher's per-channel webhook limiters.
func NewWebhookChannel(config WebhookConfig) *WebhookChannel {
	return &WebhookChannel{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: rate.NewLimiter(2, 5),
	}
}

func (w *WebhookChannel) Name() string { return "webhook" }

// alertPayload is the generic JSON body posted to a watchlist's webhook.
type alertPayload struct {
	Watchlist      string `json:"watchlist"`
	KeywordMatched string `json:"keyword_matched"`
	Signal         struct {
		Summary   string `json:"summary"`
		PainPoint string `json:"pain_point,omitempty"`
		Subreddit string `json:"subreddit"`
		URL       string `json:"url"`
	} `json:"signal"`
	MatchedAt string `json:"matched_at"`
}

func buildPayload(match store.UnnotifiedMatch) alertPayload {
	var p alertPayload
	p.Watchlist = match.WatchlistName
	p.KeywordMatched = match.KeywordMatched
	p.Signal.Summary = truncateSummary(match.SignalSummary, maxSummaryLength, truncationSuffix)
	p.Signal.PainPoint = match.PainPoint
	p.Signal.Subreddit = match.Subreddit
	p.Signal.URL = match.URL
	matchedAt := match.CreatedAt
	if matchedAt.IsZero() {
		matchedAt = time.Now().UTC()
	}
	p.MatchedAt = matchedAt.Format(time.RFC3339)
	return p
}

// errorResponse mirrors the common {"retry_after": seconds} shape used by
// Discord-style webhook rate limiting; a generic endpoint that doesn't
// send one just falls back to the Retry-After header.
type errorResponse struct {
	RetryAfter float64 `json:"retry_after"`
}

func (w *WebhookChannel) sendRequest(ctx context.Context, match store.UnnotifiedMatch) error {
	payload := buildPayload(match)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, match.NotificationWebhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute webhook request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{
			Message:    "webhook rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, respBody),
		}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook client error: %s", string(respBody)),
		}
	}
	if resp.StatusCode >= 500 {
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook server error: %s", string(respBody)),
		}
	}
	return fmt.Errorf("unexpected webhook status %d: %s", resp.StatusCode, string(respBody))
}

func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.RetryAfter > 0 {
		return time.Duration(parsed.RetryAfter * float64(time.Second))
	}
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}

// sendWithRetry mirrors the teacher's fixed retry policy: two attempts,
// 429s wait out the reported retry-after, 5xx/network errors back off
// once (5s), 4xx fails immediately.
func (w *WebhookChannel) sendWithRetry(ctx context.Context, match store.UnnotifiedMatch) error {
	requestID, _ := ctx.Value(requestIDKey).(string)

	var lastErr error
	for attempt := 1; attempt <= maxWebhookAttempts; attempt++ {
		err := w.sendRequest(ctx, match)
		if err == nil {
			slog.Info("webhook notification sent",
				slog.String("request_id", requestID),
				slog.Int64("match_id", match.ID),
				slog.Int("attempt", attempt))
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("webhook rate limit hit, backing off",
				slog.String("request_id", requestID),
				slog.Int64("match_id", match.ID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter))
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			slog.Error("webhook notification failed, not retrying",
				slog.String("request_id", requestID),
				slog.Int64("match_id", match.ID),
				slog.Any("error", err))
			return err
		}

		if attempt < maxWebhookAttempts {
			slog.Warn("webhook request failed, retrying",
				slog.String("request_id", requestID),
				slog.Int64("match_id", match.ID),
				slog.Any("error", err),
				slog.Duration("delay", baseRetryDelay))
			select {
			case <-time.After(baseRetryDelay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("webhook notification failed after %d attempts: %w", maxWebhookAttempts, lastErr)
}

// Send implements Channel. It skips matches with no webhook configured
// rather than erroring, since a watchlist may notify by email only.
func (w *WebhookChannel) Send(ctx context.Context, match store.UnnotifiedMatch) error {
	if match.NotificationWebhook == "" {
		return nil
	}
	if err := w.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limiter: %w", err)
	}
	return w.sendWithRetry(ctx, match)
}
