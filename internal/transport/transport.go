// Package transport provides the single configured HTTP client used by the
// Source Fetcher: timeouts, connection-pool limits, browser-like headers,
// Retry-After parsing, and status-code classification into the error
// taxonomy's transport/access/rate-limit kinds.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

// defaultUserAgent mirrors a recent desktop-browser UA string so listing
// and comment-page requests are not trivially fingerprinted as a bot.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config tunes the transport's timeouts, connection pool, and identity.
type Config struct {
	TotalTimeout   time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration

	MaxConnsPerHost     int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	UserAgent string
}

// DefaultConfig matches the reference client's timeout and pool envelope:
// 30s total, 10s connect, 20s read, 20 max connections, 10 keepalive,
// 30s keepalive expiry.
func DefaultConfig() Config {
	return Config{
		TotalTimeout:        30 * time.Second,
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         20 * time.Second,
		MaxConnsPerHost:     20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		UserAgent:           defaultUserAgent,
	}
}

// Client is the transport's single constructed HTTP client, reused across
// a pipeline run and never mutated after construction.
type Client struct {
	http      *http.Client
	userAgent string
}

// New builds a Client from cfg. The returned client's underlying
// *http.Transport owns its connection pool; callers should construct one
// Client per pipeline run, not one per request.
func New(cfg Config) *Client {
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	rt := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
	}
	return &Client{
		http: &http.Client{
			Transport: rt,
			Timeout:   cfg.TotalTimeout,
			// Browser-like: follow redirects automatically (the default
			// CheckRedirect behavior already does this).
		},
		userAgent: cfg.UserAgent,
	}
}

// Get issues a GET request with browser-like headers and classifies the
// response per the transport's status policy (§4.A): 403/404 become a
// terminal, non-retryable *entity.HTTPError; 429 becomes a
// *entity.RateLimitError carrying the parsed Retry-After; 5xx becomes a
// retryable *entity.HTTPError; any other non-2xx becomes a *entity.HTTPError
// that retry.IsRetryable treats as non-retryable, except 408. The response body is always closed before Get
// returns; callers receive the drained bytes, not the live body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	setBrowserHeaders(req, c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if readErr != nil {
			return nil, fmt.Errorf("read response body: %w", readErr)
		}
		return body, nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound:
		return nil, &entity.HTTPError{StatusCode: resp.StatusCode, Message: "access denied or not found"}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		return nil, &entity.RateLimitError{
			HTTPError:  entity.HTTPError{StatusCode: resp.StatusCode, Message: "rate limited"},
			RetryAfter: retryAfter,
		}
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		return nil, &entity.HTTPError{StatusCode: resp.StatusCode, Message: "transient server error"}
	default:
		return nil, &entity.HTTPError{StatusCode: resp.StatusCode, Message: "unexpected status"}
	}
}

// ParseRetryAfter accepts both forms the Retry-After header may take: an
// integer number of seconds, or an RFC 1123 HTTP-date. A date already in
// the past yields a zero duration rather than a negative one. An empty or
// unparsable header yields nil, meaning "no hint given".
func ParseRetryAfter(header string, now time.Time) *time.Duration {
	if header == "" {
		return nil
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		d := time.Duration(seconds) * time.Second
		if d < 0 {
			d = 0
		}
		return &d
	}
	if t, err := mail.ParseDate(header); err == nil {
		d := t.Sub(now)
		if d < 0 {
			d = 0
		}
		return &d
	}
	return nil
}

func setBrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("DNT", "1")
}
