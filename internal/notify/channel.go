// Package notify delivers unnotified watchlist alert matches (spec §4.H)
// to their configured webhook endpoints, generalizing the teacher's
// Discord/Slack per-channel webhook notifier into a single generic JSON
// payload shape driven by each watchlist's own NotificationWebhook.
package notify

import (
	"context"

	"github.com/albeorla/reddit-pain-radar/internal/store"
)

// contextKey avoids collisions with other packages' context keys.
type contextKey string

const requestIDKey contextKey = "request_id"

// Channel delivers a single alert match to its notification destination.
// Implementations own their own rate limiting and retry policy.
type Channel interface {
	// Name identifies the channel for logging and metrics (e.g. "webhook").
	Name() string

	// Send delivers a notification for the given match. The match carries
	// its own destination (NotificationWebhook); Send must not block
	// indefinitely and must respect ctx cancellation.
	Send(ctx context.Context, match store.UnnotifiedMatch) error
}
