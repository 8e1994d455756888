package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/albeorla/reddit-pain-radar/internal/store"
)

const defaultMaxConcurrency = 8

// DeliveryResult summarizes one dispatch pass over unnotified matches.
type DeliveryResult struct {
	Matched   int
	Delivered int
	Skipped   int // no webhook configured
	Failed    int
}

// DeliverUnnotified loads every unnotified alert match, dispatches each to
// channel concurrently (bounded by maxConcurrency), and marks the ones
// that were delivered (or intentionally skipped for lacking a webhook) as
// notified so they are not retried forever. A delivery failure is logged
// and left unnotified for the next pass; it never aborts the others.
func DeliverUnnotified(ctx context.Context, watchlists store.WatchlistRepository, channel Channel, maxConcurrency int) (DeliveryResult, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}

	matches, err := watchlists.UnnotifiedMatches(ctx, nil)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("load unnotified matches: %w", err)
	}
	if len(matches) == 0 {
		return DeliveryResult{}, nil
	}

	type outcome struct {
		matchID int64
		skipped bool
		err     error
	}
	outcomes := make([]outcome, len(matches))
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, match := range matches {
		i, match := i, match
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes[i] = outcome{matchID: match.ID, err: ctx.Err()}
				return
			}

			requestID := uuid.New().String()
			sendCtx := context.WithValue(ctx, requestIDKey, requestID)

			sendErr := channel.Send(sendCtx, match)
			outcomes[i] = outcome{
				matchID: match.ID,
				skipped: sendErr == nil && match.NotificationWebhook == "",
				err:     sendErr,
			}
		}()
	}
	wg.Wait()

	result := DeliveryResult{Matched: len(matches)}
	var toMarkNotified []int64
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			result.Failed++
			slog.Warn("alert match delivery failed, will retry next pass",
				slog.Int64("match_id", o.matchID),
				slog.Any("error", o.err))
		case o.skipped:
			result.Skipped++
			toMarkNotified = append(toMarkNotified, o.matchID)
		default:
			result.Delivered++
			toMarkNotified = append(toMarkNotified, o.matchID)
		}
	}

	if len(toMarkNotified) > 0 {
		if err := watchlists.MarkNotified(ctx, toMarkNotified); err != nil {
			return result, fmt.Errorf("mark matches notified: %w", err)
		}
	}
	return result, nil
}
