package pipeline

import (
	"context"
	"fmt"

	"github.com/albeorla/reddit-pain-radar/internal/dedupe"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

// DedupeRecentSignals loads the top signals currently in the store and
// groups near-duplicates using the default weights and threshold,
// surfacing canonical/duplicate groupings for an operator to review
// before deciding whether to merge or discard the duplicates. It never
// mutates the store; the Deduplicator only computes groupings.
func DedupeRecentSignals(ctx context.Context, signals store.SignalRepository, limit int) ([]dedupe.Group, error) {
	rows, err := signals.TopSignals(ctx, limit, true)
	if err != nil {
		return nil, fmt.Errorf("load signals for dedupe: %w", err)
	}

	items := make([]dedupe.Item, 0, len(rows))
	for _, s := range rows {
		items = append(items, dedupe.Item{PostID: s.PostID, Extraction: s.Extraction})
	}

	return dedupe.Dedupe(items, dedupe.DefaultThreshold, dedupe.DefaultWeights()), nil
}
