// Package watchlist implements the keyword watchlist scan (spec §4.H):
// matching recent, qualified signals against a set of active watchlists
// and persisting the resulting alerts idempotently.
package watchlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

// ScanResult is one idempotently-recorded (watchlist, signal) match.
type ScanResult struct {
	WatchlistID    int64
	SignalID       int64
	KeywordMatched string
	Inserted       bool // false if this pair was already recorded
}

// Scan loads active watchlists and signals created within the last
// sinceHours, matches each signal against each watchlist's keyword list
// and subreddit scope, and persists every match. First matching keyword
// wins per (watchlist, signal) pair; subreddit scope, when set, excludes
// signals from subreddits outside the list. Matches that already exist
// are reported with Inserted=false rather than duplicated.
func Scan(ctx context.Context, watchlists store.WatchlistRepository, signals store.SignalRepository, sinceHours int) ([]ScanResult, error) {
	active, err := watchlists.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list active watchlists: %w", err)
	}
	if len(active) == 0 {
		return nil, nil
	}

	candidates, err := signals.RecentForWatchlistScan(ctx, sinceHours)
	if err != nil {
		return nil, fmt.Errorf("load recent signals: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var results []ScanResult
	for _, candidate := range candidates {
		haystack := strings.ToLower(candidate.SignalSummary + " " + candidate.PainPoint + " " + candidate.PostTitle)

		for _, wl := range active {
			if !inScope(wl, candidate.Subreddit) {
				continue
			}

			keyword, matched := firstMatch(wl.Keywords, haystack)
			if !matched {
				continue
			}

			inserted, err := watchlists.RecordMatch(ctx, entity.AlertMatch{
				WatchlistID:    wl.ID,
				SignalID:       candidate.SignalID,
				KeywordMatched: keyword,
			})
			if err != nil {
				return nil, fmt.Errorf("record match (watchlist=%d, signal=%d): %w", wl.ID, candidate.SignalID, err)
			}
			results = append(results, ScanResult{
				WatchlistID:    wl.ID,
				SignalID:       candidate.SignalID,
				KeywordMatched: keyword,
				Inserted:       inserted,
			})
		}
	}
	return results, nil
}

// inScope reports whether a signal's subreddit falls within a watchlist's
// scope. An empty Subreddits list means the watchlist is unscoped and
// matches any subreddit.
func inScope(wl entity.Watchlist, subreddit string) bool {
	if len(wl.Subreddits) == 0 {
		return true
	}
	for _, sr := range wl.Subreddits {
		if strings.EqualFold(sr, subreddit) {
			return true
		}
	}
	return false
}

// firstMatch returns the first keyword (in the watchlist's declared
// order) found as a substring of haystack, which must already be
// lowercased.
func firstMatch(keywords []string, haystack string) (string, bool) {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
