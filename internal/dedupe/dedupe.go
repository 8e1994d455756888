package dedupe

import "github.com/albeorla/reddit-pain-radar/internal/domain/entity"

// Weights are the per-field contributions to combined similarity; they
// must sum to 1.0 for the result to stay in [0,1], but that is left to the
// caller rather than enforced here.
type Weights struct {
	Summary float64
	Pain    float64
	User    float64
}

// DefaultWeights matches the calibrated split: half the weight on the
// signal summary, a quarter each on pain point and target user.
func DefaultWeights() Weights {
	return Weights{Summary: 0.5, Pain: 0.25, User: 0.25}
}

// DefaultThreshold is the combined-similarity score at or above which two
// items are considered the same idea.
const DefaultThreshold = 0.75

// Item is one (post, extraction) pair offered to the deduplicator.
type Item struct {
	PostID     string
	Extraction entity.Extraction
}

// Group is one canonical item plus the post ids of every item folded into
// it as a duplicate.
type Group struct {
	CanonicalPostID string
	Extraction      entity.Extraction
	DuplicatePostIDs []string
}

// combinedSimilarity blends per-field token-set ratios: pain_point and
// target_user contribute zero whenever either side is blank, matching the
// source algorithm's "don't reward matching on two empty strings" rule.
func combinedSimilarity(a, b entity.Extraction, w Weights) float64 {
	summarySim := tokenSetRatio(a.SignalSummary, b.SignalSummary)

	var painSim, userSim float64
	if a.PainPoint != "" && b.PainPoint != "" {
		painSim = tokenSetRatio(a.PainPoint, b.PainPoint)
	}
	if a.TargetUser != "" && b.TargetUser != "" {
		userSim = tokenSetRatio(a.TargetUser, b.TargetUser)
	}

	return summarySim*w.Summary + painSim*w.Pain + userSim*w.User
}

// Dedupe groups items in input order: the first unassigned item becomes a
// cluster's canonical, and every later unassigned item whose combined
// similarity to it is >= threshold is attached as a duplicate and marked
// assigned. Items whose extraction is the analyst's own "no viable idea"
// sentinel are never compared — each becomes its own singleton group with
// no duplicates, and is never offered as a duplicate candidate to another
// item's scan.
func Dedupe(items []Item, threshold float64, weights Weights) []Group {
	if len(items) == 0 {
		return nil
	}

	assigned := make(map[string]bool, len(items))
	groups := make([]Group, 0, len(items))

	for i, item := range items {
		if assigned[item.PostID] {
			continue
		}

		if item.Extraction.IsSentinelSummary() {
			assigned[item.PostID] = true
			groups = append(groups, Group{CanonicalPostID: item.PostID, Extraction: item.Extraction})
			continue
		}

		var duplicates []string
		for j := i + 1; j < len(items); j++ {
			other := items[j]
			if assigned[other.PostID] || other.Extraction.IsSentinelSummary() {
				continue
			}
			if combinedSimilarity(item.Extraction, other.Extraction, weights) >= threshold {
				duplicates = append(duplicates, other.PostID)
				assigned[other.PostID] = true
			}
		}

		assigned[item.PostID] = true
		groups = append(groups, Group{CanonicalPostID: item.PostID, Extraction: item.Extraction, DuplicatePostIDs: duplicates})
	}

	return groups
}
