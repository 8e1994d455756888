// Package store defines the Signal Store's repository contracts (spec
// §4.C). Concrete implementations live in internal/store/postgres.
package store

import (
	"context"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

// PostRepository persists scraped posts and tracks which have been run
// through the LLM Analyst.
type PostRepository interface {
	// UpsertPosts inserts new posts or refreshes mutable fields (score,
	// num_comments, top_comments) of existing ones, without resetting
	// processed back to false.
	UpsertPosts(ctx context.Context, posts []entity.Post) (int, error)
	// UnprocessedPosts returns up to limit posts with processed = false,
	// ordered by score descending.
	UnprocessedPosts(ctx context.Context, limit int) ([]entity.Post, error)
	MarkProcessed(ctx context.Context, postID string) error
	Get(ctx context.Context, postID string) (*entity.Post, error)
}

// SignalRepository persists analyzed signals and serves the top-signal
// and clustering-candidate queries.
type SignalRepository interface {
	// SaveSignal inserts a signal and, in the same transaction, marks the
	// source post processed.
	SaveSignal(ctx context.Context, postID string, runID *int64, analysis entity.Analysis) (int64, error)
	TopSignals(ctx context.Context, limit int, includeDisqualified bool) ([]entity.Signal, error)
	Get(ctx context.Context, signalID int64) (*entity.Signal, error)
	ForRun(ctx context.Context, runID int64) ([]entity.Signal, error)
	// UnclusteredPainPoints returns qualified, un-clustered pain signals
	// from the last `days` days, optionally filtered to one subreddit.
	UnclusteredPainPoints(ctx context.Context, subreddit string, days int) ([]entity.ClusterItem, error)
	AssignCluster(ctx context.Context, signalID int64, clusterID string) error
	Stats(ctx context.Context) (Stats, error)
	// RecentForWatchlistScan returns non-disqualified signals created within
	// the last sinceHours, joined with enough post context (subreddit, url,
	// title) to evaluate a watchlist's keyword and subreddit scope without a
	// second round trip per signal.
	RecentForWatchlistScan(ctx context.Context, sinceHours int) ([]WatchlistCandidate, error)
}

// WatchlistCandidate is one signal eligible for a watchlist scan pass,
// carrying the post fields a keyword match needs alongside the signal's
// own summary/pain-point text.
type WatchlistCandidate struct {
	SignalID      int64
	SignalSummary string
	PainPoint     string
	Subreddit     string
	URL           string
	PostTitle     string
}

// Stats summarizes the current signal population.
type Stats struct {
	TotalPosts       int64
	ProcessedPosts   int64
	TotalSignals     int64
	QualifiedSignals int64
	AvgScore         float64
}

// RunRepository persists pipeline run lifecycle records.
type RunRepository interface {
	Create(ctx context.Context, subreddits []string) (int64, error)
	Complete(ctx context.Context, run entity.Run) error
	Get(ctx context.Context, runID int64) (*entity.Run, error)
	List(ctx context.Context, limit int) ([]entity.Run, error)
}

// ClusterRepository persists weekly Pain Cluster digests and the
// signal-to-cluster linkage.
type ClusterRepository interface {
	// SaveClusters assigns each cluster a deterministic id derived from
	// weekStart (an ISO date, YYYY-MM-DD) and the cluster title,
	// disambiguating collisions with a numeric suffix, then links every
	// member signal to that id.
	SaveClusters(ctx context.Context, clusters []entity.Cluster, weekStart string) error
	ForWeek(ctx context.Context, weekStart string) ([]entity.Cluster, error)
}

// SourceSetRepository manages curated subreddit bundles.
type SourceSetRepository interface {
	Create(ctx context.Context, set entity.SourceSet) (int64, error)
	Get(ctx context.Context, id int64) (*entity.SourceSet, error)
	GetByPreset(ctx context.Context, presetKey string) (*entity.SourceSet, error)
	List(ctx context.Context, activeOnly bool) ([]entity.SourceSet, error)
	Update(ctx context.Context, set entity.SourceSet) error
	Deactivate(ctx context.Context, id int64) error
	ActiveSubreddits(ctx context.Context) ([]string, error)
}

// WatchlistRepository manages keyword watchlists and their alert
// matches.
type WatchlistRepository interface {
	Create(ctx context.Context, wl entity.Watchlist) (int64, error)
	Get(ctx context.Context, id int64) (*entity.Watchlist, error)
	List(ctx context.Context, activeOnly bool) ([]entity.Watchlist, error)
	Deactivate(ctx context.Context, id int64) error

	// RecordMatch inserts an alert match if one does not already exist
	// for this (watchlist, signal) pair, and reports whether it inserted
	// a new row.
	RecordMatch(ctx context.Context, match entity.AlertMatch) (bool, error)
	UnnotifiedMatches(ctx context.Context, watchlistID *int64) ([]UnnotifiedMatch, error)
	MarkNotified(ctx context.Context, matchIDs []int64) error
}

// UnnotifiedMatch is an alert match joined with the watchlist's
// notification targets and the matched signal's summary fields — the
// shape the notifier needs without a second round trip.
type UnnotifiedMatch struct {
	entity.AlertMatch
	WatchlistName        string
	NotificationEmail    string
	NotificationWebhook  string
	SignalSummary        string
	PainPoint            string
	Subreddit            string
	URL                  string
}
