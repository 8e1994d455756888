package watchlist

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

type fakeWatchlists struct {
	active    []entity.Watchlist
	recorded  map[[2]int64]bool
	listErr   error
	recordErr error
}

func newFakeWatchlists(active []entity.Watchlist) *fakeWatchlists {
	return &fakeWatchlists{active: active, recorded: make(map[[2]int64]bool)}
}

func (f *fakeWatchlists) Create(ctx context.Context, wl entity.Watchlist) (int64, error) { return 0, nil }
func (f *fakeWatchlists) Get(ctx context.Context, id int64) (*entity.Watchlist, error)    { return nil, nil }
func (f *fakeWatchlists) List(ctx context.Context, activeOnly bool) ([]entity.Watchlist, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.active, nil
}
func (f *fakeWatchlists) Deactivate(ctx context.Context, id int64) error { return nil }

func (f *fakeWatchlists) RecordMatch(ctx context.Context, match entity.AlertMatch) (bool, error) {
	if f.recordErr != nil {
		return false, f.recordErr
	}
	key := [2]int64{match.WatchlistID, match.SignalID}
	if f.recorded[key] {
		return false, nil
	}
	f.recorded[key] = true
	return true, nil
}
func (f *fakeWatchlists) UnnotifiedMatches(ctx context.Context, watchlistID *int64) ([]store.UnnotifiedMatch, error) {
	return nil, nil
}
func (f *fakeWatchlists) MarkNotified(ctx context.Context, matchIDs []int64) error { return nil }

type fakeSignalSource struct {
	candidates []store.WatchlistCandidate
	err        error
}

func (f *fakeSignalSource) SaveSignal(ctx context.Context, postID string, runID *int64, analysis entity.Analysis) (int64, error) {
	return 0, nil
}
func (f *fakeSignalSource) TopSignals(ctx context.Context, limit int, includeDisqualified bool) ([]entity.Signal, error) {
	return nil, nil
}
func (f *fakeSignalSource) Get(ctx context.Context, signalID int64) (*entity.Signal, error) {
	return nil, nil
}
func (f *fakeSignalSource) ForRun(ctx context.Context, runID int64) ([]entity.Signal, error) {
	return nil, nil
}
func (f *fakeSignalSource) UnclusteredPainPoints(ctx context.Context, subreddit string, days int) ([]entity.ClusterItem, error) {
	return nil, nil
}
func (f *fakeSignalSource) AssignCluster(ctx context.Context, signalID int64, clusterID string) error {
	return nil
}
func (f *fakeSignalSource) Stats(ctx context.Context) (store.Stats, error) { return store.Stats{}, nil }
func (f *fakeSignalSource) RecentForWatchlistScan(ctx context.Context, sinceHours int) ([]store.WatchlistCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func TestScan_MatchesFirstKeywordAndRecords(t *testing.T) {
	watchlists := newFakeWatchlists([]entity.Watchlist{
		{ID: 1, Keywords: []string{"invoice", "reconciliation"}},
	})
	signals := &fakeSignalSource{candidates: []store.WatchlistCandidate{
		{SignalID: 10, SignalSummary: "Invoice matching for freelancers", Subreddit: "saas"},
	}}

	results, err := Scan(context.Background(), watchlists, signals, 24)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "invoice", results[0].KeywordMatched)
	assert.True(t, results[0].Inserted)
}

func TestScan_SubredditScopeExcludesOutOfScopeSignals(t *testing.T) {
	watchlists := newFakeWatchlists([]entity.Watchlist{
		{ID: 1, Keywords: []string{"invoice"}, Subreddits: []string{"shopify"}},
	})
	signals := &fakeSignalSource{candidates: []store.WatchlistCandidate{
		{SignalID: 10, SignalSummary: "invoice tool", Subreddit: "saas"},
	}}

	results, err := Scan(context.Background(), watchlists, signals, 24)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScan_UnscopedWatchlistMatchesAnySubreddit(t *testing.T) {
	watchlists := newFakeWatchlists([]entity.Watchlist{
		{ID: 1, Keywords: []string{"invoice"}},
	})
	signals := &fakeSignalSource{candidates: []store.WatchlistCandidate{
		{SignalID: 10, SignalSummary: "invoice tool", Subreddit: "whatever"},
	}}

	results, err := Scan(context.Background(), watchlists, signals, 24)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestScan_OneMatchPerWatchlistPerSignalEvenWithMultipleKeywordHits(t *testing.T) {
	watchlists := newFakeWatchlists([]entity.Watchlist{
		{ID: 1, Keywords: []string{"invoice", "reconciliation"}},
	})
	signals := &fakeSignalSource{candidates: []store.WatchlistCandidate{
		{SignalID: 10, SignalSummary: "invoice reconciliation tool", Subreddit: "saas"},
	}}

	results, err := Scan(context.Background(), watchlists, signals, 24)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "invoice", results[0].KeywordMatched)
}

func TestScan_AlreadyRecordedPairIsNotDuplicated(t *testing.T) {
	watchlists := newFakeWatchlists([]entity.Watchlist{{ID: 1, Keywords: []string{"invoice"}}})
	watchlists.recorded[[2]int64{1, 10}] = true
	signals := &fakeSignalSource{candidates: []store.WatchlistCandidate{
		{SignalID: 10, SignalSummary: "invoice tool", Subreddit: "saas"},
	}}

	results, err := Scan(context.Background(), watchlists, signals, 24)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Inserted)
}

func TestScan_NoActiveWatchlistsSkipsSignalLookupEntirely(t *testing.T) {
	watchlists := newFakeWatchlists(nil)
	signals := &fakeSignalSource{err: errors.New("should never be called")}

	results, err := Scan(context.Background(), watchlists, signals, 24)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestScan_PropagatesWatchlistListError(t *testing.T) {
	watchlists := newFakeWatchlists(nil)
	watchlists.listErr = errors.New("db down")
	signals := &fakeSignalSource{}

	_, err := Scan(context.Background(), watchlists, signals, 24)
	assert.Error(t, err)
}

func TestScan_CaseInsensitiveKeywordAndSubredditMatching(t *testing.T) {
	watchlists := newFakeWatchlists([]entity.Watchlist{
		{ID: 1, Keywords: []string{"INVOICE"}, Subreddits: []string{"SaaS"}},
	})
	signals := &fakeSignalSource{candidates: []store.WatchlistCandidate{
		{SignalID: 10, SignalSummary: "an Invoice headache", Subreddit: "saas"},
	}}

	results, err := Scan(context.Background(), watchlists, signals, 24)
	require.NoError(t, err)
	require.Len(t, results, 1)
}
