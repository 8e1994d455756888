package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

// fakePosts is an in-memory store.PostRepository good enough to exercise
// the orchestrator's load/upsert path without a database.
type fakePosts struct {
	mu    sync.Mutex
	posts map[string]entity.Post
}

func newFakePosts(seed []entity.Post) *fakePosts {
	m := make(map[string]entity.Post, len(seed))
	for _, p := range seed {
		m[p.ID] = p
	}
	return &fakePosts{posts: m}
}

func (f *fakePosts) UpsertPosts(ctx context.Context, posts []entity.Post) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return len(posts), nil
}

func (f *fakePosts) UnprocessedPosts(ctx context.Context, limit int) ([]entity.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Post
	for _, p := range f.posts {
		if !p.Processed {
			out = append(out, p)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakePosts) MarkProcessed(ctx context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.posts[postID]
	p.Processed = true
	f.posts[postID] = p
	return nil
}

func (f *fakePosts) Get(ctx context.Context, postID string) (*entity.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[postID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &p, nil
}

// fakeSignals is an in-memory store.SignalRepository.
type fakeSignals struct {
	mu      sync.Mutex
	nextID  int64
	saved   []entity.Signal
	topErr  error
	saveErr error
}

func (f *fakeSignals) SaveSignal(ctx context.Context, postID string, runID *int64, analysis entity.Analysis) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sig := entity.Signal{ID: f.nextID, PostID: postID, Extraction: analysis.Extraction, Score: analysis.Score}
	if runID != nil {
		sig.RunID = *runID
	}
	f.saved = append(f.saved, sig)
	return sig.ID, nil
}

func (f *fakeSignals) TopSignals(ctx context.Context, limit int, includeDisqualified bool) ([]entity.Signal, error) {
	if f.topErr != nil {
		return nil, f.topErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.saved) {
		limit = len(f.saved)
	}
	return append([]entity.Signal{}, f.saved[:limit]...), nil
}

func (f *fakeSignals) Get(ctx context.Context, signalID int64) (*entity.Signal, error) {
	return nil, entity.ErrNotFound
}
func (f *fakeSignals) ForRun(ctx context.Context, runID int64) ([]entity.Signal, error) {
	return nil, nil
}
func (f *fakeSignals) UnclusteredPainPoints(ctx context.Context, subreddit string, days int) ([]entity.ClusterItem, error) {
	return nil, nil
}
func (f *fakeSignals) AssignCluster(ctx context.Context, signalID int64, clusterID string) error {
	return nil
}
func (f *fakeSignals) Stats(ctx context.Context) (store.Stats, error) { return store.Stats{}, nil }

// fakeRuns is an in-memory store.RunRepository.
type fakeRuns struct {
	mu        sync.Mutex
	nextID    int64
	runs      map[int64]entity.Run
	createErr error
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: make(map[int64]entity.Run)}
}

func (f *fakeRuns) Create(ctx context.Context, subreddits []string) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.runs[f.nextID] = entity.Run{ID: f.nextID, Subreddits: subreddits, Status: entity.RunStatusRunning}
	return f.nextID, nil
}

func (f *fakeRuns) Complete(ctx context.Context, run entity.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.runs[run.ID]
	existing.Status = run.Status
	existing.CompletedAt = run.CompletedAt
	existing.PostsFetched = run.PostsFetched
	existing.PostsAnalyzed = run.PostsAnalyzed
	existing.SignalsSaved = run.SignalsSaved
	existing.QualifiedSignals = run.QualifiedSignals
	existing.Errors = run.Errors
	f.runs[run.ID] = existing
	return nil
}

func (f *fakeRuns) Get(ctx context.Context, runID int64) (*entity.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[runID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRuns) List(ctx context.Context, limit int) ([]entity.Run, error) { return nil, nil }

// fakeAnalyzer implements analyst.Analyzer with scripted-by-post-id
// responses so tests can exercise every extraction-state bucket without a
// real LLM call.
type fakeAnalyzer struct {
	responses map[string]entity.Analysis
	errs      map[string]error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, post entity.Post) (entity.Analysis, error) {
	if err, ok := a.errs[post.ID]; ok {
		return entity.Analysis{}, err
	}
	if resp, ok := a.responses[post.ID]; ok {
		return resp, nil
	}
	return entity.Analysis{}, errors.New("no scripted response for post")
}

func extractedAnalysis(qualified bool) entity.Analysis {
	return entity.Analysis{
		Extraction: entity.Extraction{ExtractionState: entity.ExtractionStateExtracted, SignalSummary: "a real pain"},
		Score: &entity.Score{
			Disqualified:  !qualified,
			Practicality:  7,
			Profitability: 6,
			Distribution:  5,
			Competition:   4,
			Moat:          3,
		},
	}
}

func notExtractableAnalysis() entity.Analysis {
	return entity.Analysis{Extraction: entity.Extraction{ExtractionState: entity.ExtractionStateNotExtractable, SignalSummary: "no viable idea here"}}
}

func disqualifiedAnalysis() entity.Analysis {
	return entity.Analysis{Extraction: entity.Extraction{ExtractionState: entity.ExtractionStateDisqualified, SignalSummary: "no viable idea, off-topic"}}
}

func TestRunPipeline_TalliesEveryExtractionStateBucket(t *testing.T) {
	posts := []entity.Post{
		{ID: "t3_1", Subreddit: "saas"},
		{ID: "t3_2", Subreddit: "saas"},
		{ID: "t3_3", Subreddit: "saas"},
		{ID: "t3_4", Subreddit: "saas"},
	}
	analyzer := &fakeAnalyzer{responses: map[string]entity.Analysis{
		"t3_1": extractedAnalysis(true),
		"t3_2": extractedAnalysis(false),
		"t3_3": notExtractableAnalysis(),
		"t3_4": disqualifiedAnalysis(),
	}}

	orch := &Orchestrator{
		Analyzer: analyzer,
		Posts:    newFakePosts(posts),
		Signals:  &fakeSignals{},
		Runs:     newFakeRuns(),
	}

	result, err := orch.RunPipeline(context.Background(), Config{MaxConcurrency: 4, ProcessLimit: 100}, false)
	require.NoError(t, err)

	assert.Equal(t, 4, result.PostsFetched)
	assert.Equal(t, 4, result.PostsAnalyzed)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 2, result.Extracted)
	assert.Equal(t, 1, result.NotExtractable)
	assert.Equal(t, 1, result.Disqualified)
	assert.Equal(t, 1, result.QualifiedSignals)
	assert.Equal(t, 3, result.SignalsSaved) // extracted (2) + disqualified (1)

	run, err := orch.Runs.Get(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.CompletedAt)
}

func TestRunPipeline_AnalysisErrorsCountTowardErrorsNotFatal(t *testing.T) {
	posts := []entity.Post{{ID: "t3_1"}, {ID: "t3_2"}}
	analyzer := &fakeAnalyzer{
		responses: map[string]entity.Analysis{"t3_1": extractedAnalysis(true)},
		errs:      map[string]error{"t3_2": &entity.AnalysisError{PostID: "t3_2", Message: "boom"}},
	}

	orch := &Orchestrator{
		Analyzer: analyzer,
		Posts:    newFakePosts(posts),
		Signals:  &fakeSignals{},
		Runs:     newFakeRuns(),
	}

	result, err := orch.RunPipeline(context.Background(), Config{MaxConcurrency: 2}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Equal(t, 1, result.PostsAnalyzed)

	run, err := orch.Runs.Get(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, run.Status)
}

func TestRunPipeline_FailureFinalizesRunAsFailedWithAtLeastOneError(t *testing.T) {
	orch := &Orchestrator{
		Analyzer: &fakeAnalyzer{},
		Posts:    newFakePosts(nil),
		Signals:  &fakeSignals{topErr: errors.New("store unavailable")},
		Runs:     newFakeRuns(),
	}

	result, err := orch.RunPipeline(context.Background(), Config{}, false)
	require.Error(t, err)
	assert.Zero(t, result)

	runs := orch.Runs.(*fakeRuns)
	require.Len(t, runs.runs, 1)
	for _, run := range runs.runs {
		assert.Equal(t, entity.RunStatusFailed, run.Status)
		assert.Equal(t, 1, run.Errors)
		assert.Zero(t, run.PostsFetched)
		require.NotNil(t, run.CompletedAt)
	}
}

func TestRunPipeline_CreateRunFailureNeverCreatesAFinalizedRun(t *testing.T) {
	orch := &Orchestrator{
		Analyzer: &fakeAnalyzer{},
		Posts:    newFakePosts(nil),
		Signals:  &fakeSignals{},
		Runs:     &fakeRuns{runs: make(map[int64]entity.Run), createErr: errors.New("db down")},
	}

	_, err := orch.RunPipeline(context.Background(), Config{}, false)
	require.Error(t, err)
}

func TestRunPipeline_ProcessLimitTruncatesBeforeAnalysis(t *testing.T) {
	posts := []entity.Post{{ID: "t3_1"}, {ID: "t3_2"}, {ID: "t3_3"}}
	analyzer := &fakeAnalyzer{responses: map[string]entity.Analysis{
		"t3_1": extractedAnalysis(true),
		"t3_2": extractedAnalysis(true),
		"t3_3": extractedAnalysis(true),
	}}

	orch := &Orchestrator{
		Analyzer: analyzer,
		Posts:    newFakePosts(posts),
		Signals:  &fakeSignals{},
		Runs:     newFakeRuns(),
	}

	result, err := orch.RunPipeline(context.Background(), Config{ProcessLimit: 1, MaxConcurrency: 4}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PostsFetched)
	assert.Equal(t, 1, result.PostsAnalyzed)
}

func TestRunProcessOnly_DefaultsUnboundedLimitWhenUnset(t *testing.T) {
	orch := &Orchestrator{
		Analyzer: &fakeAnalyzer{},
		Posts:    newFakePosts(nil),
		Signals:  &fakeSignals{},
		Runs:     newFakeRuns(),
	}

	result, err := orch.RunProcessOnly(context.Background(), Config{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.PostsFetched)
}
