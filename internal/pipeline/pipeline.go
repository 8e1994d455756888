// Package pipeline implements the Pipeline Orchestrator (spec §4.G): the
// single entrypoint that connects the Signal Store, fetches or loads
// posts, fans per-post analysis out across a bounded worker pool, and
// finalizes a Run record on every exit path, including a failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albeorla/reddit-pain-radar/internal/analyst"
	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/fetcher"
	"github.com/albeorla/reddit-pain-radar/internal/observability/metrics"
	"github.com/albeorla/reddit-pain-radar/internal/observability/tracing"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

// Config holds the knobs one pipeline invocation needs: which subreddits
// to work against and how aggressively to fetch and analyze them.
type Config struct {
	Subreddits        []string
	Listing           entity.Listing
	PostsPerSubreddit int
	TopComments       int
	MaxConcurrency    int
	ProcessLimit      int // 0 means no cap on fetched posts; unprocessed posts load up to defaultUnprocessedLimit
}

// defaultUnprocessedLimit is the number of unprocessed posts loaded from
// the store when a caller asks to process existing posts without an
// explicit limit.
const defaultUnprocessedLimit = 1000

// Result is the outcome of one pipeline run: the stats the operator sees
// and the signals worth surfacing immediately.
type Result struct {
	RunID            int64
	PostsFetched     int
	PostsAnalyzed    int
	SignalsSaved     int
	QualifiedSignals int
	Errors           int
	Extracted        int
	NotExtractable   int
	Disqualified     int
	TopSignals       []entity.Signal
}

// Orchestrator wires the Source Fetcher, LLM Analyst, and Signal Store
// repositories into the full pipeline lifecycle.
type Orchestrator struct {
	Fetcher  *fetcher.Fetcher
	Analyzer analyst.Analyzer
	Posts    store.PostRepository
	Signals  store.SignalRepository
	Runs     store.RunRepository
}

// New constructs an Orchestrator from its three collaborators.
func New(f *fetcher.Fetcher, a analyst.Analyzer, posts store.PostRepository, signals store.SignalRepository, runs store.RunRepository) *Orchestrator {
	return &Orchestrator{Fetcher: f, Analyzer: a, Posts: posts, Signals: signals, Runs: runs}
}

// taskResult is the per-post outcome the fan-out stage collects, mirroring
// the (post_id, analysis?, error?) triple of the reference pipeline.
type taskResult struct {
	postID   string
	analysis *entity.Analysis
	err      error
}

// RunPipeline executes the full eight-step lifecycle: create a Run row,
// fetch or load posts, analyze them concurrently, tally outcomes, and
// finalize the Run as completed or failed. The Run row is always
// finalized, including when ctx is canceled mid-fan-out.
func (o *Orchestrator) RunPipeline(ctx context.Context, cfg Config, fetchNew bool) (Result, error) {
	runID, err := o.Runs.Create(ctx, cfg.Subreddits)
	if err != nil {
		return Result{}, fmt.Errorf("create run: %w", err)
	}
	slog.InfoContext(ctx, "pipeline run started", slog.Int64("run_id", runID), slog.Bool("fetch_new", fetchNew))

	ctx, span := tracing.StartRun(ctx, runID)
	defer span.End()
	start := time.Now()

	result, err := o.runLifecycle(ctx, cfg, fetchNew, runID)
	if err != nil {
		tracing.EndWithError(span, err)
		metrics.RecordRun("failed", time.Since(start))
		failed := entity.Run{ID: runID}
		failed.MarkFailed(time.Now())
		if cerr := o.Runs.Complete(ctx, failed); cerr != nil {
			slog.ErrorContext(ctx, "failed to record run failure", slog.Int64("run_id", runID), slog.String("error", cerr.Error()))
		}
		slog.ErrorContext(ctx, "pipeline run failed", slog.Int64("run_id", runID), slog.String("error", err.Error()))
		return Result{}, err
	}

	completed := entity.Run{ID: runID}
	completed.MarkCompleted(result.PostsFetched, result.PostsAnalyzed, result.SignalsSaved, result.QualifiedSignals, result.Errors, time.Now())
	if err := o.Runs.Complete(ctx, completed); err != nil {
		metrics.RecordRun("failed", time.Since(start))
		return Result{}, fmt.Errorf("complete run: %w", err)
	}
	metrics.RecordRun("completed", time.Since(start))

	slog.InfoContext(ctx, "pipeline run completed",
		slog.Int64("run_id", runID),
		slog.Int("posts_fetched", result.PostsFetched),
		slog.Int("posts_analyzed", result.PostsAnalyzed),
		slog.Int("qualified_signals", result.QualifiedSignals),
		slog.Int("errors", result.Errors))
	return result, nil
}

// runLifecycle performs steps 3–7 of the lifecycle (everything between
// creating and finalizing the Run row), isolated so RunPipeline can wrap
// it uniformly with the failure-finalization path.
func (o *Orchestrator) runLifecycle(ctx context.Context, cfg Config, fetchNew bool, runID int64) (Result, error) {
	posts, err := o.loadPosts(ctx, cfg, fetchNew)
	if err != nil {
		return Result{}, err
	}
	if cfg.ProcessLimit > 0 && len(posts) > cfg.ProcessLimit {
		posts = posts[:cfg.ProcessLimit]
	}

	tasks := o.analyzePosts(ctx, posts, runID, cfg.MaxConcurrency)

	result := Result{RunID: runID, PostsFetched: len(posts)}
	for _, t := range tasks {
		if t.err != nil {
			result.Errors++
			continue
		}
		result.PostsAnalyzed++
		switch t.analysis.Extraction.ExtractionState {
		case entity.ExtractionStateExtracted:
			result.Extracted++
		case entity.ExtractionStateNotExtractable:
			result.NotExtractable++
		case entity.ExtractionStateDisqualified:
			result.Disqualified++
		}
		if t.analysis.Extraction.ExtractionState == entity.ExtractionStateExtracted && t.analysis.Score != nil && !t.analysis.Score.Disqualified {
			result.QualifiedSignals++
		}
	}
	result.SignalsSaved = result.Extracted + result.Disqualified

	top, err := o.Signals.TopSignals(ctx, 10, false)
	if err != nil {
		return Result{}, fmt.Errorf("load top signals: %w", err)
	}
	result.TopSignals = top
	return result, nil
}

// loadPosts implements step 3: fetch fresh posts and upsert them, or load
// up to the configured (or default) limit of unprocessed posts already in
// the store.
func (o *Orchestrator) loadPosts(ctx context.Context, cfg Config, fetchNew bool) ([]entity.Post, error) {
	if fetchNew {
		posts, err := o.Fetcher.FetchAll(ctx, cfg.Subreddits, cfg.Listing, cfg.PostsPerSubreddit, cfg.TopComments)
		if err != nil {
			return nil, fmt.Errorf("fetch posts: %w", err)
		}
		if _, err := o.Posts.UpsertPosts(ctx, posts); err != nil {
			return nil, fmt.Errorf("upsert posts: %w", err)
		}
		return posts, nil
	}

	limit := cfg.ProcessLimit
	if limit <= 0 {
		limit = defaultUnprocessedLimit
	}
	posts, err := o.Posts.UnprocessedPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load unprocessed posts: %w", err)
	}
	return posts, nil
}

// analyzePosts implements step 5–6: fan per-post analysis out across a
// semaphore-bounded worker pool and collect every result, in input order,
// before returning. A canceled context aborts outstanding tasks but still
// yields whatever results were already collected for the tally.
func (o *Orchestrator) analyzePosts(ctx context.Context, posts []entity.Post, runID int64, maxConcurrency int) []taskResult {
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}
	results := make([]taskResult, len(posts))
	sem := make(chan struct{}, maxConcurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i, post := range posts {
		i, post := i, post
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				results[i] = taskResult{postID: post.ID, err: gctx.Err()}
				return nil
			}
			defer func() { <-sem }()

			results[i] = o.processPost(gctx, post, runID)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// processPost implements the per-task body of step 5: analyze, save on
// success, classify and log on failure. It never returns an error to its
// caller — a per-post failure counts toward the run's error tally instead
// of aborting the run, matching the reference pipeline's warn-and-continue
// behavior for analysis failures.
func (o *Orchestrator) processPost(ctx context.Context, post entity.Post, runID int64) taskResult {
	ctx, span := tracing.StartPostAnalysis(ctx, post.ID)
	defer span.End()

	analysis, err := o.Analyzer.Analyze(ctx, post)
	if err != nil {
		tracing.EndWithError(span, err)
		metrics.RecordPostAnalyzed("error")
		var analysisErr *entity.AnalysisError
		if errors.As(err, &analysisErr) {
			slog.WarnContext(ctx, "post analysis failed", slog.String("post_id", post.ID), slog.String("error", analysisErr.Error()))
		} else {
			slog.ErrorContext(ctx, "post processing failed", slog.String("post_id", post.ID), slog.String("error", err.Error()))
		}
		return taskResult{postID: post.ID, err: err}
	}

	id := runID
	if _, err := o.Signals.SaveSignal(ctx, post.ID, &id, analysis); err != nil {
		tracing.EndWithError(span, err)
		metrics.RecordPostAnalyzed("error")
		slog.ErrorContext(ctx, "failed to save signal", slog.String("post_id", post.ID), slog.String("error", err.Error()))
		return taskResult{postID: post.ID, err: err}
	}
	metrics.RecordPostAnalyzed(analysisOutcome(analysis))
	return taskResult{postID: post.ID, analysis: &analysis}
}

// analysisOutcome maps a completed analysis to the RecordPostAnalyzed
// label set, distinguishing an extracted-and-qualified signal from one
// extracted but disqualified by scoring.
func analysisOutcome(analysis entity.Analysis) string {
	switch analysis.Extraction.ExtractionState {
	case entity.ExtractionStateExtracted:
		if analysis.Score != nil && !analysis.Score.Disqualified {
			return "qualified"
		}
		return "disqualified"
	case entity.ExtractionStateDisqualified:
		return "disqualified"
	default:
		return "not_extractable"
	}
}

// RunFetchOnly implements the fetch-only variant: steps 1 and 3, no
// analysis, no Run row. It returns the number of posts fetched.
func (o *Orchestrator) RunFetchOnly(ctx context.Context, cfg Config) (int, error) {
	posts, err := o.Fetcher.FetchAll(ctx, cfg.Subreddits, cfg.Listing, cfg.PostsPerSubreddit, cfg.TopComments)
	if err != nil {
		return 0, fmt.Errorf("fetch posts: %w", err)
	}
	if _, err := o.Posts.UpsertPosts(ctx, posts); err != nil {
		return 0, fmt.Errorf("upsert posts: %w", err)
	}
	return len(posts), nil
}

// RunProcessOnly implements the process-only variant: runs the full
// pipeline against already-stored unprocessed posts.
func (o *Orchestrator) RunProcessOnly(ctx context.Context, cfg Config) (Result, error) {
	cfg.ProcessLimit = limitOrDefault(cfg.ProcessLimit)
	return o.RunPipeline(ctx, cfg, false)
}

// DeepenComments re-reads an already-saved post's comment page past its
// original topComments cap and persists the extension, for operators who
// decide after the fact that a post's discussion deserved a deeper read.
// It does not re-run analysis; callers that want the analyst to see the
// extended comments still need a separate RunProcessOnly pass.
func (o *Orchestrator) DeepenComments(ctx context.Context, postID string, startIndex, limit int) (*entity.Post, error) {
	post, err := o.Posts.Get(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("post %q not found", postID)
	}

	more, err := o.Fetcher.FetchMoreComments(ctx, post.Permalink, startIndex, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch more comments: %w", err)
	}
	post.TopComments = append(post.TopComments, more...)

	if _, err := o.Posts.UpsertPosts(ctx, []entity.Post{*post}); err != nil {
		return nil, fmt.Errorf("save extended comments: %w", err)
	}
	return post, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultUnprocessedLimit
	}
	return limit
}
