// Command pipeline runs the Pipeline Orchestrator once against a named
// source set or built-in preset, for manual and ad hoc invocations
// outside the scheduled worker (spec §4.G, §12).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	radarconfig "github.com/albeorla/reddit-pain-radar/internal/config"
	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/fetcher"
	"github.com/albeorla/reddit-pain-radar/internal/observability/logging"
	"github.com/albeorla/reddit-pain-radar/internal/pipeline"
	"github.com/albeorla/reddit-pain-radar/internal/presets"
	"github.com/albeorla/reddit-pain-radar/internal/store"
	"github.com/albeorla/reddit-pain-radar/internal/store/postgres"
)

func main() {
	preset := flag.String("preset", "", "built-in preset key to run against (see -list-presets)")
	sourceSetName := flag.String("source-set", "", "existing source set name to run against")
	fetchOnly := flag.Bool("fetch-only", false, "fetch and store posts without analyzing them")
	processOnly := flag.Bool("process-only", false, "analyze already-stored unprocessed posts without fetching")
	processLimit := flag.Int("process-limit", 0, "max unprocessed posts to load in -process-only mode (0 = default)")
	listPresets := flag.Bool("list-presets", false, "print every built-in preset key and exit")
	deepenPost := flag.String("deepen-post", "", "re-scrape an already-saved post's comments past its original cap and exit")
	deepenStart := flag.Int("deepen-start", 0, "comment index to resume from with -deepen-post")
	deepenLimit := flag.Int("deepen-limit", 20, "max additional comments to fetch with -deepen-post")
	flag.Parse()

	if *listPresets {
		for _, p := range presets.All() {
			fmt.Printf("%-16s %s\n", p.Key, p.Description)
		}
		return
	}

	if *deepenPost == "" && *preset == "" && *sourceSetName == "" {
		fmt.Fprintln(os.Stderr, "one of -preset, -source-set, or -deepen-post is required")
		os.Exit(2)
	}
	if *fetchOnly && *processOnly {
		fmt.Fprintln(os.Stderr, "-fetch-only and -process-only are mutually exclusive")
		os.Exit(2)
	}

	settings, err := radarconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load settings: %v\n", err)
		os.Exit(1)
	}
	logger := logging.NewFromConfig(settings.LogLevel, settings.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, settings.DatabaseDSN, postgres.DefaultConnectionConfig())
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	posts := postgres.NewPostRepo(db)
	signals := postgres.NewSignalRepo(db)
	runs := postgres.NewRunRepo(db)
	sourceSets := postgres.NewSourceSetRepo(db)

	analyzer, err := radarconfig.NewAnalyzer(settings)
	if err != nil {
		logger.Error("failed to build LLM analyst", slog.String("error", err.Error()))
		os.Exit(1)
	}
	f := fetcher.New(fetcher.Config{
		BaseURL:     fetcher.DefaultBaseURL,
		UserAgent:   settings.UserAgent,
		Concurrency: settings.MaxConcurrency,
	})
	orchestrator := pipeline.New(f, analyzer, posts, signals, runs)

	if *deepenPost != "" {
		post, err := orchestrator.DeepenComments(ctx, *deepenPost, *deepenStart, *deepenLimit)
		if err != nil {
			logger.Error("deepen-post run failed", slog.String("post_id", *deepenPost), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("deepen-post run completed", slog.String("post_id", post.ID), slog.Int("top_comments", len(post.TopComments)))
		return
	}

	set, err := resolveSourceSet(ctx, sourceSets, *preset, *sourceSetName)
	if err != nil {
		logger.Error("failed to resolve source set", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg := pipeline.Config{
		Subreddits:        set.Subreddits,
		Listing:           set.Listing,
		PostsPerSubreddit: set.LimitPerSub,
		TopComments:       settings.TopComments,
		MaxConcurrency:    settings.MaxConcurrency,
		ProcessLimit:      *processLimit,
	}

	switch {
	case *fetchOnly:
		fetched, err := orchestrator.RunFetchOnly(ctx, cfg)
		if err != nil {
			logger.Error("fetch-only run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("fetch-only run completed", slog.Int("posts_fetched", fetched))

	case *processOnly:
		result, err := orchestrator.RunProcessOnly(ctx, cfg)
		if err != nil {
			logger.Error("process-only run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logResult(logger, result)

	default:
		result, err := orchestrator.RunPipeline(ctx, cfg, true)
		if err != nil {
			logger.Error("pipeline run failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logResult(logger, result)
	}
}

// resolveSourceSet honors -source-set over -preset when both happen to be
// set, since an operator naming an existing set is asking for that exact
// row rather than the preset's first-use seed.
func resolveSourceSet(ctx context.Context, sets store.SourceSetRepository, preset, name string) (*entity.SourceSet, error) {
	if name != "" {
		all, err := sets.List(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("list source sets: %w", err)
		}
		for i := range all {
			if all[i].Name == name {
				return &all[i], nil
			}
		}
		return nil, fmt.Errorf("%w: no source set named %q", entity.ErrConfiguration, name)
	}
	return presets.ResolveOrCreate(ctx, sets, preset)
}

func logResult(logger *slog.Logger, result pipeline.Result) {
	logger.Info("pipeline run completed",
		slog.Int64("run_id", result.RunID),
		slog.Int("posts_fetched", result.PostsFetched),
		slog.Int("posts_analyzed", result.PostsAnalyzed),
		slog.Int("signals_saved", result.SignalsSaved),
		slog.Int("qualified_signals", result.QualifiedSignals),
		slog.Int("extracted", result.Extracted),
		slog.Int("not_extractable", result.NotExtractable),
		slog.Int("disqualified", result.Disqualified),
		slog.Int("errors", result.Errors))
}
