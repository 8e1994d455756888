package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/albeorla/reddit-pain-radar/internal/cluster"
	radarconfig "github.com/albeorla/reddit-pain-radar/internal/config"
	"github.com/albeorla/reddit-pain-radar/internal/fetcher"
	"github.com/albeorla/reddit-pain-radar/internal/infra/worker"
	"github.com/albeorla/reddit-pain-radar/internal/notify"
	"github.com/albeorla/reddit-pain-radar/internal/observability/logging"
	"github.com/albeorla/reddit-pain-radar/internal/observability/tracing"
	"github.com/albeorla/reddit-pain-radar/internal/pipeline"
	pkgconfig "github.com/albeorla/reddit-pain-radar/internal/pkg/config"
	"github.com/albeorla/reddit-pain-radar/internal/presets"
	"github.com/albeorla/reddit-pain-radar/internal/store/postgres"
)

// defaultPreset seeds the worker's first source set the very first time
// it runs against an empty database. Operators add more via cmd/pipeline
// or direct SQL; this only guarantees the scheduler always has at least
// one active source set to iterate.
const defaultPreset = "indie_saas"

func main() {
	settings, err := radarconfig.Load()
	if err != nil {
		slog.Error("failed to load settings", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.NewFromConfig(settings.LogLevel, settings.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracerProvider(ctx, "reddit-pain-radar")
	if err != nil {
		logger.Error("failed to init tracer provider", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracer provider shutdown failed", slog.String("error", err.Error()))
		}
	}()

	db, err := postgres.Open(ctx, settings.DatabaseDSN, postgres.DefaultConnectionConfig())
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeDB(logger, db)

	analyzer, err := radarconfig.NewAnalyzer(settings)
	if err != nil {
		logger.Error("failed to build LLM analyst", slog.String("error", err.Error()))
		os.Exit(1)
	}

	posts := postgres.NewPostRepo(db)
	signals := postgres.NewSignalRepo(db)
	runs := postgres.NewRunRepo(db)
	sourceSets := postgres.NewSourceSetRepo(db)
	clusters := postgres.NewClusterRepo(db)
	watchlists := postgres.NewWatchlistRepo(db)

	if _, err := presets.ResolveOrCreate(ctx, sourceSets, defaultPreset); err != nil {
		logger.Error("failed to seed default source set", slog.String("preset", defaultPreset), slog.String("error", err.Error()))
		os.Exit(1)
	}

	f := fetcher.New(fetcher.Config{
		BaseURL:     fetcher.DefaultBaseURL,
		UserAgent:   settings.UserAgent,
		Concurrency: settings.MaxConcurrency,
	})
	orchestrator := pipeline.New(f, analyzer, posts, signals, runs)
	clusterer := cluster.New(settings.LLMAPIKey)

	notifyChannel := buildNotifyChannel()

	scheduleCfg := pipeline.LoadScheduleConfigFromEnv()
	if err := scheduleCfg.Validate(); err != nil {
		logger.Error("invalid schedule configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	scheduler := pipeline.NewScheduler(orchestrator, clusterer, sourceSets, signals, clusters, watchlists, notifyChannel, scheduleCfg)

	healthAddr := pkgconfig.LoadEnvString("PAIN_RADAR_HEALTH_ADDR", addrForPort(settings.HealthPort))
	healthServer := worker.NewHealthServer(healthAddr, logger)
	scheduler.OnRunSuccess(healthServer.RecordSuccessfulRun)

	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.String("error", err.Error()))
		}
	}()

	metricsAddr := pkgconfig.LoadEnvString("PAIN_RADAR_METRICS_ADDR", addrForPort(settings.MetricsPort))
	startMetricsServer(ctx, logger, metricsAddr)

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	healthServer.SetReady(true)

	logger.Info("worker started",
		slog.String("cron_schedule", scheduleCfg.CronSchedule),
		slog.String("cluster_cron_schedule", scheduleCfg.ClusterCronSchedule),
		slog.String("watchlist_cron_schedule", scheduleCfg.WatchlistCronSchedule),
		slog.String("health_addr", healthAddr),
		slog.String("metrics_addr", metricsAddr))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)
	<-scheduler.Stop().Done()
	logger.Info("scheduler stopped")
}

// buildNotifyChannel wires the generic webhook delivery channel used for
// watchlist alerts. Every watchlist carries its own destination URL, so
// unlike the teacher's per-process Discord/Slack channels, there is
// nothing to enable or disable here beyond the shared HTTP timeout.
func buildNotifyChannel() notify.Channel {
	return notify.NewWebhookChannel(notify.DefaultWebhookConfig())
}

func closeDB(logger *slog.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", slog.String("error", err.Error()))
	}
}

func addrForPort(port int) string {
	return fmt.Sprintf(":%d", port)
}
