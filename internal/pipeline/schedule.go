package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/albeorla/reddit-pain-radar/internal/cluster"
	"github.com/albeorla/reddit-pain-radar/internal/notify"
	"github.com/albeorla/reddit-pain-radar/internal/observability/metrics"
	"github.com/albeorla/reddit-pain-radar/internal/pkg/config"
	"github.com/albeorla/reddit-pain-radar/internal/store"
	"github.com/albeorla/reddit-pain-radar/internal/watchlist"
)

// ScheduleConfig controls the recurring cadence of the scheduled worker:
// a daily pipeline run against every active source set, and a separate
// weekly clustering pass.
type ScheduleConfig struct {
	CronSchedule          string // daily pipeline run, e.g. "30 5 * * *"
	ClusterCronSchedule   string // weekly clustering pass, e.g. "0 6 * * 1"
	WatchlistCronSchedule string // watchlist scan + notify dispatch, e.g. "0 * * * *"
	WatchlistSinceHours   int    // scan window for watchlist matching
	Timezone              string
	RunTimeout            time.Duration
}

// DefaultScheduleConfig matches the reference deployment's cadence: a
// pipeline run every morning, clustering once a week right after, and an
// hourly watchlist scan and notification dispatch pass.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		CronSchedule:          "30 5 * * *",
		ClusterCronSchedule:   "0 6 * * 1",
		WatchlistCronSchedule: "0 * * * *",
		WatchlistSinceHours:   24,
		Timezone:              "UTC",
		RunTimeout:            30 * time.Minute,
	}
}

// Validate reuses the generic config validators for the cron expressions
// and timezone, the same way the reference worker config validates its
// own schedule fields.
func (c ScheduleConfig) Validate() error {
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		return fmt.Errorf("cron schedule: %w", err)
	}
	if err := config.ValidateCronSchedule(c.ClusterCronSchedule); err != nil {
		return fmt.Errorf("cluster cron schedule: %w", err)
	}
	if err := config.ValidateCronSchedule(c.WatchlistCronSchedule); err != nil {
		return fmt.Errorf("watchlist cron schedule: %w", err)
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		return fmt.Errorf("run timeout: %w", err)
	}
	if err := config.ValidateIntRange(c.WatchlistSinceHours, 1, 168); err != nil {
		return fmt.Errorf("watchlist since hours: %w", err)
	}
	return nil
}

// LoadScheduleConfigFromEnv loads the schedule from PAIN_RADAR_-prefixed
// environment variables, falling back to DefaultScheduleConfig on any
// invalid value rather than failing startup.
func LoadScheduleConfigFromEnv() ScheduleConfig {
	cfg := DefaultScheduleConfig()

	result := config.LoadEnvWithFallback("PAIN_RADAR_CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)

	result = config.LoadEnvWithFallback("PAIN_RADAR_CLUSTER_CRON_SCHEDULE", cfg.ClusterCronSchedule, config.ValidateCronSchedule)
	cfg.ClusterCronSchedule = result.Value.(string)

	result = config.LoadEnvWithFallback("PAIN_RADAR_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)

	durResult := config.LoadEnvDuration("PAIN_RADAR_RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.RunTimeout = durResult.Value.(time.Duration)

	result = config.LoadEnvWithFallback("PAIN_RADAR_WATCHLIST_CRON_SCHEDULE", cfg.WatchlistCronSchedule, config.ValidateCronSchedule)
	cfg.WatchlistCronSchedule = result.Value.(string)

	hoursResult := config.LoadEnvInt("PAIN_RADAR_WATCHLIST_SINCE_HOURS", cfg.WatchlistSinceHours, func(h int) error {
		return config.ValidateIntRange(h, 1, 168)
	})
	cfg.WatchlistSinceHours = hoursResult.Value.(int)

	return cfg
}

// Scheduler drives the recurring pipeline and clustering cadence. It does
// not own the Orchestrator or Clusterer's lifetimes; it only calls them
// on a schedule.
type Scheduler struct {
	orchestrator  *Orchestrator
	clusterer     *cluster.Clusterer
	sourceSets    store.SourceSetRepository
	signals       store.SignalRepository
	clusters      store.ClusterRepository
	watchlists    store.WatchlistRepository
	notifyChannel notify.Channel
	cfg           ScheduleConfig
	cron          *cron.Cron
	slo           sloTracker
	onRunSuccess  func(time.Time)
}

// OnRunSuccess registers a callback invoked with the completion time of
// every scheduled pipeline run that finishes without error, across every
// source set. cmd/worker uses this to drive the /healthz
// time-since-last-success reading without this package importing the
// health server's.
func (s *Scheduler) OnRunSuccess(fn func(time.Time)) {
	s.onRunSuccess = fn
}

// NewScheduler builds a Scheduler. cfg.Timezone falling back to UTC on a
// load failure is the caller's responsibility (LoadScheduleConfigFromEnv
// already guarantees a valid value). notifyChannel may be nil, in which
// case the watchlist scan still runs and persists matches but no
// delivery attempt is made.
func NewScheduler(o *Orchestrator, clusterer *cluster.Clusterer, sourceSets store.SourceSetRepository, signals store.SignalRepository, clusters store.ClusterRepository, watchlists store.WatchlistRepository, notifyChannel notify.Channel, cfg ScheduleConfig) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("invalid schedule timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.String("error", err.Error()))
		loc = time.UTC
	}
	return &Scheduler{
		orchestrator:  o,
		clusterer:     clusterer,
		sourceSets:    sourceSets,
		signals:       signals,
		clusters:      clusters,
		watchlists:    watchlists,
		notifyChannel: notifyChannel,
		cfg:           cfg,
		cron:          cron.New(cron.WithLocation(loc)),
	}
}

// Start registers the daily pipeline job and weekly clustering job and
// starts the cron scheduler's background goroutine. It does not block.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runDailyPipeline); err != nil {
		return fmt.Errorf("add pipeline cron job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ClusterCronSchedule, s.runWeeklyClustering); err != nil {
		return fmt.Errorf("add clustering cron job: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.WatchlistCronSchedule, s.runWatchlistScanAndNotify); err != nil {
		return fmt.Errorf("add watchlist scan cron job: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// runDailyPipeline runs the pipeline once for every active source set,
// one at a time, logging but not aborting on a per-set failure.
func (s *Scheduler) runDailyPipeline() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	sets, err := s.sourceSets.List(ctx, true)
	if err != nil {
		slog.Error("scheduled pipeline: failed to list active source sets", slog.String("error", err.Error()))
		return
	}

	for _, set := range sets {
		cfg := Config{
			Subreddits:        set.Subreddits,
			Listing:           set.Listing,
			PostsPerSubreddit: set.LimitPerSub,
			TopComments:       5,
			MaxConcurrency:    8,
		}
		runStart := time.Now()
		if _, err := s.orchestrator.RunPipeline(ctx, cfg, true); err != nil {
			s.slo.record(false, time.Since(runStart))
			slog.Error("scheduled pipeline run failed", slog.Int64("source_set_id", set.ID), slog.String("name", set.Name), slog.String("error", err.Error()))
		} else {
			s.slo.record(true, time.Since(runStart))
			if s.onRunSuccess != nil {
				s.onRunSuccess(time.Now())
			}
		}
	}
}

// runWeeklyClustering clusters every unclustered qualified pain signal
// from the prior seven days and persists whatever groups the Clusterer
// returns, keyed to the Monday of the current week.
func (s *Scheduler) runWeeklyClustering() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()
	start := time.Now()

	items, err := s.signals.UnclusteredPainPoints(ctx, "", 7)
	if err != nil {
		slog.Error("scheduled clustering: failed to load unclustered pain points", slog.String("error", err.Error()))
		return
	}
	if len(items) == 0 {
		slog.Info("scheduled clustering: nothing to cluster")
		return
	}

	clusters := s.clusterer.ClusterItems(ctx, items)
	if len(clusters) == 0 {
		slog.Warn("scheduled clustering: clusterer returned no groups", slog.Int("input_items", len(items)))
		return
	}

	weekStart := mondayOf(time.Now())
	if err := s.clusters.SaveClusters(ctx, clusters, weekStart); err != nil {
		slog.Error("scheduled clustering: failed to save clusters", slog.String("error", err.Error()))
		return
	}
	metrics.RecordClustering(time.Since(start))
	slog.Info("scheduled clustering completed", slog.Int("clusters", len(clusters)), slog.String("week_start", weekStart))
}

// runWatchlistScanAndNotify matches recent qualified signals against
// every active watchlist and, when a delivery channel is configured,
// dispatches notifications for whatever matches have not yet been
// notified. A dispatch failure is logged and left for the next pass; it
// never blocks the scan from completing.
func (s *Scheduler) runWatchlistScanAndNotify() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()

	results, err := watchlist.Scan(ctx, s.watchlists, s.signals, s.cfg.WatchlistSinceHours)
	if err != nil {
		slog.Error("scheduled watchlist scan failed", slog.String("error", err.Error()))
		return
	}
	inserted := 0
	for _, r := range results {
		if r.Inserted {
			inserted++
		}
	}
	metrics.RecordAlertMatches(inserted)
	slog.Info("scheduled watchlist scan completed", slog.Int("matches", len(results)), slog.Int("new_matches", inserted))

	if s.notifyChannel == nil {
		return
	}
	delivery, err := notify.DeliverUnnotified(ctx, s.watchlists, s.notifyChannel, 0)
	if err != nil {
		slog.Error("scheduled alert delivery failed", slog.String("error", err.Error()))
		return
	}
	slog.Info("scheduled alert delivery completed",
		slog.Int("matched", delivery.Matched),
		slog.Int("delivered", delivery.Delivered),
		slog.Int("skipped", delivery.Skipped),
		slog.Int("failed", delivery.Failed))
}

// mondayOf returns the ISO date (YYYY-MM-DD) of the Monday on or before t,
// the canonical week-start key used to group a week's clusters.
func mondayOf(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	return monday.Format("2006-01-02")
}
