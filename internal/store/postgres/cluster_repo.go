package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

type ClusterRepo struct{ db *sql.DB }

func NewClusterRepo(db *sql.DB) store.ClusterRepository {
	return &ClusterRepo{db: db}
}

// clusterBaseID builds the deterministic, human-readable id prefix a
// cluster would get on first save: {week}_{slug of first 10 title
// chars}_{member count}.
func clusterBaseID(weekStart string, cluster entity.Cluster) string {
	titleSlug := cluster.Title
	if len(titleSlug) > 10 {
		titleSlug = titleSlug[:10]
	}
	titleSlug = strings.ToLower(strings.ReplaceAll(titleSlug, " ", "_"))
	return fmt.Sprintf("%s_%s_%d", weekStart, titleSlug, len(cluster.SignalIDs))
}

// SaveClusters inserts each cluster under a deterministic id, appending a
// numeric suffix (_2, _3, ...) if that id is already taken instead of
// failing the save — two clusters in the same week can legitimately share
// a title prefix and member count.
func (r *ClusterRepo) SaveClusters(ctx context.Context, clusters []entity.Cluster, weekStart string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("SaveClusters: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, cluster := range clusters {
		base := clusterBaseID(weekStart, cluster)
		id := base
		for attempt := 2; ; attempt++ {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM clusters WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("SaveClusters: check collision: %w", err)
			}
			if !exists {
				break
			}
			id = fmt.Sprintf("%s_%d", base, attempt)
		}

		_, err := tx.ExecContext(ctx, `
INSERT INTO clusters (id, title, summary, week_start, target_audience, why_it_matters)
VALUES ($1, $2, $3, $4, $5, $6)`,
			id, cluster.Title, cluster.Summary, weekStart, nullIfEmpty(cluster.TargetAudience), nullIfEmpty(cluster.WhyItMatters))
		if err != nil {
			return fmt.Errorf("SaveClusters: insert: %w", err)
		}

		for _, signalID := range cluster.SignalIDs {
			if _, err := tx.ExecContext(ctx, `UPDATE signals SET cluster_id = $1 WHERE id = $2`, id, signalID); err != nil {
				return fmt.Errorf("SaveClusters: link signal %d: %w", signalID, err)
			}
		}
	}

	return tx.Commit()
}

func (r *ClusterRepo) ForWeek(ctx context.Context, weekStart string) ([]entity.Cluster, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, summary, week_start::text, target_audience, why_it_matters
FROM clusters WHERE week_start = $1`, weekStart)
	if err != nil {
		return nil, fmt.Errorf("ForWeek: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var clusters []entity.Cluster
	for rows.Next() {
		var c entity.Cluster
		var targetAudience, whyItMatters sql.NullString
		if err := rows.Scan(&c.ID, &c.Title, &c.Summary, &c.WeekStart, &targetAudience, &whyItMatters); err != nil {
			return nil, fmt.Errorf("ForWeek: scan: %w", err)
		}
		c.TargetAudience = targetAudience.String
		c.WhyItMatters = whyItMatters.String

		signalRows, err := r.db.QueryContext(ctx, `SELECT id FROM signals WHERE cluster_id = $1`, c.ID)
		if err != nil {
			return nil, fmt.Errorf("ForWeek: member signals: %w", err)
		}
		for signalRows.Next() {
			var sid int64
			if err := signalRows.Scan(&sid); err != nil {
				_ = signalRows.Close()
				return nil, fmt.Errorf("ForWeek: scan member signal: %w", err)
			}
			c.SignalIDs = append(c.SignalIDs, sid)
		}
		_ = signalRows.Close()

		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}
