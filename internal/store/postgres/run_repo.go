package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

type RunRepo struct{ db *sql.DB }

func NewRunRepo(db *sql.DB) store.RunRepository {
	return &RunRepo{db: db}
}

func (r *RunRepo) Create(ctx context.Context, subreddits []string) (int64, error) {
	subredditsJSON, err := json.Marshal(subreddits)
	if err != nil {
		return 0, fmt.Errorf("Create: marshal subreddits: %w", err)
	}
	var id int64
	err = r.db.QueryRowContext(ctx, `
INSERT INTO runs (started_at, subreddits, status)
VALUES ($1, $2, $3) RETURNING id`, time.Now().UTC(), subredditsJSON, string(entity.RunStatusRunning)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	return id, nil
}

// Complete persists a run's final counters and status, whether it
// finished normally (MarkCompleted) or aborted (MarkFailed).
func (r *RunRepo) Complete(ctx context.Context, run entity.Run) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE runs SET
    completed_at      = $1,
    posts_fetched     = $2,
    posts_analyzed    = $3,
    signals_saved     = $4,
    qualified_signals = $5,
    errors            = $6,
    status            = $7
WHERE id = $8`,
		run.CompletedAt, run.PostsFetched, run.PostsAnalyzed, run.SignalsSaved,
		run.QualifiedSignals, run.Errors, string(run.Status), run.ID)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	return nil
}

func (r *RunRepo) Get(ctx context.Context, runID int64) (*entity.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, `
SELECT id, started_at, completed_at, subreddits, posts_fetched, posts_analyzed,
       signals_saved, qualified_signals, errors, status
FROM runs WHERE id = $1`, runID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &run, nil
}

func (r *RunRepo) List(ctx context.Context, limit int) ([]entity.Run, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, started_at, completed_at, subreddits, posts_fetched, posts_analyzed,
       signals_saved, qualified_signals, errors, status
FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []entity.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func scanRun(scan func(dest ...interface{}) error) (entity.Run, error) {
	var run entity.Run
	var completedAt sql.NullTime
	var subredditsJSON []byte
	var status string
	if err := scan(&run.ID, &run.StartedAt, &completedAt, &subredditsJSON,
		&run.PostsFetched, &run.PostsAnalyzed, &run.SignalsSaved, &run.QualifiedSignals,
		&run.Errors, &status); err != nil {
		return run, err
	}
	run.Status = entity.RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if len(subredditsJSON) > 0 {
		_ = json.Unmarshal(subredditsJSON, &run.Subreddits)
	}
	return run, nil
}
