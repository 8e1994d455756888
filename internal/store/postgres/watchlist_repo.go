package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

type WatchlistRepo struct{ db *sql.DB }

func NewWatchlistRepo(db *sql.DB) store.WatchlistRepository {
	return &WatchlistRepo{db: db}
}

func (r *WatchlistRepo) Create(ctx context.Context, wl entity.Watchlist) (int64, error) {
	keywordsJSON, err := json.Marshal(wl.Keywords)
	if err != nil {
		return 0, fmt.Errorf("Create: marshal keywords: %w", err)
	}
	subredditsJSON, err := json.Marshal(wl.Subreddits)
	if err != nil {
		return 0, fmt.Errorf("Create: marshal subreddits: %w", err)
	}
	tier := wl.Tier
	if tier == "" {
		tier = "free"
	}
	var id int64
	err = r.db.QueryRowContext(ctx, `
INSERT INTO watchlists (name, keywords, subreddits, notification_email, notification_webhook, tier, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE) RETURNING id`,
		wl.Name, keywordsJSON, subredditsJSON, nullIfEmpty(wl.NotificationEmail), nullIfEmpty(wl.NotificationWebhook), tier).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	return id, nil
}

const watchlistColumns = `id, name, keywords, subreddits, notification_email, notification_webhook, tier, is_active, created_at`

func scanWatchlist(scan func(dest ...interface{}) error) (entity.Watchlist, error) {
	var wl entity.Watchlist
	var subredditsJSON, keywordsJSON []byte
	var email, webhook sql.NullString
	err := scan(&wl.ID, &wl.Name, &keywordsJSON, &subredditsJSON, &email, &webhook, &wl.Tier, &wl.Active, &wl.CreatedAt)
	if err != nil {
		return wl, err
	}
	wl.NotificationEmail = email.String
	wl.NotificationWebhook = webhook.String
	if len(keywordsJSON) > 0 {
		_ = json.Unmarshal(keywordsJSON, &wl.Keywords)
	}
	if len(subredditsJSON) > 0 {
		_ = json.Unmarshal(subredditsJSON, &wl.Subreddits)
	}
	return wl, nil
}

func (r *WatchlistRepo) Get(ctx context.Context, id int64) (*entity.Watchlist, error) {
	query := `SELECT ` + watchlistColumns + ` FROM watchlists WHERE id = $1`
	wl, err := scanWatchlist(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &wl, nil
}

func (r *WatchlistRepo) List(ctx context.Context, activeOnly bool) ([]entity.Watchlist, error) {
	query := `SELECT ` + watchlistColumns + ` FROM watchlists`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var watchlists []entity.Watchlist
	for rows.Next() {
		wl, err := scanWatchlist(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		watchlists = append(watchlists, wl)
	}
	return watchlists, rows.Err()
}

func (r *WatchlistRepo) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE watchlists SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

// RecordMatch inserts an alert match for a (watchlist, signal) pair,
// relying on the table's UNIQUE(watchlist_id, signal_id) constraint to
// make repeated scans of the same signal idempotent.
func (r *WatchlistRepo) RecordMatch(ctx context.Context, match entity.AlertMatch) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO alert_matches (watchlist_id, signal_id, keyword_matched, notified)
VALUES ($1, $2, $3, FALSE)
ON CONFLICT (watchlist_id, signal_id) DO NOTHING
RETURNING id`, match.WatchlistID, match.SignalID, match.KeywordMatched).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("RecordMatch: %w", err)
	}
	return true, nil
}

// UnnotifiedMatches joins alert matches to their watchlist's notification
// targets and the matched signal's summary fields, aliasing the signals
// table consistently (s) against posts (p) so the join condition always
// references a defined alias.
func (r *WatchlistRepo) UnnotifiedMatches(ctx context.Context, watchlistID *int64) ([]store.UnnotifiedMatch, error) {
	query := `
SELECT am.id, am.watchlist_id, am.signal_id, am.keyword_matched, am.notified, am.created_at,
       w.name, COALESCE(w.notification_email, ''), COALESCE(w.notification_webhook, ''),
       s.signal_summary, COALESCE(s.pain_point, ''), p.subreddit, p.url
FROM alert_matches am
JOIN watchlists w ON am.watchlist_id = w.id
JOIN signals s ON am.signal_id = s.id
JOIN posts p ON s.post_id = p.id
WHERE am.notified = FALSE`
	args := []interface{}{}
	if watchlistID != nil {
		query += ` AND am.watchlist_id = $1`
		args = append(args, *watchlistID)
	}
	query += ` ORDER BY am.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("UnnotifiedMatches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []store.UnnotifiedMatch
	for rows.Next() {
		var m store.UnnotifiedMatch
		var url sql.NullString
		if err := rows.Scan(&m.ID, &m.WatchlistID, &m.SignalID, &m.KeywordMatched, &m.Notified, &m.CreatedAt,
			&m.WatchlistName, &m.NotificationEmail, &m.NotificationWebhook,
			&m.SignalSummary, &m.PainPoint, &m.Subreddit, &url); err != nil {
			return nil, fmt.Errorf("UnnotifiedMatches: scan: %w", err)
		}
		m.URL = url.String
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *WatchlistRepo) MarkNotified(ctx context.Context, matchIDs []int64) error {
	if len(matchIDs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("MarkNotified: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range matchIDs {
		if _, err := tx.ExecContext(ctx, `UPDATE alert_matches SET notified = TRUE WHERE id = $1`, id); err != nil {
			return fmt.Errorf("MarkNotified: %w", err)
		}
	}
	return tx.Commit()
}
