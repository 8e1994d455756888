package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

type SourceSetRepo struct{ db *sql.DB }

func NewSourceSetRepo(db *sql.DB) store.SourceSetRepository {
	return &SourceSetRepo{db: db}
}

func (r *SourceSetRepo) Create(ctx context.Context, set entity.SourceSet) (int64, error) {
	subredditsJSON, err := json.Marshal(set.Subreddits)
	if err != nil {
		return 0, fmt.Errorf("Create: marshal subreddits: %w", err)
	}
	var id int64
	err = r.db.QueryRowContext(ctx, `
INSERT INTO source_sets (name, description, preset_key, subreddits, listing, limit_per_sub, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE) RETURNING id`,
		set.Name, nullIfEmpty(set.Description), nullIfEmpty(set.PresetKey), subredditsJSON, string(set.Listing), set.LimitPerSub).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("Create: %w", err)
	}
	return id, nil
}

const sourceSetColumns = `id, name, description, preset_key, subreddits, listing, limit_per_sub, is_active, created_at, updated_at`

func scanSourceSet(scan func(dest ...interface{}) error) (entity.SourceSet, error) {
	var s entity.SourceSet
	var description, presetKey sql.NullString
	var subredditsJSON []byte
	var listing string
	var updatedAt sql.NullTime
	err := scan(&s.ID, &s.Name, &description, &presetKey, &subredditsJSON, &listing, &s.LimitPerSub, &s.Active, &s.CreatedAt, &updatedAt)
	if err != nil {
		return s, err
	}
	s.Description = description.String
	s.PresetKey = presetKey.String
	s.Listing = entity.Listing(listing)
	if updatedAt.Valid {
		s.UpdatedAt = updatedAt.Time
	}
	if len(subredditsJSON) > 0 {
		_ = json.Unmarshal(subredditsJSON, &s.Subreddits)
	}
	return s, nil
}

func (r *SourceSetRepo) Get(ctx context.Context, id int64) (*entity.SourceSet, error) {
	query := `SELECT ` + sourceSetColumns + ` FROM source_sets WHERE id = $1`
	s, err := scanSourceSet(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &s, nil
}

func (r *SourceSetRepo) GetByPreset(ctx context.Context, presetKey string) (*entity.SourceSet, error) {
	query := `SELECT ` + sourceSetColumns + ` FROM source_sets WHERE preset_key = $1 AND is_active = TRUE`
	s, err := scanSourceSet(r.db.QueryRowContext(ctx, query, presetKey).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByPreset: %w", err)
	}
	return &s, nil
}

func (r *SourceSetRepo) List(ctx context.Context, activeOnly bool) ([]entity.SourceSet, error) {
	query := `SELECT ` + sourceSetColumns + ` FROM source_sets`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sets []entity.SourceSet
	for rows.Next() {
		s, err := scanSourceSet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (r *SourceSetRepo) Update(ctx context.Context, set entity.SourceSet) error {
	subredditsJSON, err := json.Marshal(set.Subreddits)
	if err != nil {
		return fmt.Errorf("Update: marshal subreddits: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
UPDATE source_sets SET
    name          = $1,
    description   = $2,
    subreddits    = $3,
    listing       = $4,
    limit_per_sub = $5,
    updated_at    = $6
WHERE id = $7`,
		set.Name, nullIfEmpty(set.Description), subredditsJSON, string(set.Listing), set.LimitPerSub, time.Now().UTC(), set.ID)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return nil
}

func (r *SourceSetRepo) Deactivate(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE source_sets SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return nil
}

func (r *SourceSetRepo) ActiveSubreddits(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT subreddits FROM source_sets WHERE is_active = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("ActiveSubreddits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]struct{})
	for rows.Next() {
		var subredditsJSON []byte
		if err := rows.Scan(&subredditsJSON); err != nil {
			return nil, fmt.Errorf("ActiveSubreddits: scan: %w", err)
		}
		var subs []string
		if err := json.Unmarshal(subredditsJSON, &subs); err != nil {
			return nil, fmt.Errorf("ActiveSubreddits: unmarshal: %w", err)
		}
		for _, s := range subs {
			seen[s] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
