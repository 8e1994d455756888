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

type PostRepo struct{ db *sql.DB }

func NewPostRepo(db *sql.DB) store.PostRepository {
	return &PostRepo{db: db}
}

func (r *PostRepo) UpsertPosts(ctx context.Context, posts []entity.Post) (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, p := range posts {
		comments, err := json.Marshal(p.TopComments)
		if err != nil {
			return count, fmt.Errorf("UpsertPosts: marshal top_comments: %w", err)
		}
		_, err = r.db.ExecContext(ctx, `
INSERT INTO posts
    (id, subreddit, title, body, created_utc, score, num_comments, url, permalink, top_comments, fetched_at)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    title         = EXCLUDED.title,
    body          = EXCLUDED.body,
    score         = EXCLUDED.score,
    num_comments  = EXCLUDED.num_comments,
    top_comments  = EXCLUDED.top_comments,
    fetched_at    = EXCLUDED.fetched_at
    -- processed is deliberately excluded: re-fetching a post already
    -- analyzed must not make it eligible for analysis again.
`, p.ID, p.Subreddit, p.Title, p.Body, p.CreatedUTC, p.Score, p.NumComments, p.URL, p.Permalink, comments, now)
		if err != nil {
			return count, fmt.Errorf("UpsertPosts: %w", err)
		}
		count++
	}
	return count, nil
}

func (r *PostRepo) UnprocessedPosts(ctx context.Context, limit int) ([]entity.Post, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, subreddit, title, body, created_utc, score, num_comments, url, permalink, top_comments, fetched_at, processed
FROM posts
WHERE processed = FALSE
ORDER BY score DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("UnprocessedPosts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := make([]entity.Post, 0, limit)
	for rows.Next() {
		var p entity.Post
		var comments []byte
		var body, url, permalink sql.NullString
		if err := rows.Scan(&p.ID, &p.Subreddit, &p.Title, &body, &p.CreatedUTC,
			&p.Score, &p.NumComments, &url, &permalink, &comments, &p.FetchedAt, &p.Processed); err != nil {
			return nil, fmt.Errorf("UnprocessedPosts: scan: %w", err)
		}
		p.Body = body.String
		p.URL = url.String
		p.Permalink = permalink.String
		if len(comments) > 0 {
			if err := json.Unmarshal(comments, &p.TopComments); err != nil {
				return nil, fmt.Errorf("UnprocessedPosts: unmarshal top_comments: %w", err)
			}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepo) MarkProcessed(ctx context.Context, postID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET processed = TRUE WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("MarkProcessed: %w", err)
	}
	return nil
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*entity.Post, error) {
	var p entity.Post
	var comments []byte
	var body, url, permalink sql.NullString
	err := r.db.QueryRowContext(ctx, `
SELECT id, subreddit, title, body, created_utc, score, num_comments, url, permalink, top_comments, fetched_at, processed
FROM posts WHERE id = $1`, postID).
		Scan(&p.ID, &p.Subreddit, &p.Title, &body, &p.CreatedUTC, &p.Score, &p.NumComments,
			&url, &permalink, &comments, &p.FetchedAt, &p.Processed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	p.Body = body.String
	p.URL = url.String
	p.Permalink = permalink.String
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &p.TopComments); err != nil {
			return nil, fmt.Errorf("Get: unmarshal top_comments: %w", err)
		}
	}
	return &p, nil
}
