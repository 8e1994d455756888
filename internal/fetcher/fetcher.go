// Package fetcher implements the Source Fetcher: bounded-concurrency RSS
// listing and per-post JSON comment scraping against Reddit's public,
// unauthenticated endpoints, with rate-limit-aware backoff and strict
// per-subreddit failure isolation.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/observability/metrics"
	"github.com/albeorla/reddit-pain-radar/internal/observability/tracing"
	"github.com/albeorla/reddit-pain-radar/internal/resilience/circuitbreaker"
	"github.com/albeorla/reddit-pain-radar/internal/resilience/retry"
	"github.com/albeorla/reddit-pain-radar/internal/transport"
)

// DefaultBaseURL is Reddit's public, unauthenticated surface. No API key
// is used or required by any request this package issues.
const DefaultBaseURL = "https://www.reddit.com"

// politeDelay is the courtesy pause taken between successive per-post
// comment-page requests, held while the shared semaphore slot is still
// occupied — the delay itself is part of what limits the request rate,
// not an afterthought applied once the slot is released.
const politeDelay = 500 * time.Millisecond

// Config configures a Fetcher instance.
type Config struct {
	BaseURL     string
	UserAgent   string
	Concurrency int
}

// DefaultConfig returns sane defaults: Reddit's public base URL and a
// concurrency of 8, matching the Orchestrator's default semaphore size.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		UserAgent:   "",
		Concurrency: 8,
	}
}

// Fetcher is the Source Fetcher component (spec §4.B).
type Fetcher struct {
	client   *transport.Client
	cfg      Config
	sem      chan struct{}
	limiter  *rate.Limiter
	fetchCB  *circuitbreaker.CircuitBreaker
	scrapeCB *circuitbreaker.CircuitBreaker
}

// New constructs a Fetcher. One instance is shared across a full pipeline
// run; its semaphore is the "Source Fetcher semaphore" of the concurrency
// model (§5).
func New(cfg Config) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	tcfg := transport.DefaultConfig()
	if cfg.UserAgent != "" {
		tcfg.UserAgent = cfg.UserAgent
	}
	return &Fetcher{
		client:   transport.New(tcfg),
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
		limiter:  rate.NewLimiter(rate.Every(politeDelay), 1),
		fetchCB:  circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		scrapeCB: circuitbreaker.New(circuitbreaker.WebScraperConfig()),
	}
}

func (f *Fetcher) acquire(ctx context.Context) error {
	select {
	case f.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) release() { <-f.sem }

// FetchAll fetches posts for every subreddit in subreddits, preserving
// subreddit input order in the concatenated result and listing order
// within each subreddit. A subreddit that fails after retries contributes
// no posts but does not fail the call (§4.B point 3).
func (f *Fetcher) FetchAll(ctx context.Context, subreddits []string, listing entity.Listing, limit, topComments int) ([]entity.Post, error) {
	results := make([][]entity.Post, len(subreddits))

	g, gctx := errgroup.WithContext(ctx)
	for i, sr := range subreddits {
		i, sr := i, sr
		g.Go(func() error {
			posts, err := f.fetchSubreddit(gctx, sr, listing, limit, topComments)
			if err != nil {
				slog.Warn("subreddit fetch failed, yielding empty result",
					slog.String("subreddit", sr), slog.Any("error", err))
				results[i] = nil
				return nil
			}
			results[i] = posts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []entity.Post
	for _, posts := range results {
		all = append(all, posts...)
	}
	return all, nil
}

func (f *Fetcher) fetchSubreddit(ctx context.Context, subreddit string, listing entity.Listing, limit, topComments int) ([]entity.Post, error) {
	if limit == 0 {
		return nil, nil
	}

	ctx, span := tracing.StartSubredditFetch(ctx, subreddit)
	start := time.Now()
	var fetchErr error
	defer func() {
		tracing.EndWithError(span, fetchErr)
	}()

	entries, err := f.fetchListingRSS(ctx, f.listingURL(subreddit, listing))
	if err != nil {
		fetchErr = err
		metrics.RecordSubredditFetchError(subreddit, errorType(err))
		return nil, err
	}

	posts := make([]entity.Post, 0, len(entries))
	for _, e := range entries {
		posts = append(posts, e.toPost(subreddit))
		if len(posts) >= limit {
			break
		}
	}

	if topComments > 0 {
		for i := range posts {
			comments, err := f.fetchComments(ctx, posts[i].Permalink, topComments)
			if err != nil {
				slog.Warn("comment scrape failed, post kept without comments",
					slog.String("post_id", posts[i].ID), slog.Any("error", err))
				continue
			}
			posts[i].TopComments = comments
		}
	}

	metrics.RecordSubredditFetch(subreddit, time.Since(start), len(posts))
	return posts, nil
}

// errorType classifies err for the subreddit_fetch_errors_total label,
// distinguishing access-denied/rate-limit responses from transport-level
// failures without exposing raw error text as a label value.
func errorType(err error) string {
	var rle *entity.RateLimitError
	if errors.As(err, &rle) {
		return "rate_limited"
	}
	var e *entity.HTTPError
	if errors.As(err, &e) {
		if e.StatusCode == 403 || e.StatusCode == 404 {
			return "access_denied"
		}
		return "http_error"
	}
	return "transport_error"
}

// listingEntry is the parsed-but-not-yet-a-Post form of one RSS entry.
type listingEntry struct {
	id          string
	title       string
	body        string
	url         string
	permalink   string
	publishedAt time.Time
}

func (e listingEntry) toPost(subreddit string) entity.Post {
	return entity.Post{
		ID:         e.id,
		Subreddit:  subreddit,
		Title:      e.title,
		Body:       e.body,
		CreatedUTC: e.publishedAt,
		URL:        e.url,
		Permalink:  e.permalink,
		FetchedAt:  time.Now(),
	}
}

func (f *Fetcher) listingURL(subreddit string, listing entity.Listing) string {
	return fmt.Sprintf("%s/r/%s/%s.rss", f.cfg.BaseURL, subreddit, listing)
}

func (f *Fetcher) searchURL(subreddit, query string) string {
	return fmt.Sprintf("%s/r/%s/search.rss?q=%s&restrict_sr=on&sort=relevance", f.cfg.BaseURL, subreddit, query)
}

// SearchRelatedPosts hits the subreddit search RSS endpoint and parses it
// identically to the listing path (§4.B).
func (f *Fetcher) SearchRelatedPosts(ctx context.Context, subreddit, query string, limit int) ([]entity.Post, error) {
	entries, err := f.fetchListingRSS(ctx, f.searchURL(subreddit, query))
	if err != nil {
		return nil, err
	}
	posts := make([]entity.Post, 0, limit)
	for _, e := range entries {
		posts = append(posts, e.toPost(subreddit))
		if len(posts) >= limit {
			break
		}
	}
	return posts, nil
}

func (f *Fetcher) fetchListingRSS(ctx context.Context, url string) ([]listingEntry, error) {
	if err := f.acquire(ctx); err != nil {
		return nil, err
	}
	defer f.release()

	var body []byte
	var accessDenied bool
	err := retry.WithBackoff(ctx, retry.FeedFetchConfig(), func() error {
		result, execErr := f.fetchCB.Execute(func() (interface{}, error) {
			return f.client.Get(ctx, url)
		})
		if execErr != nil {
			if isAccessError(execErr) {
				accessDenied = true
				return nil
			}
			if rle, ok := execErr.(*entity.RateLimitError); ok && rle.RetryAfter != nil {
				if sleepErr := retry.AdaptiveSleep(ctx, *rle.RetryAfter); sleepErr != nil {
					return sleepErr
				}
			}
			return execErr
		}
		body = result.([]byte)
		return nil
	})
	if accessDenied {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		slog.Warn("failed to parse feed, skipping", slog.String("url", url), slog.Any("error", err))
		return nil, nil
	}

	entries := make([]listingEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		id, ok := extractPostID(item.Link)
		if !ok {
			continue
		}
		body := item.Description
		if item.Content != "" {
			body = item.Content
		}
		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		}
		entries = append(entries, listingEntry{
			id:          id,
			title:       item.Title,
			body:        cleanHTML(body),
			url:         item.Link,
			permalink:   item.Link,
			publishedAt: publishedAt,
		})
	}
	return entries, nil
}

func isAccessError(err error) bool {
	var httpErr *entity.HTTPError
	if e, ok := err.(*entity.HTTPError); ok {
		httpErr = e
	} else if rle, ok := err.(*entity.RateLimitError); ok {
		httpErr = &rle.HTTPError
	} else {
		return false
	}
	return httpErr.StatusCode == 403 || httpErr.StatusCode == 404
}
