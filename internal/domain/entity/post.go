// Package entity defines the core domain entities and validation logic for
// the pain radar pipeline: posts scraped from source communities, pipeline
// runs, the analyst's structured signals, source sets, clusters, and
// watchlists.
package entity

import "time"

// Post is an immutable snapshot of a scraped discussion thread, keyed by
// its stable external id (e.g. a Reddit fullname such as "t3_12345").
type Post struct {
	ID           string
	Subreddit    string
	Title        string
	Body         string
	CreatedUTC   time.Time
	Score        int
	NumComments  int
	URL          string
	Permalink    string
	TopComments  []string
	FetchedAt    time.Time
	Processed    bool
}

// Processable reports whether the post still needs an analysis pass in
// this run. Re-fetching a post never flips this back to false; only
// saving a signal for it does.
func (p *Post) Processable() bool {
	return !p.Processed
}
