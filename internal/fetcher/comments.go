package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/albeorla/reddit-pain-radar/internal/resilience/retry"
)

// listingPage is one element of the two-element JSON array Reddit returns
// for a comments page: element 0 is the post listing, element 1 is the
// comment tree. Both share this shape.
type listingPage struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				Body string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// deletedOrRemovedBody marks comment bodies Reddit itself has tombstoned,
// which carry no evidentiary value and are excluded from TopComments.
var deletedOrRemovedBody = map[string]bool{
	"[deleted]": true,
	"[removed]": true,
}

func commentsJSONURL(permalink string) string {
	trimmed := strings.TrimSuffix(permalink, "/")
	return trimmed + "/.json"
}

// FetchMoreComments re-scrapes a single post's comment page, independent
// of any FetchAll run, and returns the slice [startIndex, startIndex+limit)
// of the same filtered comment stream fetchComments draws from — for
// callers that need to read further into a post's comments than the
// initial topComments cap reached (e.g. re-analysis of an already-saved
// post). A startIndex past the end of the stream returns an empty slice,
// not an error.
func (f *Fetcher) FetchMoreComments(ctx context.Context, permalink string, startIndex, limit int) ([]string, error) {
	all, err := f.fetchFilteredComments(ctx, permalink)
	if err != nil {
		return nil, err
	}
	if startIndex < 0 || startIndex >= len(all) {
		return nil, nil
	}
	end := startIndex + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[startIndex:end], nil
}

// fetchComments retrieves up to topComments cleaned, non-tombstoned
// top-level comment bodies for the post at permalink (§4.B point 2).
func (f *Fetcher) fetchComments(ctx context.Context, permalink string, topComments int) ([]string, error) {
	all, err := f.fetchFilteredComments(ctx, permalink)
	if err != nil {
		return nil, err
	}
	if topComments > 0 && len(all) > topComments {
		return all[:topComments], nil
	}
	return all, nil
}

// fetchFilteredComments scrapes a post's comment page once and returns
// every cleaned, non-tombstoned top-level comment body in listing order,
// uncapped. fetchComments and FetchMoreComments each slice the window
// they need from this same stream.
func (f *Fetcher) fetchFilteredComments(ctx context.Context, permalink string) ([]string, error) {
	if err := f.acquire(ctx); err != nil {
		return nil, err
	}
	defer f.release()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := commentsJSONURL(permalink)

	var body []byte
	var accessDenied bool
	err := retry.WithBackoff(ctx, retry.WebScraperConfig(), func() error {
		result, execErr := f.scrapeCB.Execute(func() (interface{}, error) {
			return f.client.Get(ctx, url)
		})
		if execErr != nil {
			if isAccessError(execErr) {
				accessDenied = true
				return nil
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

	var pages []listingPage
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, fmt.Errorf("parse comment page: %w", err)
	}
	if len(pages) < 2 {
		return nil, nil
	}

	var comments []string
	for _, child := range pages[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		if deletedOrRemovedBody[strings.TrimSpace(child.Data.Body)] {
			continue
		}
		cleaned := cleanHTML(child.Data.Body)
		if cleaned == "" {
			continue
		}
		comments = append(comments, cleaned)
	}
	return comments, nil
}
