package entity

import "time"

// Listing is the Reddit listing style a source set fetches from.
type Listing string

const (
	ListingNew    Listing = "new"
	ListingHot    Listing = "hot"
	ListingTop    Listing = "top"
	ListingRising Listing = "rising"
)

// SourceSet is a named, curated bundle of subreddits, either adopted from a
// built-in preset or defined ad hoc.
type SourceSet struct {
	ID            int64
	Name          string
	Description   string
	PresetKey     string
	Subreddits    []string
	Listing       Listing
	LimitPerSub   int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Preset is a built-in SourceSet template, keyed by a short identifier
// (e.g. "indie_saas") and resolved into a concrete SourceSet row the first
// time it is requested.
type Preset struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Subreddits  []string `yaml:"subreddits"`
	Listing     Listing  `yaml:"listing"`
	LimitPerSub int      `yaml:"limit"`
}
