package entity

// ClusterItem is the projection of a signal fed to the Clusterer: just
// enough to group and cite it, never the full record.
type ClusterItem struct {
	SignalID  int64
	Summary   string
	PainPoint string
	Subreddit string
	URL       string
	Quotes    []string
}

// Cluster is a materialized weekly grouping of related pain signals.
type Cluster struct {
	ID              string
	Title           string
	Summary         string
	WeekStart       string // YYYY-MM-DD, the Monday of the clustering window
	TargetAudience  string
	WhyItMatters    string
	SignalIDs       []int64
	Quotes          []string
	URLs            []string
}
