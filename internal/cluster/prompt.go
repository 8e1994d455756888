// Package cluster groups a week's unclustered pain signals into named Pain
// Clusters via a single structured LLM call, failing soft (empty list) on
// any error since clustering is an enrichment pass, never required for a
// run to succeed.
package cluster

import (
	"encoding/json"
	"fmt"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

// systemPrompt asks the model to find recurring pain patterns across a
// batch of already-extracted signals and name each one as a digest-ready
// cluster.
const systemPrompt = `You group related product pain signals into named clusters for a weekly digest.

Each input item is one previously extracted signal: an id, a one-line summary,
a pain point, the subreddit it came from, and 1-3 verbatim quotes.

Group items that describe the SAME underlying problem, even if phrased
differently or coming from different subreddits. Items that don't share a
clear pattern with anything else should form their own single-item cluster,
or be left out if the signal is too thin to summarize on its own.

For each cluster, produce:
- title: a short, catchy name for the pattern
- summary: one sentence describing the pattern
- target_audience: who is affected
- why_it_matters: why this looks like a worthwhile opportunity
- signal_ids: the input ids belonging to this cluster
- quotes: the 2-3 best verbatim quotes illustrating the pain (drawn only from the input quotes)
- urls: the source thread URLs for this cluster's signals

Only use ids, quotes, and urls that appear in the input. Never invent a signal.`

// userTemplate embeds the JSON-serialized batch of items to cluster.
const userTemplate = `ITEMS TO CLUSTER (JSON)
%s

Group these into pain clusters following the system instructions. If no
clear pattern exists across any items, return an empty clusters list.`

// clusterItemPayload is what gets serialized into the user message — a
// deliberately thin projection, mirroring the source's items_data shape.
type clusterItemPayload struct {
	ID        int64    `json:"id"`
	Summary   string   `json:"summary"`
	PainPoint string   `json:"pain_point"`
	Subreddit string   `json:"subreddit"`
	Quotes    []string `json:"quotes"`
}

// buildUserPrompt renders the items-to-cluster JSON block into the user
// message template.
func buildUserPrompt(items []entity.ClusterItem) (string, error) {
	payload := make([]clusterItemPayload, 0, len(items))
	for _, item := range items {
		payload = append(payload, clusterItemPayload{
			ID:        item.SignalID,
			Summary:   item.Summary,
			PainPoint: item.PainPoint,
			Subreddit: item.Subreddit,
			Quotes:    item.Quotes,
		})
	}

	itemsJSON, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cluster items: %w", err)
	}
	return fmt.Sprintf(userTemplate, string(itemsJSON)), nil
}
