package cluster

import (
	"encoding/json"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

// clustersPayload is the top-level {"clusters": [...]} response shape.
type clustersPayload struct {
	Clusters []clusterPayload `json:"clusters"`
}

type clusterPayload struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	TargetAudience string   `json:"target_audience"`
	WhyItMatters   string   `json:"why_it_matters"`
	SignalIDs      []int64  `json:"signal_ids"`
	Quotes         []string `json:"quotes"`
	URLs           []string `json:"urls"`
}

// parseClusters decodes the raw response and drops any cluster with no
// title or no member signals rather than failing the whole batch — a
// partially-malformed digest is better than none, and clustering is
// already a best-effort enrichment pass.
func parseClusters(raw []byte) []entity.Cluster {
	var payload clustersPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}

	out := make([]entity.Cluster, 0, len(payload.Clusters))
	for _, c := range payload.Clusters {
		if c.Title == "" || len(c.SignalIDs) == 0 {
			continue
		}
		out = append(out, entity.Cluster{
			Title:          c.Title,
			Summary:        c.Summary,
			TargetAudience: c.TargetAudience,
			WhyItMatters:   c.WhyItMatters,
			SignalIDs:      c.SignalIDs,
			Quotes:         c.Quotes,
			URLs:           c.URLs,
		})
	}
	return out
}
