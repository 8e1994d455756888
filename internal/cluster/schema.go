package cluster

// schemaName identifies the clusters schema in the OpenAI response_format
// wiring.
const schemaName = "pain_cluster_list"

// responseSchema constrains the model to a {"clusters": [...]} document,
// one entry per Cluster field the store persists.
func responseSchema() map[string]any {
	clusterItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":            map[string]any{"type": "string"},
			"summary":          map[string]any{"type": "string"},
			"target_audience":  map[string]any{"type": "string"},
			"why_it_matters":   map[string]any{"type": "string"},
			"signal_ids":       map[string]any{"type": "array", "items": map[string]any{"type": "integer"}},
			"quotes":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"urls":             map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"title", "summary", "signal_ids"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"clusters": map[string]any{"type": "array", "items": clusterItem},
		},
		"required": []string{"clusters"},
	}
}
