package analyst

// responseSchema is the JSON schema the provider is asked to constrain its
// output to. It is shared by both backends: OpenAI takes it as a
// response_format JSON schema, Claude takes it as a forced tool's
// input_schema — the wire shape (and the analysisPayload struct that
// decodes it) is identical either way.
func responseSchema() map[string]any {
	evidenceItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quote":         map[string]any{"type": "string"},
			"source":        map[string]any{"type": "string", "enum": []string{"post", "comment"}},
			"comment_index": map[string]any{"type": []string{"integer", "null"}},
			"signal_type": map[string]any{
				"type": "string",
				"enum": []string{"pain", "willingness_to_pay", "alternatives", "urgency", "repetition", "budget"},
			},
		},
		"required": []string{"quote", "source", "signal_type"},
	}

	extraction := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"extraction_state": map[string]any{
				"type": "string",
				"enum": []string{"extracted", "not_extractable", "disqualified"},
			},
			"extraction_type":          map[string]any{"type": "string", "enum": []string{"idea", "pain"}},
			"signal_summary":           map[string]any{"type": "string"},
			"target_user":              map[string]any{"type": "string"},
			"pain_point":               map[string]any{"type": "string"},
			"proposed_solution":        map[string]any{"type": "string"},
			"evidence":                 map[string]any{"type": "array", "items": evidenceItem},
			"evidence_strength":        map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"evidence_strength_reason": map[string]any{"type": "string"},
			"risk_flags":               map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"not_extractable_reason":   map[string]any{"type": "string"},
		},
		"required": []string{"extraction_state", "evidence_strength"},
	}

	competitor := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":   map[string]any{"type": "string"},
			"examples":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"your_wedge": map[string]any{"type": "string"},
		},
		"required": []string{"category", "your_wedge"},
	}

	score := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"disqualified":         map[string]any{"type": "boolean"},
			"disqualify_reasons":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"practicality":         map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"profitability":        map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"distribution":         map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"competition":          map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"moat":                 map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"confidence":           map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"distribution_wedge": map[string]any{
				"type": "string",
				"enum": []string{"ecosystem", "partner_channel", "seo", "influencer_affiliate", "community", "product_led"},
			},
			"distribution_wedge_detail": map[string]any{"type": "string"},
			"competition_landscape":     map[string]any{"type": "array", "items": competitor},
			"why":                       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"next_validation_steps":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []string{"practicality", "profitability", "distribution", "competition", "moat", "confidence", "distribution_wedge"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"extraction": extraction,
			"score":      score,
		},
		"required": []string{"extraction"},
	}
}

// schemaName identifies the schema in both providers' structured-output
// wiring (OpenAI's response_format.json_schema.name, Claude's tool name).
const schemaName = "pain_signal_analysis"
