package analyst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

const extractedJSON = `{
  "extraction": {
    "extraction_state": "extracted",
    "extraction_type": "idea",
    "signal_summary": "Invoice reconciliation tool for freelancers",
    "target_user": "freelance consultants",
    "pain_point": "manual invoice matching takes hours",
    "proposed_solution": "automated reconciliation against bank feeds",
    "evidence": [
      {"quote": "I'd pay $50/mo for this", "source": "comment", "comment_index": 0, "signal_type": "willingness_to_pay"}
    ],
    "evidence_strength": 7,
    "evidence_strength_reason": "explicit willingness to pay",
    "risk_flags": []
  },
  "score": {
    "disqualified": false,
    "disqualify_reasons": [],
    "practicality": 7,
    "profitability": 6,
    "distribution": 5,
    "competition": 4,
    "moat": 3,
    "confidence": 0.7,
    "distribution_wedge": "community",
    "distribution_wedge_detail": "indie hacker communities",
    "competition_landscape": [
      {"category": "invoicing SaaS", "examples": ["FreshBooks"], "your_wedge": "narrower niche focus"}
    ],
    "why": ["clear budget signal"],
    "next_validation_steps": ["build a landing page"]
  }
}`

const notExtractableJSON = `{
  "extraction": {
    "extraction_state": "not_extractable",
    "signal_summary": "no viable idea in this thread",
    "evidence": [],
    "evidence_strength": 0,
    "risk_flags": [],
    "not_extractable_reason": "pure meta discussion"
  }
}`

func TestDecodeAndValidate_ExtractedWithScore(t *testing.T) {
	payload, err := decodeAndValidate([]byte(extractedJSON))
	require.NoError(t, err)

	analysis := payload.toAnalysis()
	assert.Equal(t, entity.ExtractionStateExtracted, analysis.Extraction.ExtractionState)
	assert.Equal(t, "manual invoice matching takes hours", analysis.Extraction.PainPoint)
	require.Len(t, analysis.Extraction.Evidence, 1)
	assert.Equal(t, entity.SignalTypeWillingnessToPay, analysis.Extraction.Evidence[0].SignalType)
	require.NotNil(t, analysis.Score)
	assert.Equal(t, 25, analysis.Score.Total())
	assert.Equal(t, entity.DistributionWedgeCommunity, analysis.Score.DistributionWedge)
}

func TestDecodeAndValidate_NotExtractableHasNoScore(t *testing.T) {
	payload, err := decodeAndValidate([]byte(notExtractableJSON))
	require.NoError(t, err)

	analysis := payload.toAnalysis()
	assert.Equal(t, entity.ExtractionStateNotExtractable, analysis.Extraction.ExtractionState)
	assert.Nil(t, analysis.Score)
	assert.True(t, analysis.Extraction.IsSentinelSummary())
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	_, err := decodeAndValidate([]byte(`{not json`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrSchemaValidation))
}

func TestDecodeAndValidate_OutOfRangeDimensionIsRejected(t *testing.T) {
	badJSON := `{
		"extraction": {"extraction_state": "extracted", "evidence": [], "evidence_strength": 5},
		"score": {"practicality": 11, "profitability": 5, "distribution": 5, "competition": 5, "moat": 5, "confidence": 0.5, "distribution_wedge": "seo"}
	}`
	_, err := decodeAndValidate([]byte(badJSON))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrSchemaValidation))
}

func TestDecodeAndValidate_ExtractedWithoutScoreIsRejected(t *testing.T) {
	badJSON := `{"extraction": {"extraction_state": "extracted", "evidence": [], "evidence_strength": 5}}`
	_, err := decodeAndValidate([]byte(badJSON))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrSchemaValidation))
}

func TestDecodeAndValidate_InvalidEnumIsRejected(t *testing.T) {
	badJSON := `{"extraction": {"extraction_state": "maybe", "evidence": [], "evidence_strength": 5}}`
	_, err := decodeAndValidate([]byte(badJSON))
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrSchemaValidation))
}
