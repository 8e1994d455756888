package analyst

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

// validate is a package-level validator instance; validator.Validate is
// safe for concurrent use once built, so one instance is shared by both
// backends.
var validate = validator.New()

// evidencePayload mirrors one evidence entry in the LLM response.
type evidencePayload struct {
	Quote        string `json:"quote" validate:"required"`
	Source       string `json:"source" validate:"required,oneof=post comment"`
	CommentIndex *int   `json:"comment_index,omitempty"`
	SignalType   string `json:"signal_type" validate:"required,oneof=pain willingness_to_pay alternatives urgency repetition budget"`
}

// extractionPayload mirrors the "extraction" object of the response.
type extractionPayload struct {
	ExtractionState        string            `json:"extraction_state" validate:"required,oneof=extracted not_extractable disqualified"`
	ExtractionType          string            `json:"extraction_type,omitempty" validate:"omitempty,oneof=idea pain"`
	SignalSummary           string            `json:"signal_summary" validate:"required"`
	TargetUser              string            `json:"target_user"`
	PainPoint               string            `json:"pain_point"`
	ProposedSolution        string            `json:"proposed_solution"`
	Evidence                []evidencePayload `json:"evidence" validate:"dive"`
	EvidenceStrength        int               `json:"evidence_strength" validate:"gte=0,lte=10"`
	EvidenceStrengthReason  string            `json:"evidence_strength_reason"`
	RiskFlags               []string          `json:"risk_flags"`
	NotExtractableReason    string            `json:"not_extractable_reason,omitempty"`
}

// competitorPayload mirrors one competition_landscape entry.
type competitorPayload struct {
	Category  string   `json:"category" validate:"required"`
	Examples  []string `json:"examples"`
	YourWedge string   `json:"your_wedge" validate:"required"`
}

// scorePayload mirrors the "score" object, present only when
// extraction_state is "extracted".
type scorePayload struct {
	Disqualified            bool                `json:"disqualified"`
	DisqualifyReasons       []string            `json:"disqualify_reasons"`
	Practicality            int                 `json:"practicality" validate:"gte=0,lte=10"`
	Profitability           int                 `json:"profitability" validate:"gte=0,lte=10"`
	Distribution            int                 `json:"distribution" validate:"gte=0,lte=10"`
	Competition             int                 `json:"competition" validate:"gte=0,lte=10"`
	Moat                    int                 `json:"moat" validate:"gte=0,lte=10"`
	Confidence              float64             `json:"confidence" validate:"gte=0,lte=1"`
	DistributionWedge       string              `json:"distribution_wedge" validate:"required,oneof=ecosystem partner_channel seo influencer_affiliate community product_led"`
	DistributionWedgeDetail string              `json:"distribution_wedge_detail"`
	CompetitionLandscape    []competitorPayload `json:"competition_landscape" validate:"dive"`
	Why                     []string            `json:"why"`
	NextValidationSteps     []string            `json:"next_validation_steps"`
}

// analysisPayload is the full shape the LLM is asked to return: an
// extraction and an optional score, gated by extraction_state.
type analysisPayload struct {
	Extraction extractionPayload `json:"extraction" validate:"required"`
	Score      *scorePayload     `json:"score,omitempty"`
}

// decodeAndValidate is the analyst's two-stage gate: json.Unmarshal (the
// provider's schema-constrained output is expected to already be valid
// JSON, but is never trusted blind) followed by struct-level field
// validation. Either failure is wrapped as entity.ErrSchemaValidation so
// callers cannot distinguish a malformed document from one that merely
// violates a field constraint — both are rejected the same way, never
// clamped or repaired.
func decodeAndValidate(raw []byte) (analysisPayload, error) {
	var payload analysisPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return analysisPayload{}, fmt.Errorf("%w: %v", entity.ErrSchemaValidation, err)
	}
	if err := validate.Struct(payload); err != nil {
		return analysisPayload{}, fmt.Errorf("%w: %v", entity.ErrSchemaValidation, err)
	}
	if payload.Extraction.ExtractionState == string(entity.ExtractionStateExtracted) && payload.Score == nil {
		return analysisPayload{}, fmt.Errorf("%w: extracted state requires a score", entity.ErrSchemaValidation)
	}
	return payload, nil
}

// toAnalysis converts a validated wire payload into the domain Analysis.
func (p analysisPayload) toAnalysis() entity.Analysis {
	evidence := make([]entity.EvidenceSignal, 0, len(p.Extraction.Evidence))
	for _, e := range p.Extraction.Evidence {
		evidence = append(evidence, entity.EvidenceSignal{
			Quote:        e.Quote,
			Source:       entity.EvidenceSource(e.Source),
			CommentIndex: e.CommentIndex,
			SignalType:   entity.SignalType(e.SignalType),
		})
	}

	analysis := entity.Analysis{
		Extraction: entity.Extraction{
			ExtractionState:        entity.ExtractionState(p.Extraction.ExtractionState),
			ExtractionType:         entity.ExtractionType(p.Extraction.ExtractionType),
			SignalSummary:          p.Extraction.SignalSummary,
			TargetUser:             p.Extraction.TargetUser,
			PainPoint:              p.Extraction.PainPoint,
			ProposedSolution:       p.Extraction.ProposedSolution,
			Evidence:               evidence,
			EvidenceStrength:       p.Extraction.EvidenceStrength,
			EvidenceStrengthReason: p.Extraction.EvidenceStrengthReason,
			RiskFlags:              p.Extraction.RiskFlags,
			NotExtractableReason:   p.Extraction.NotExtractableReason,
		},
	}

	if p.Score != nil {
		landscape := make([]entity.CompetitorNote, 0, len(p.Score.CompetitionLandscape))
		for _, c := range p.Score.CompetitionLandscape {
			landscape = append(landscape, entity.CompetitorNote{
				Category:  c.Category,
				Examples:  c.Examples,
				YourWedge: c.YourWedge,
			})
		}
		analysis.Score = &entity.Score{
			Disqualified:            p.Score.Disqualified,
			DisqualifyReasons:       p.Score.DisqualifyReasons,
			Practicality:            p.Score.Practicality,
			Profitability:           p.Score.Profitability,
			Distribution:            p.Score.Distribution,
			Competition:             p.Score.Competition,
			Moat:                    p.Score.Moat,
			Confidence:              p.Score.Confidence,
			DistributionWedge:       entity.DistributionWedge(p.Score.DistributionWedge),
			DistributionWedgeDetail: p.Score.DistributionWedgeDetail,
			CompetitionLandscape:    landscape,
			Why:                     p.Score.Why,
			NextValidationSteps:     p.Score.NextValidationSteps,
		}
	}

	return analysis
}
