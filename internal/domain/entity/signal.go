package entity

import "strings"

// ExtractionState is the outcome of the analyst's classification pass over
// a post.
type ExtractionState string

const (
	ExtractionStateExtracted      ExtractionState = "extracted"
	ExtractionStateNotExtractable ExtractionState = "not_extractable"
	ExtractionStateDisqualified   ExtractionState = "disqualified"
)

// ExtractionType distinguishes a fully-formed product idea from a raw pain
// point that has not yet been shaped into a solution.
type ExtractionType string

const (
	ExtractionTypeIdea ExtractionType = "idea"
	ExtractionTypePain ExtractionType = "pain"
)

// EvidenceSource is where an evidence quote was lifted from.
type EvidenceSource string

const (
	EvidenceSourcePost    EvidenceSource = "post"
	EvidenceSourceComment EvidenceSource = "comment"
)

// SignalType classifies the kind of claim an evidence quote supports.
type SignalType string

const (
	SignalTypePain               SignalType = "pain"
	SignalTypeWillingnessToPay   SignalType = "willingness_to_pay"
	SignalTypeAlternatives       SignalType = "alternatives"
	SignalTypeUrgency            SignalType = "urgency"
	SignalTypeRepetition         SignalType = "repetition"
	SignalTypeBudget             SignalType = "budget"
)

// DistributionWedge is the analyst's guess at how a product addressing the
// signal could find its first customers.
type DistributionWedge string

const (
	DistributionWedgeEcosystem           DistributionWedge = "ecosystem"
	DistributionWedgePartnerChannel      DistributionWedge = "partner_channel"
	DistributionWedgeSEO                 DistributionWedge = "seo"
	DistributionWedgeInfluencerAffiliate DistributionWedge = "influencer_affiliate"
	DistributionWedgeCommunity           DistributionWedge = "community"
	DistributionWedgeProductLed          DistributionWedge = "product_led"
)

// EvidenceSignal is one attributed quote backing an extraction.
type EvidenceSignal struct {
	Quote        string
	Source       EvidenceSource
	CommentIndex *int
	SignalType   SignalType
}

// CompetitorNote is one entry in a score's competition landscape.
type CompetitorNote struct {
	Category string
	Examples []string
	YourWedge string
}

// Extraction is the non-scoring half of a signal: the state machine
// outcome, the summary, and the supporting evidence.
type Extraction struct {
	ExtractionState       ExtractionState
	ExtractionType        ExtractionType
	SignalSummary         string
	TargetUser            string
	PainPoint             string
	ProposedSolution      string
	Evidence              []EvidenceSignal
	EvidenceStrength      int
	EvidenceStrengthReason string
	RiskFlags             []string
	NotExtractableReason  string
}

// notExtractableSentinelPrefix marks a signal_summary that the dedup pass
// must never treat as a merge candidate or canonical — "no viable idea"
// and its variants, mirroring the sentinel text the analyst emits when it
// cannot extract anything useful.
const notExtractableSentinelPrefix = "no viable"

// IsSentinelSummary reports whether this extraction's summary is the
// analyst's own placeholder text rather than a real signal.
func (e *Extraction) IsSentinelSummary() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(e.SignalSummary)), notExtractableSentinelPrefix)
}

// Score is the five-dimension rubric plus its derived total, present only
// when Extraction.ExtractionState is "extracted".
type Score struct {
	Disqualified        bool
	DisqualifyReasons    []string
	Practicality         int
	Profitability        int
	Distribution         int
	Competition          int
	Moat                 int
	Confidence           float64
	DistributionWedge    DistributionWedge
	DistributionWedgeDetail string
	CompetitionLandscape []CompetitorNote
	Why                  []string
	NextValidationSteps  []string
}

// Total is the derived sum of the five score dimensions. It is never
// stored independently; it is always recomputed from the dimensions so the
// invariant total = sum(dimensions) cannot drift.
func (s *Score) Total() int {
	if s == nil {
		return 0
	}
	return s.Practicality + s.Profitability + s.Distribution + s.Competition + s.Moat
}

// Analysis bundles the analyst's output for one post: an extraction and an
// optional score, present only when the extraction state is "extracted".
type Analysis struct {
	Extraction Extraction
	Score      *Score
}

// Signal is the persisted form of an Analysis, scoped to one (post, run)
// pair.
type Signal struct {
	ID    int64
	PostID string
	RunID  int64

	Extraction Extraction
	Score      *Score

	// RawExtractionJSON and RawScoreJSON are the verbatim LLM response
	// payloads, kept for audit/replay per the persistence invariant that
	// raw extraction and raw score are always stored alongside the
	// structured fields.
	RawExtractionJSON []byte
	RawScoreJSON      []byte

	ClusterID *string
}

// TotalScore derives the persisted total_score column: zero whenever the
// extraction state is not "extracted", regardless of whether a score
// object happens to be present — this is the defensive behavior called
// out for the case where an upstream payload carries a non-nil score on a
// disqualified/not-extractable branch.
func (s *Signal) TotalScore() int {
	if s.Extraction.ExtractionState != ExtractionStateExtracted {
		return 0
	}
	return s.Score.Total()
}

// Qualified reports whether this signal counts toward the "qualified"
// tally: extracted and not disqualified.
func (s *Signal) Qualified() bool {
	if s.Extraction.ExtractionState != ExtractionStateExtracted {
		return false
	}
	return s.Score != nil && !s.Score.Disqualified
}
