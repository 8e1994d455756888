package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

type SignalRepo struct{ db *sql.DB }

func NewSignalRepo(db *sql.DB) store.SignalRepository {
	return &SignalRepo{db: db}
}

func marshalOrEmpty(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SaveSignal inserts one signal row and marks the source post processed in
// a single transaction, so a crash between the two can never leave a post
// wrongly marked processed without a saved signal, or vice versa.
func (r *SignalRepo) SaveSignal(ctx context.Context, postID string, runID *int64, analysis entity.Analysis) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("SaveSignal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ext := analysis.Extraction
	evidenceJSON, err := marshalOrEmpty(ext.Evidence)
	if err != nil {
		return 0, fmt.Errorf("SaveSignal: marshal evidence: %w", err)
	}
	riskFlagsJSON, err := marshalOrEmpty(ext.RiskFlags)
	if err != nil {
		return 0, fmt.Errorf("SaveSignal: marshal risk_flags: %w", err)
	}
	rawExtractionJSON, err := json.Marshal(ext)
	if err != nil {
		return 0, fmt.Errorf("SaveSignal: marshal raw extraction: %w", err)
	}

	var disqualified bool
	var disqualifyReasonsJSON, competitionLandscapeJSON, whyJSON, nextStepsJSON []byte
	var practicality, profitability, distribution, competition, moat, totalScore sql.NullInt64
	var confidence sql.NullFloat64
	var distributionWedge, distributionWedgeDetail sql.NullString
	var rawScoreJSON []byte

	if analysis.Score != nil {
		s := analysis.Score
		disqualified = s.Disqualified
		if disqualifyReasonsJSON, err = marshalOrEmpty(s.DisqualifyReasons); err != nil {
			return 0, fmt.Errorf("SaveSignal: marshal disqualify_reasons: %w", err)
		}
		if competitionLandscapeJSON, err = marshalOrEmpty(s.CompetitionLandscape); err != nil {
			return 0, fmt.Errorf("SaveSignal: marshal competition_landscape: %w", err)
		}
		if whyJSON, err = marshalOrEmpty(s.Why); err != nil {
			return 0, fmt.Errorf("SaveSignal: marshal why: %w", err)
		}
		if nextStepsJSON, err = marshalOrEmpty(s.NextValidationSteps); err != nil {
			return 0, fmt.Errorf("SaveSignal: marshal next_validation_steps: %w", err)
		}
		practicality = sql.NullInt64{Int64: int64(s.Practicality), Valid: true}
		profitability = sql.NullInt64{Int64: int64(s.Profitability), Valid: true}
		distribution = sql.NullInt64{Int64: int64(s.Distribution), Valid: true}
		competition = sql.NullInt64{Int64: int64(s.Competition), Valid: true}
		moat = sql.NullInt64{Int64: int64(s.Moat), Valid: true}
		totalScore = sql.NullInt64{Int64: int64(s.Total()), Valid: true}
		confidence = sql.NullFloat64{Float64: s.Confidence, Valid: true}
		distributionWedge = sql.NullString{String: string(s.DistributionWedge), Valid: s.DistributionWedge != ""}
		distributionWedgeDetail = sql.NullString{String: s.DistributionWedgeDetail, Valid: s.DistributionWedgeDetail != ""}
		if rawScoreJSON, err = json.Marshal(s); err != nil {
			return 0, fmt.Errorf("SaveSignal: marshal raw score: %w", err)
		}
	} else {
		disqualifyReasonsJSON = []byte("[]")
		competitionLandscapeJSON = []byte("[]")
		whyJSON = []byte("[]")
		nextStepsJSON = []byte("[]")
		totalScore = sql.NullInt64{Int64: 0, Valid: true}
		rawScoreJSON = []byte("{}")
	}

	var runIDArg interface{}
	if runID != nil {
		runIDArg = *runID
	}

	var signalID int64
	err = tx.QueryRowContext(ctx, `
INSERT INTO signals (
    post_id, run_id, extraction_state, not_extractable_reason,
    signal_summary, target_user, pain_point, proposed_solution,
    evidence, evidence_strength, evidence_strength_reason, risk_flags,
    disqualified, disqualify_reasons, practicality, profitability,
    distribution, competition, moat, total_score, confidence,
    distribution_wedge, distribution_wedge_detail, competition_landscape,
    why, next_validation_steps, raw_extraction, raw_score
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
    $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
) RETURNING id`,
		postID, runIDArg, string(ext.ExtractionState), nullIfEmpty(ext.NotExtractableReason),
		ext.SignalSummary, nullIfEmpty(ext.TargetUser), nullIfEmpty(ext.PainPoint), nullIfEmpty(ext.ProposedSolution),
		evidenceJSON, ext.EvidenceStrength, nullIfEmpty(ext.EvidenceStrengthReason), riskFlagsJSON,
		disqualified, disqualifyReasonsJSON, practicality, profitability,
		distribution, competition, moat, totalScore, confidence,
		distributionWedge, distributionWedgeDetail, competitionLandscapeJSON,
		whyJSON, nextStepsJSON, rawExtractionJSON, rawScoreJSON,
	).Scan(&signalID)
	if err != nil {
		return 0, fmt.Errorf("SaveSignal: insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE posts SET processed = TRUE WHERE id = $1`, postID); err != nil {
		return 0, fmt.Errorf("SaveSignal: mark processed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("SaveSignal: commit: %w", err)
	}
	return signalID, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const signalColumns = `
id, post_id, run_id, cluster_id, extraction_state, not_extractable_reason,
signal_summary, target_user, pain_point, proposed_solution, evidence,
evidence_strength, evidence_strength_reason, risk_flags, disqualified,
disqualify_reasons, practicality, profitability, distribution, competition,
moat, confidence, distribution_wedge, distribution_wedge_detail,
competition_landscape, why, next_validation_steps, raw_extraction, raw_score`

const signalColumnsAliased = `
s.id, s.post_id, s.run_id, s.cluster_id, s.extraction_state, s.not_extractable_reason,
s.signal_summary, s.target_user, s.pain_point, s.proposed_solution, s.evidence,
s.evidence_strength, s.evidence_strength_reason, s.risk_flags, s.disqualified,
s.disqualify_reasons, s.practicality, s.profitability, s.distribution, s.competition,
s.moat, s.confidence, s.distribution_wedge, s.distribution_wedge_detail,
s.competition_landscape, s.why, s.next_validation_steps, s.raw_extraction, s.raw_score`

func scanSignal(scan func(dest ...interface{}) error) (entity.Signal, error) {
	var sig entity.Signal
	var runID sql.NullInt64
	var clusterID, notExtractableReason, targetUser, painPoint, proposedSolution sql.NullString
	var evidenceStrengthReason, distributionWedge, distributionWedgeDetail sql.NullString
	var evidenceJSON, riskFlagsJSON, disqualifyReasonsJSON, competitionLandscapeJSON []byte
	var whyJSON, nextStepsJSON, rawExtractionJSON, rawScoreJSON []byte
	var practicality, profitability, distribution, competition, moat sql.NullInt64
	var confidence sql.NullFloat64
	var disqualified bool
	var extractionState string

	err := scan(&sig.ID, &sig.PostID, &runID, &clusterID, &extractionState, &notExtractableReason,
		&sig.Extraction.SignalSummary, &targetUser, &painPoint, &proposedSolution, &evidenceJSON,
		&sig.Extraction.EvidenceStrength, &evidenceStrengthReason, &riskFlagsJSON, &disqualified,
		&disqualifyReasonsJSON, &practicality, &profitability, &distribution, &competition,
		&moat, &confidence, &distributionWedge, &distributionWedgeDetail,
		&competitionLandscapeJSON, &whyJSON, &nextStepsJSON, &rawExtractionJSON, &rawScoreJSON)
	if err != nil {
		return sig, err
	}

	sig.Extraction.ExtractionState = entity.ExtractionState(extractionState)
	sig.Extraction.NotExtractableReason = notExtractableReason.String
	sig.Extraction.TargetUser = targetUser.String
	sig.Extraction.PainPoint = painPoint.String
	sig.Extraction.ProposedSolution = proposedSolution.String
	sig.Extraction.EvidenceStrengthReason = evidenceStrengthReason.String
	if runID.Valid {
		sig.RunID = runID.Int64
	}
	if clusterID.Valid {
		id := clusterID.String
		sig.ClusterID = &id
	}
	if len(evidenceJSON) > 0 {
		_ = json.Unmarshal(evidenceJSON, &sig.Extraction.Evidence)
	}
	if len(riskFlagsJSON) > 0 {
		_ = json.Unmarshal(riskFlagsJSON, &sig.Extraction.RiskFlags)
	}
	sig.RawExtractionJSON = rawExtractionJSON
	sig.RawScoreJSON = rawScoreJSON

	if sig.Extraction.ExtractionState == entity.ExtractionStateExtracted {
		score := &entity.Score{
			Disqualified:            disqualified,
			Practicality:             int(practicality.Int64),
			Profitability:            int(profitability.Int64),
			Distribution:             int(distribution.Int64),
			Competition:              int(competition.Int64),
			Moat:                     int(moat.Int64),
			Confidence:               confidence.Float64,
			DistributionWedge:        entity.DistributionWedge(distributionWedge.String),
			DistributionWedgeDetail:  distributionWedgeDetail.String,
		}
		if len(disqualifyReasonsJSON) > 0 {
			_ = json.Unmarshal(disqualifyReasonsJSON, &score.DisqualifyReasons)
		}
		if len(competitionLandscapeJSON) > 0 {
			_ = json.Unmarshal(competitionLandscapeJSON, &score.CompetitionLandscape)
		}
		if len(whyJSON) > 0 {
			_ = json.Unmarshal(whyJSON, &score.Why)
		}
		if len(nextStepsJSON) > 0 {
			_ = json.Unmarshal(nextStepsJSON, &score.NextValidationSteps)
		}
		sig.Score = score
	}

	return sig, nil
}

func (r *SignalRepo) TopSignals(ctx context.Context, limit int, includeDisqualified bool) ([]entity.Signal, error) {
	query := `SELECT ` + signalColumnsAliased + ` FROM signals s JOIN posts p ON s.post_id = p.id`
	if !includeDisqualified {
		query += ` WHERE s.disqualified = FALSE`
	}
	query += ` ORDER BY s.total_score DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("TopSignals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var signals []entity.Signal
	for rows.Next() {
		sig, err := scanSignal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("TopSignals: scan: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func (r *SignalRepo) Get(ctx context.Context, signalID int64) (*entity.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE id = $1`
	sig, err := scanSignal(r.db.QueryRowContext(ctx, query, signalID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &sig, nil
}

func (r *SignalRepo) ForRun(ctx context.Context, runID int64) ([]entity.Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE run_id = $1`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("ForRun: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var signals []entity.Signal
	for rows.Next() {
		sig, err := scanSignal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ForRun: scan: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func (r *SignalRepo) UnclusteredPainPoints(ctx context.Context, subreddit string, days int) ([]entity.ClusterItem, error) {
	query := `
SELECT s.id, s.signal_summary, s.pain_point, s.evidence, p.subreddit, p.url
FROM signals s
JOIN posts p ON s.post_id = p.id
WHERE s.cluster_id IS NULL
  AND s.disqualified = FALSE
  AND s.created_at > $1`
	args := []interface{}{time.Now().UTC().AddDate(0, 0, -days)}
	if subreddit != "" {
		query += ` AND p.subreddit = $2`
		args = append(args, subreddit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("UnclusteredPainPoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []entity.ClusterItem
	for rows.Next() {
		var item entity.ClusterItem
		var painPoint, url sql.NullString
		var evidenceJSON []byte
		if err := rows.Scan(&item.SignalID, &item.Summary, &painPoint, &evidenceJSON, &item.Subreddit, &url); err != nil {
			return nil, fmt.Errorf("UnclusteredPainPoints: scan: %w", err)
		}
		item.PainPoint = painPoint.String
		item.URL = url.String
		var evidence []entity.EvidenceSignal
		if len(evidenceJSON) > 0 {
			_ = json.Unmarshal(evidenceJSON, &evidence)
		}
		for _, e := range evidence {
			item.Quotes = append(item.Quotes, e.Quote)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *SignalRepo) AssignCluster(ctx context.Context, signalID int64, clusterID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE signals SET cluster_id = $1 WHERE id = $2`, clusterID, signalID)
	if err != nil {
		return fmt.Errorf("AssignCluster: %w", err)
	}
	return nil
}

func (r *SignalRepo) RecentForWatchlistScan(ctx context.Context, sinceHours int) ([]store.WatchlistCandidate, error) {
	query := `
SELECT s.id, s.signal_summary, s.pain_point, p.subreddit, p.url, p.title
FROM signals s
JOIN posts p ON s.post_id = p.id
WHERE s.disqualified = FALSE
  AND s.created_at > $1`
	since := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("RecentForWatchlistScan: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []store.WatchlistCandidate
	for rows.Next() {
		var c store.WatchlistCandidate
		var painPoint, url sql.NullString
		if err := rows.Scan(&c.SignalID, &c.SignalSummary, &painPoint, &c.Subreddit, &url, &c.PostTitle); err != nil {
			return nil, fmt.Errorf("RecentForWatchlistScan: scan: %w", err)
		}
		c.PainPoint = painPoint.String
		c.URL = url.String
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *SignalRepo) Stats(ctx context.Context) (store.Stats, error) {
	var s store.Stats
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
SELECT
    (SELECT COUNT(*) FROM posts),
    (SELECT COUNT(*) FROM posts WHERE processed = TRUE),
    (SELECT COUNT(*) FROM signals),
    (SELECT COUNT(*) FROM signals WHERE disqualified = FALSE),
    (SELECT AVG(total_score) FROM signals WHERE disqualified = FALSE)
`).Scan(&s.TotalPosts, &s.ProcessedPosts, &s.TotalSignals, &s.QualifiedSignals, &avg)
	if err != nil {
		return s, fmt.Errorf("Stats: %w", err)
	}
	s.AvgScore = avg.Float64
	return s, nil
}
