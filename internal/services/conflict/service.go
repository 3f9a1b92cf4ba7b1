package conflict

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"semear/internal/domain"
	"semear/internal/ports"
)

// Risk contributions for the cross-validation heuristics. Each positive
// heuristic adds its weight to the 0-100 risk score.
const (
	riskFamilyPartnership   = 40
	riskInvestorPartnership = 35
	riskFormerPartnership   = 25
	riskFrequentEvaluator   = 15
	riskScorePattern        = 20
)

// Thresholds for the history heuristics.
const (
	frequentEvaluationCount = 3
	scorePatternMinCount    = 2
	scorePatternMeanScore   = 9.0
)

// Service is the one authoritative conflict-of-interest check. Advisory
// pre-filtering elsewhere never replaces it.
type Service struct {
	partnerships ports.PartnershipRepository
	evaluations  ports.EvaluationRepository
	audit        ports.AuditSink
	now          func() time.Time
}

func New(partnerships ports.PartnershipRepository, evaluations ports.EvaluationRepository, audit ports.AuditSink) *Service {
	return &Service{
		partnerships: partnerships,
		evaluations:  evaluations,
		audit:        audit,
		now:          time.Now,
	}
}

// Check classifies the mentor/company pair and appends one audit entry no
// matter the outcome. A failed lookup fails closed: the result is blocked,
// never clear, with Err describing the failure.
func (s *Service) Check(ctx context.Context, mentorID, companyID, actionType string) (domain.ConflictResult, error) {
	res := s.classify(ctx, mentorID, companyID)

	entry := domain.ConflictAuditEntry{
		ID:         uuid.NewString(),
		MentorID:   mentorID,
		CompanyID:  companyID,
		ActionType: actionType,
		Severity:   auditSeverity(res),
		Details:    auditDetails(res),
		CreatedAt:  s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		// An unverifiable audit trail is an unverifiable check.
		return failClosed(res, domain.DependencyFailure("audit append", err)), nil
	}
	return res, nil
}

func (s *Service) classify(ctx context.Context, mentorID, companyID string) domain.ConflictResult {
	parts, err := s.partnerships.ListPartnerships(ctx, mentorID, companyID)
	if err != nil {
		return failClosed(domain.ConflictResult{}, domain.DependencyFailure("partnership lookup", err))
	}

	var reasons []domain.ConflictReason
	risk := 0.0
	blocked := false

	for _, p := range parts {
		switch {
		case p.IsActive && p.DirectConflict():
			blocked = true
			reasons = append(reasons, domain.ConflictReason{
				Code:     "active_partnership",
				Severity: domain.SeverityCritical,
				Message:  fmt.Sprintf("mentor has an active %s partnership with the company", p.Type),
			})
		case p.IsActive && p.Type == domain.PartnershipFamily:
			risk += riskFamilyPartnership
			reasons = append(reasons, domain.ConflictReason{
				Code:     "family_partnership",
				Severity: domain.SeverityWarning,
				Message:  "mentor declared a family relationship with the company",
			})
		case p.IsActive && p.Type == domain.PartnershipInvestor:
			risk += riskInvestorPartnership
			reasons = append(reasons, domain.ConflictReason{
				Code:     "investor_partnership",
				Severity: domain.SeverityWarning,
				Message:  "mentor declared an investment in the company",
			})
		case !p.IsActive && p.DirectConflict():
			risk += riskFormerPartnership
			reasons = append(reasons, domain.ConflictReason{
				Code:     "former_partnership",
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("mentor had a past %s partnership with the company", p.Type),
			})
		}
	}

	if blocked {
		return finalize(domain.ConflictResult{
			Status:    domain.ConflictBlocked,
			Severity:  domain.SeverityCritical,
			Reasons:   reasons,
			RiskScore: 100,
		})
	}

	history, err := s.evaluations.MentorHistory(ctx, mentorID, companyID)
	if err != nil {
		return failClosed(domain.ConflictResult{Reasons: reasons}, domain.DependencyFailure("evaluation history lookup", err))
	}
	if len(history) >= frequentEvaluationCount {
		risk += riskFrequentEvaluator
		reasons = append(reasons, domain.ConflictReason{
			Code:     "frequent_evaluator",
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("mentor evaluated this company %d times before", len(history)),
		})
	}
	if len(history) >= scorePatternMinCount {
		mean := 0.0
		for _, ev := range history {
			mean += ev.WeightedScore
		}
		mean /= float64(len(history))
		if mean >= scorePatternMeanScore {
			risk += riskScorePattern
			reasons = append(reasons, domain.ConflictReason{
				Code:     "score_pattern",
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("mentor's prior scores for this company average %.1f", mean),
			})
		}
	}
	if risk > 100 {
		risk = 100
	}

	status := domain.ConflictClear
	severity := ""
	if risk >= 50 || hasSeverity(reasons, domain.SeverityWarning) {
		status = domain.ConflictWarning
		severity = domain.SeverityWarning
	}
	return finalize(domain.ConflictResult{
		Status:    status,
		Severity:  severity,
		Reasons:   reasons,
		RiskScore: risk,
	})
}

func hasSeverity(reasons []domain.ConflictReason, severity string) bool {
	for _, r := range reasons {
		if r.Severity == severity {
			return true
		}
	}
	return false
}

// failClosed turns any verification failure into a blocked result. Inability
// to verify is never treated as verified-safe.
func failClosed(res domain.ConflictResult, err error) domain.ConflictResult {
	res.Status = domain.ConflictBlocked
	res.Severity = domain.SeverityCritical
	res.RiskScore = 100
	res.Err = err.Error()
	return finalize(res)
}

func finalize(res domain.ConflictResult) domain.ConflictResult {
	if res.Reasons == nil {
		res.Reasons = []domain.ConflictReason{}
	}
	res.Details = summarize(res)
	res.Recommendation = recommendation(res.Status)
	return res
}

func summarize(res domain.ConflictResult) string {
	if res.Err != "" {
		return "conflict status could not be verified"
	}
	return fmt.Sprintf("%s with %d reason(s), risk %.0f", res.Status, len(res.Reasons), res.RiskScore)
}

// recommendation text is derived from status alone so identical verdicts
// always read the same.
func recommendation(status string) string {
	switch status {
	case domain.ConflictBlocked:
		return "select a different mentor or have the partnership reviewed by the program coordinator"
	case domain.ConflictWarning:
		return "proceed with caution; assigning a second evaluator is recommended"
	default:
		return "no conflict detected; the evaluation may proceed"
	}
}

func auditSeverity(res domain.ConflictResult) string {
	switch res.Status {
	case domain.ConflictBlocked:
		return domain.SeverityCritical
	case domain.ConflictWarning:
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}

func auditDetails(res domain.ConflictResult) string {
	b, err := json.Marshal(res)
	if err != nil {
		return res.Details
	}
	return string(b)
}
