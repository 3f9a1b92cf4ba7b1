package eligibility

import (
	"context"
	"errors"
	"time"

	"semear/internal/domain"
	"semear/internal/ports"
)

// At-risk bands. A score this close above its minimum is flagged for the UI
// but never changes a check boolean.
const (
	weightedAtRiskBand  = 0.3
	dimensionAtRiskBand = 0.2
)

// ErrNotEligible is returned by Advance when the company fails a check.
var ErrNotEligible = errors.New("company is not eligible to advance")

// Service decides advancement eligibility. Check is pure over its loaded
// inputs; Advance is the single explicit mutation path.
type Service struct {
	companies    ports.CompanyRepository
	programs     ports.ProgramRepository
	evaluations  ports.EvaluationRepository
	deliverables ports.DeliverableRepository
	now          func() time.Time
}

func New(companies ports.CompanyRepository, programs ports.ProgramRepository, evaluations ports.EvaluationRepository, deliverables ports.DeliverableRepository) *Service {
	return &Service{
		companies:    companies,
		programs:     programs,
		evaluations:  evaluations,
		deliverables: deliverables,
		now:          time.Now,
	}
}

// Check evaluates every passage criterion for the company's current program.
// Unlike the conflict gate there is no safety reason to fail closed here, so
// lookup failures surface to the caller instead of guessing a verdict.
func (s *Service) Check(ctx context.Context, companyID string) (domain.EligibilityResult, error) {
	company, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return domain.EligibilityResult{}, wrapLookup("company lookup", err)
	}
	program, err := s.programs.GetProgram(ctx, company.CurrentStageKey)
	if err != nil {
		return domain.EligibilityResult{}, wrapLookup("program lookup", err)
	}
	ev, hasEval, err := s.evaluations.LatestValid(ctx, companyID, program.Key)
	if err != nil {
		return domain.EligibilityResult{}, wrapLookup("evaluation lookup", err)
	}
	dels, err := s.deliverables.ListDeliverables(ctx, companyID, program.Key)
	if err != nil {
		return domain.EligibilityResult{}, wrapLookup("deliverable lookup", err)
	}

	now := s.now()
	hasEval = hasEval && ev.IsValid && !ev.Expired(now)

	res := domain.EligibilityResult{CompanyID: companyID}
	res.Checks.HasValidEvaluation = hasEval

	thresholds := program.PassageThresholds
	if hasEval {
		res.Checks.WeightedScoreMet = ev.WeightedScore >= thresholds.WeightedScoreMin
		res.Checks.DimensionMinsMet = true
		for dim, min := range thresholds.DimensionMins {
			score := ev.DimensionScores[dim]
			if score < min {
				res.Checks.DimensionMinsMet = false
			} else if score-min <= dimensionAtRiskBand {
				res.AtRisk = append(res.AtRisk, domain.AtRiskDimension{Dimension: dim, Score: score, Min: min})
			}
		}
		if res.Checks.WeightedScoreMet && ev.WeightedScore-thresholds.WeightedScoreMin <= weightedAtRiskBand {
			res.AtRisk = append(res.AtRisk, domain.AtRiskDimension{
				Dimension: "weighted_score",
				Score:     ev.WeightedScore,
				Min:       thresholds.WeightedScoreMin,
			})
		}
		res.Checks.GatePositive = ev.GateValue != domain.GateBlocked
	}

	res.Checks.DeliverablesApproved = true
	for _, d := range dels {
		if d.ApprovalRequired && d.Status != domain.DeliverableApproved {
			res.Checks.DeliverablesApproved = false
			break
		}
	}

	c := res.Checks
	res.Eligible = c.HasValidEvaluation && c.WeightedScoreMet && c.DimensionMinsMet &&
		c.GatePositive && c.DeliverablesApproved

	if next, ok := domain.NextStage(company.CurrentStageKey); ok {
		res.NextStage = &next
	}
	return res, nil
}

// Advance moves an eligible company to the next stage and seeds that stage's
// deliverables. fromStage, when set, makes retries safe: if the company
// already left fromStage the call is a no-op success.
func (s *Service) Advance(ctx context.Context, companyID, fromStage string) (domain.AdvanceResult, error) {
	company, err := s.companies.GetCompany(ctx, companyID)
	if err != nil {
		return domain.AdvanceResult{}, wrapLookup("company lookup", err)
	}
	if fromStage != "" && company.CurrentStageKey != fromStage {
		cur, curOK := domain.StageIndex(company.CurrentStageKey)
		from, fromOK := domain.StageIndex(fromStage)
		if curOK && fromOK && cur > from {
			return domain.AdvanceResult{
				CompanyID:       companyID,
				CurrentStageKey: company.CurrentStageKey,
				Advanced:        false,
			}, nil
		}
		return domain.AdvanceResult{}, &domain.ValidationError{
			Field: "from_program_key",
			Msg:   "company is not in the given program stage",
		}
	}

	res, err := s.Check(ctx, companyID)
	if err != nil {
		return domain.AdvanceResult{}, err
	}
	if !res.Eligible {
		return domain.AdvanceResult{}, ErrNotEligible
	}
	if res.NextStage == nil {
		// Terminal stage: nothing to advance to.
		return domain.AdvanceResult{
			CompanyID:       companyID,
			CurrentStageKey: company.CurrentStageKey,
			Advanced:        false,
		}, nil
	}

	next := *res.NextStage
	program, err := s.programs.GetProgram(ctx, next)
	if err != nil {
		return domain.AdvanceResult{}, wrapLookup("program lookup", err)
	}
	advanced, err := s.companies.AdvanceCompany(ctx, companyID, company.CurrentStageKey, next, program.RequiredDeliverables)
	if err != nil {
		return domain.AdvanceResult{}, wrapLookup("company advance", err)
	}
	stage := next
	if !advanced {
		// Lost the race to a concurrent advance; report current state.
		refreshed, err := s.companies.GetCompany(ctx, companyID)
		if err != nil {
			return domain.AdvanceResult{}, wrapLookup("company lookup", err)
		}
		stage = refreshed.CurrentStageKey
	}
	return domain.AdvanceResult{CompanyID: companyID, CurrentStageKey: stage, Advanced: advanced}, nil
}

func wrapLookup(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return domain.DependencyFailure(op, err)
}
