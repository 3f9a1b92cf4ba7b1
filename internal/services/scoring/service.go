package scoring

import (
	"fmt"

	"semear/internal/domain"
)

// Service computes weighted scores. Persistence is the caller's concern;
// nothing here touches storage.
type Service struct{}

func New() *Service { return &Service{} }

// Score dispatches on input shape: a template selects template mode,
// otherwise the fixed five-dimension mode applies.
func (s *Service) Score(in domain.ScoreInput) (domain.ScoreResult, error) {
	if in.Template != nil {
		return s.scoreTemplate(*in.Template, in.CriteriaScores)
	}
	return s.scoreDimensions(in.DimensionScores)
}

// scoreDimensions computes the weighted average of the fixed dimensions,
// normalized by the weight sum. All five must be present and in [0,10]; the
// result stays in [0,10].
func (s *Service) scoreDimensions(scores map[string]float64) (domain.ScoreResult, error) {
	for dim := range scores {
		if _, ok := domain.DimensionWeights[dim]; !ok {
			return domain.ScoreResult{}, &domain.ValidationError{
				Field: dim, Msg: "unknown dimension",
			}
		}
	}
	total := 0.0
	weightSum := 0.0
	for dim, weight := range domain.DimensionWeights {
		raw, ok := scores[dim]
		if !ok {
			return domain.ScoreResult{}, domain.IncompleteSubmission(dim, "missing dimension score")
		}
		if raw < 0 || raw > 10 {
			return domain.ScoreResult{}, &domain.ValidationError{
				Field: dim, Msg: fmt.Sprintf("score %.2f outside [0,10]", raw),
			}
		}
		total += raw * weight
		weightSum += weight
	}
	return domain.ScoreResult{
		WeightedScore: domain.RoundScore(total / weightSum),
		Mode:          domain.ModeDimensions,
	}, nil
}

// scoreTemplate normalizes each criterion to its max, weights it, and scales
// the weighted average to 0-100.
func (s *Service) scoreTemplate(tpl domain.RubricTemplate, scores map[string]float64) (domain.ScoreResult, error) {
	if err := tpl.Validate(); err != nil {
		return domain.ScoreResult{}, err
	}
	contribution := 0.0
	for _, c := range tpl.Criteria {
		raw, ok := scores[c.ID]
		if !ok {
			return domain.ScoreResult{}, domain.IncompleteSubmission(c.ID, "missing criterion score")
		}
		if raw < 0 || raw > c.MaxScore {
			return domain.ScoreResult{}, &domain.ValidationError{
				Field: c.ID, Msg: fmt.Sprintf("score %.2f outside [0,%.2f]", raw, c.MaxScore),
			}
		}
		contribution += (raw / c.MaxScore) * c.Weight
	}
	final := contribution / tpl.WeightSum() * 100
	return domain.ScoreResult{
		WeightedScore: domain.RoundScore(final),
		Mode:          domain.ModeTemplate,
	}, nil
}
