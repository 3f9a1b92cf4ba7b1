package domain

import "math"

// WeightTolerance is how far the criterion weight sum may drift from the
// declared total before the template is rejected as misconfigured.
const WeightTolerance = 0.01

// Criterion is one scored line of a rubric template. Rubric maps discrete
// scores to level descriptions and is optional.
type Criterion struct {
	ID       string         `json:"id"`
	Weight   float64        `json:"weight"`
	MaxScore float64        `json:"max_score"`
	Rubric   map[int]string `json:"rubric,omitempty"`
}

type RubricTemplate struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	TotalWeight float64     `json:"total_weight"`
	Criteria    []Criterion `json:"criteria"`
}

// Validate rejects misconfigured templates before any score is computed.
// A bad weight sum is a configuration error, never silently clamped.
func (t RubricTemplate) Validate() error {
	if len(t.Criteria) == 0 {
		return &ConfigError{Field: "criteria", Msg: "rubric template has no criteria"}
	}
	sum := 0.0
	for _, c := range t.Criteria {
		if c.Weight <= 0 {
			return &ConfigError{Field: "criteria." + c.ID + ".weight", Msg: "criterion weight must be positive"}
		}
		if c.MaxScore <= 0 {
			return &ConfigError{Field: "criteria." + c.ID + ".max_score", Msg: "criterion max_score must be positive"}
		}
		sum += c.Weight
	}
	if math.Abs(sum-t.TotalWeight) > WeightTolerance {
		return &ConfigError{Field: "total_weight", Msg: "criterion weights do not sum to declared total_weight"}
	}
	return nil
}

// WeightSum returns the sum of all criterion weights.
func (t RubricTemplate) WeightSum() float64 {
	sum := 0.0
	for _, c := range t.Criteria {
		sum += c.Weight
	}
	return sum
}

// RoundScore rounds to one decimal place, half up.
func RoundScore(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
