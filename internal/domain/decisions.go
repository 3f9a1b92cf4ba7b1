package domain

// Decision shapes shared by the services and the HTTP adapter.

// Scoring modes.
const (
	ModeDimensions = "dimensions"
	ModeTemplate   = "template"
)

// ScoreInput carries one submission's raw scores. Exactly one of
// DimensionScores or (Template, CriteriaScores) is used; a non-nil Template
// selects template mode.
type ScoreInput struct {
	DimensionScores map[string]float64 `json:"dimension_scores,omitempty"`
	Template        *RubricTemplate    `json:"template,omitempty"`
	CriteriaScores  map[string]float64 `json:"criteria_scores,omitempty"`
}

type ScoreResult struct {
	WeightedScore float64 `json:"weighted_score"`
	Mode          string  `json:"mode"`
}

// Conflict statuses and reason severities.
const (
	ConflictClear   = "clear"
	ConflictWarning = "warning"
	ConflictBlocked = "blocked"

	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

type ConflictReason struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ConflictResult is the gate's verdict. A blocked status is a normal
// business outcome, not a transport error. Err is set only when the gate
// failed closed because a lookup could not be completed.
type ConflictResult struct {
	Status         string           `json:"status"`
	Severity       string           `json:"severity,omitempty"`
	Reasons        []ConflictReason `json:"reasons"`
	RiskScore      float64          `json:"risk_score"`
	Details        string           `json:"details,omitempty"`
	Recommendation string           `json:"recommendation"`
	Err            string           `json:"error,omitempty"`
}

// EligibilityChecks mirrors the per-check booleans; eligibility is their
// conjunction.
type EligibilityChecks struct {
	HasValidEvaluation   bool `json:"has_valid_evaluation"`
	WeightedScoreMet     bool `json:"weighted_score_met"`
	DimensionMinsMet     bool `json:"dimension_mins_met"`
	GatePositive         bool `json:"gate_positive"`
	DeliverablesApproved bool `json:"deliverables_approved"`
}

// AtRiskDimension flags a score sitting just above its minimum. Purely a UI
// hint; never affects the check booleans.
type AtRiskDimension struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	Min       float64 `json:"min"`
}

type EligibilityResult struct {
	CompanyID string            `json:"company_id"`
	Eligible  bool              `json:"eligible"`
	Checks    EligibilityChecks `json:"checks"`
	NextStage *string           `json:"next_stage"`
	AtRisk    []AtRiskDimension `json:"at_risk,omitempty"`
}

// AdvanceResult reports the outcome of the explicit advance action.
// Advanced is false when the call was an idempotent no-op.
type AdvanceResult struct {
	CompanyID       string `json:"company_id"`
	CurrentStageKey string `json:"current_program_key"`
	Advanced        bool   `json:"advanced"`
}
