package domain

import "time"

// Core domain models. The HTTP adapter reuses the JSON tags here; keep them
// aligned with the column names in the migrations.

// Stage keys double as program keys. Order matters: a company advances
// through StageOrder left to right and stops at the last entry.
const (
	StagePreIncubation = "pre_incubation"
	StageIncubation    = "incubation"
	StageAcceleration  = "acceleration"
)

var StageOrder = []string{StagePreIncubation, StageIncubation, StageAcceleration}

// NextStage returns the stage after key, or ("", false) when key is terminal
// or unknown.
func NextStage(key string) (string, bool) {
	for i, s := range StageOrder {
		if s == key && i+1 < len(StageOrder) {
			return StageOrder[i+1], true
		}
	}
	return "", false
}

// StageIndex returns key's position in StageOrder.
func StageIndex(key string) (int, bool) {
	for i, s := range StageOrder {
		if s == key {
			return i, true
		}
	}
	return 0, false
}

type Company struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CurrentStageKey string    `json:"current_program_key"`
	CreatedAt       time.Time `json:"created_at"`
}

// RequiredDeliverable is a program's template for the deliverables created
// when a company enters its stage.
type RequiredDeliverable struct {
	Key              string `json:"key"`
	ApprovalRequired bool   `json:"approval_required"`
}

// PassageThresholds holds the minimums a company must meet to leave a stage.
type PassageThresholds struct {
	WeightedScoreMin float64            `json:"weighted_score_min"`
	DimensionMins    map[string]float64 `json:"dimension_mins"`
}

// Program is immutable configuration, loaded once per evaluation cycle.
type Program struct {
	Key                  string                `json:"key"`
	StageIndex           int                   `json:"stage_index"`
	PassageThresholds    PassageThresholds     `json:"passage_thresholds"`
	RequiredDeliverables []RequiredDeliverable `json:"required_deliverables"`
}

// Fixed evaluation dimensions and their weights. The weights sum to 1.0 and
// are part of the program methodology, not per-template configuration.
const (
	DimMercado             = "mercado"
	DimPerfilEmpreendedor  = "perfil_empreendedor"
	DimTecnologiaQualidade = "tecnologia_qualidade"
	DimGestao              = "gestao"
	DimFinanceiro          = "financeiro"
)

var DimensionWeights = map[string]float64{
	DimMercado:             0.28,
	DimPerfilEmpreendedor:  0.21,
	DimTecnologiaQualidade: 0.14,
	DimGestao:              0.16,
	DimFinanceiro:          0.16,
}

// Gate values, best to worst. Only GateBlocked is a hard block on
// progression.
const (
	GateRecommended      = "recommended"
	GateWithConditions   = "recommended_with_conditions"
	GateNeedsImprovement = "needs_improvement"
	GateBlocked          = "blocked"
)

var GateValues = []string{GateRecommended, GateWithConditions, GateNeedsImprovement, GateBlocked}

func ValidGateValue(v string) bool {
	for _, g := range GateValues {
		if g == v {
			return true
		}
	}
	return false
}

type Evaluation struct {
	ID              string             `json:"id"`
	CompanyID       string             `json:"company_id"`
	MentorID        string             `json:"mentor_id"`
	ProgramKey      string             `json:"program_key"`
	TemplateID      *string            `json:"template_id,omitempty"`
	DimensionScores map[string]float64 `json:"dimension_scores,omitempty"`
	CriteriaScores  map[string]float64 `json:"criteria_scores,omitempty"`
	WeightedScore   float64            `json:"weighted_score"`
	GateValue       string             `json:"gate_value"`
	EvaluationDate  time.Time          `json:"evaluation_date"`
	ExpiresAt       time.Time          `json:"expires_at"`
	IsValid         bool               `json:"is_valid"`
}

// Expired reports whether the evaluation is past its validity window.
func (e Evaluation) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Deliverable statuses form a forward-only state machine:
// to_do -> in_progress -> in_review -> approved. No regressions.
const (
	DeliverableToDo       = "to_do"
	DeliverableInProgress = "in_progress"
	DeliverableInReview   = "in_review"
	DeliverableApproved   = "approved"
)

var deliverableRank = map[string]int{
	DeliverableToDo:       0,
	DeliverableInProgress: 1,
	DeliverableInReview:   2,
	DeliverableApproved:   3,
}

type Deliverable struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	ProgramKey       string `json:"program_key"`
	Key              string `json:"key"`
	Status           string `json:"status"`
	ApprovalRequired bool   `json:"approval_required"`
}

// CanTransitionTo reports whether moving to next is a single legal forward
// step from the deliverable's current status.
func (d Deliverable) CanTransitionTo(next string) bool {
	cur, ok := deliverableRank[d.Status]
	if !ok {
		return false
	}
	nxt, ok := deliverableRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}

// Partnership types. Direct-conflict types disqualify a mentor outright;
// family and investor feed the risk heuristics instead.
const (
	PartnershipFounder  = "founder"
	PartnershipPartner  = "partner"
	PartnershipAdvisor  = "advisor"
	PartnershipFamily   = "family"
	PartnershipInvestor = "investor"
	PartnershipEmployee = "employee"
	PartnershipOther    = "other"
)

type Partnership struct {
	ID        string `json:"id"`
	MentorID  string `json:"mentor_id"`
	CompanyID string `json:"company_id"`
	Type      string `json:"type"`
	IsActive  bool   `json:"is_active"`
}

// DirectConflict reports whether the partnership type alone blocks the
// mentor from evaluating the company.
func (p Partnership) DirectConflict() bool {
	switch p.Type {
	case PartnershipFounder, PartnershipPartner, PartnershipAdvisor, PartnershipEmployee:
		return true
	}
	return false
}

// ConflictAuditEntry is an append-only record of a policy gate decision.
// Rows are never updated or deleted.
type ConflictAuditEntry struct {
	ID         string    `json:"id"`
	MentorID   string    `json:"mentor_id"`
	CompanyID  string    `json:"company_id"`
	ActionType string    `json:"action_type"`
	Severity   string    `json:"severity"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}
