package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semear/internal/domain"
	eligsvc "semear/internal/services/eligibility"
	scoringsvc "semear/internal/services/scoring"
)

type fakeGate struct {
	result  domain.ConflictResult
	calls   int
	lastCtx context.Context
}

func (f *fakeGate) Check(ctx context.Context, mentorID, companyID, actionType string) (domain.ConflictResult, error) {
	f.calls++
	f.lastCtx = ctx
	return f.result, nil
}

type fakeEligibility struct {
	checkResult   domain.EligibilityResult
	advanceResult domain.AdvanceResult
	err           error
}

func (f *fakeEligibility) Check(ctx context.Context, companyID string) (domain.EligibilityResult, error) {
	if f.err != nil {
		return domain.EligibilityResult{}, f.err
	}
	return f.checkResult, nil
}

func (f *fakeEligibility) Advance(ctx context.Context, companyID, fromStage string) (domain.AdvanceResult, error) {
	if f.err != nil {
		return domain.AdvanceResult{}, f.err
	}
	return f.advanceResult, nil
}

type fakeCompanies struct {
	company domain.Company
}

func (f *fakeCompanies) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	if f.company.ID != id {
		return domain.Company{}, domain.ErrNotFound
	}
	return f.company, nil
}

func (f *fakeCompanies) AdvanceCompany(ctx context.Context, companyID, fromStage, toStage string, deliverables []domain.RequiredDeliverable) (bool, error) {
	return false, nil
}

type fakeEvaluations struct {
	created []domain.Evaluation
}

func (f *fakeEvaluations) LatestValid(ctx context.Context, companyID, programKey string) (domain.Evaluation, bool, error) {
	return domain.Evaluation{}, false, nil
}

func (f *fakeEvaluations) CreateEvaluation(ctx context.Context, ev domain.Evaluation) error {
	f.created = append(f.created, ev)
	return nil
}

func (f *fakeEvaluations) MentorHistory(ctx context.Context, mentorID, companyID string) ([]domain.Evaluation, error) {
	return nil, nil
}

type fakeAudit struct {
	entries []domain.ConflictAuditEntry
}

func (f *fakeAudit) AppendAudit(ctx context.Context, entry domain.ConflictAuditEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) ListAuditByCompany(ctx context.Context, companyID string, limit int) ([]domain.ConflictAuditEntry, error) {
	return f.entries, nil
}

type serverFixture struct {
	srv         *Server
	gate        *fakeGate
	eligibility *fakeEligibility
	evaluations *fakeEvaluations
}

func newFixture() *serverFixture {
	gate := &fakeGate{result: domain.ConflictResult{Status: domain.ConflictClear, Reasons: []domain.ConflictReason{}}}
	elig := &fakeEligibility{}
	evals := &fakeEvaluations{}
	companies := &fakeCompanies{company: domain.Company{ID: "c1", Name: "Acme", CurrentStageKey: domain.StageIncubation}}
	srv := New(scoringsvc.New(), gate, elig, companies, evals, &fakeAudit{}, 90*24*time.Hour, 2*time.Second, nil)
	return &serverFixture{srv: srv, gate: gate, eligibility: elig, evaluations: evals}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func dimensionPayload() map[string]any {
	return map[string]any{
		"dimension_scores": map[string]float64{
			"mercado":              8,
			"perfil_empreendedor":  7,
			"tecnologia_qualidade": 6,
			"gestao":               7,
			"financeiro":           8,
		},
	}
}

func TestScoringEvaluate_OK(t *testing.T) {
	fx := newFixture()
	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/scoring/evaluate", dimensionPayload())

	require.Equal(t, http.StatusOK, rec.Code)
	var res domain.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.ModeDimensions, res.Mode)
	assert.InDelta(t, 7.3, res.WeightedScore, 0.001)
}

func TestScoringEvaluate_IncompleteSubmission(t *testing.T) {
	fx := newFixture()
	payload := map[string]any{
		"dimension_scores": map[string]float64{"mercado": 8},
	}
	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/scoring/evaluate", payload)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.CodeIncompleteSubmission, body["error"])
}

func TestScoringEvaluate_InvalidRubric(t *testing.T) {
	fx := newFixture()
	payload := map[string]any{
		"template": map[string]any{
			"id":           "tpl-1",
			"total_weight": 5,
			"criteria": []map[string]any{
				{"id": "a", "weight": 1, "max_score": 10},
			},
		},
		"criteria_scores": map[string]float64{"a": 5},
	}
	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/scoring/evaluate", payload)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.CodeInvalidRubric, body["error"])
}

func TestConflictCheck_BlockedIsTransportSuccess(t *testing.T) {
	fx := newFixture()
	fx.gate.result = domain.ConflictResult{
		Status:    domain.ConflictBlocked,
		Severity:  domain.SeverityCritical,
		RiskScore: 100,
		Reasons: []domain.ConflictReason{
			{Code: "active_partnership", Severity: domain.SeverityCritical, Message: "partner"},
		},
	}

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/conflict/check", map[string]string{
		"mentor_id": "m1", "company_id": "c1", "action_type": "evaluation_attempt",
	})

	require.Equal(t, http.StatusOK, rec.Code, "blocking is a business outcome, not a transport error")
	var res domain.ConflictResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.ConflictBlocked, res.Status)
	assert.Equal(t, 100.0, res.RiskScore)
}

func TestConflictCheck_RequiresIDs(t *testing.T) {
	fx := newFixture()
	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/conflict/check", map[string]string{"mentor_id": "m1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, fx.gate.calls)
}

func TestEligibilityCheck_OK(t *testing.T) {
	fx := newFixture()
	next := domain.StageAcceleration
	fx.eligibility.checkResult = domain.EligibilityResult{
		CompanyID: "c1",
		Eligible:  true,
		Checks: domain.EligibilityChecks{
			HasValidEvaluation: true, WeightedScoreMet: true, DimensionMinsMet: true,
			GatePositive: true, DeliverablesApproved: true,
		},
		NextStage: &next,
	}

	rec := doJSON(t, fx.srv.Routes(), http.MethodGet, "/v1/eligibility/check?company_id=c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.EligibilityResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Eligible)
	require.NotNil(t, res.NextStage)
	assert.Equal(t, domain.StageAcceleration, *res.NextStage)
}

func TestEligibilityCheck_RequiresCompanyID(t *testing.T) {
	fx := newFixture()
	rec := doJSON(t, fx.srv.Routes(), http.MethodGet, "/v1/eligibility/check", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSubmitEvaluation_FullFlow(t *testing.T) {
	fx := newFixture()
	payload := dimensionPayload()
	payload["company_id"] = "c1"
	payload["mentor_id"] = "m1"
	payload["gate_value"] = domain.GateRecommended

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/evaluations", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, 1, fx.gate.calls, "gate runs before scoring")
	require.Len(t, fx.evaluations.created, 1)
	ev := fx.evaluations.created[0]
	assert.Equal(t, "c1", ev.CompanyID)
	assert.Equal(t, domain.StageIncubation, ev.ProgramKey, "defaults to the company's current program")
	assert.InDelta(t, 7.3, ev.WeightedScore, 0.001)
	assert.True(t, ev.IsValid)
	assert.True(t, ev.ExpiresAt.After(ev.EvaluationDate))
}

func TestSubmitEvaluation_BlockedByGate(t *testing.T) {
	fx := newFixture()
	fx.gate.result = domain.ConflictResult{Status: domain.ConflictBlocked, Severity: domain.SeverityCritical, RiskScore: 100}

	payload := dimensionPayload()
	payload["company_id"] = "c1"
	payload["mentor_id"] = "m1"
	payload["gate_value"] = domain.GateRecommended

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/evaluations", payload)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, fx.evaluations.created, "nothing persisted on a blocked attempt")

	var body struct {
		Error    string                `json:"error"`
		Conflict domain.ConflictResult `json:"conflict"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "conflict_blocked", body.Error)
	assert.Equal(t, 100.0, body.Conflict.RiskScore, "caller can render the risk score")
}

func TestSubmitEvaluation_UnknownCompany(t *testing.T) {
	fx := newFixture()
	payload := dimensionPayload()
	payload["company_id"] = "ghost"
	payload["mentor_id"] = "m1"
	payload["gate_value"] = domain.GateRecommended

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/evaluations", payload)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, fx.gate.calls, "the gate (and its audit trail) runs even when the company does not resolve")
}

func TestSubmitEvaluation_ContextCarriesDeadline(t *testing.T) {
	fx := newFixture()
	payload := dimensionPayload()
	payload["company_id"] = "c1"
	payload["mentor_id"] = "m1"
	payload["gate_value"] = domain.GateRecommended

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/evaluations", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, fx.gate.lastCtx)
	deadline, ok := fx.gate.lastCtx.Deadline()
	require.True(t, ok, "storage lookups run under a request deadline")
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)
}

func TestSubmitEvaluation_BadGateValue(t *testing.T) {
	fx := newFixture()
	payload := dimensionPayload()
	payload["company_id"] = "c1"
	payload["mentor_id"] = "m1"
	payload["gate_value"] = "meh"

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/evaluations", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, fx.gate.calls)
}

func TestAdvance_OK(t *testing.T) {
	fx := newFixture()
	fx.eligibility.advanceResult = domain.AdvanceResult{
		CompanyID: "c1", CurrentStageKey: domain.StageAcceleration, Advanced: true,
	}

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/companies/c1/advance", map[string]string{
		"from_program_key": domain.StageIncubation,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var res domain.AdvanceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Advanced)
}

func TestAdvance_NotEligible(t *testing.T) {
	fx := newFixture()
	fx.eligibility.err = eligsvc.ErrNotEligible

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/companies/c1/advance", map[string]string{
		"from_program_key": domain.StageIncubation,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_eligible", body["error"])
}

func TestAdvance_RequiresFromProgramKey(t *testing.T) {
	fx := newFixture()
	fx.eligibility.err = eligsvc.ErrNotEligible

	rec := doJSON(t, fx.srv.Routes(), http.MethodPost, "/v1/companies/c1/advance", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.CodeInvalidInput, body["error"])
}

func TestHealthz(t *testing.T) {
	fx := newFixture()
	rec := doJSON(t, fx.srv.Routes(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
