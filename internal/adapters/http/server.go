package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"semear/internal/domain"
	"semear/internal/ports"
	eligsvc "semear/internal/services/eligibility"
)

// Server exposes the evaluation engine over HTTP. Handlers stay thin: decode,
// call the service port, map the error taxonomy to a status code.
type Server struct {
	scorer      ports.Scorer
	gate        ports.ConflictGate
	eligibility ports.EligibilityChecker
	companies   ports.CompanyRepository
	evaluations ports.EvaluationRepository
	audit       ports.AuditRepository
	evalTTL     time.Duration
	reqTimeout  time.Duration
	logger      *slog.Logger
}

func New(scorer ports.Scorer, gate ports.ConflictGate, eligibility ports.EligibilityChecker,
	companies ports.CompanyRepository, evaluations ports.EvaluationRepository,
	audit ports.AuditRepository, evalTTL, reqTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if reqTimeout <= 0 {
		reqTimeout = 10 * time.Second
	}
	return &Server{
		scorer:      scorer,
		gate:        gate,
		eligibility: eligibility,
		companies:   companies,
		evaluations: evaluations,
		audit:       audit,
		evalTTL:     evalTTL,
		reqTimeout:  reqTimeout,
		logger:      logger,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	// Every storage lookup inherits this deadline; a hung dependency reads
	// as a failed one downstream, so the conflict gate still fails closed.
	r.Use(middleware.Timeout(s.reqTimeout))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/scoring/evaluate", s.handleScoringEvaluate)
		r.Post("/conflict/check", s.handleConflictCheck)
		r.Get("/eligibility/check", s.handleEligibilityCheck)
		r.Post("/evaluations", s.handleSubmitEvaluation)
		r.Post("/companies/{id}/advance", s.handleAdvance)
		r.Get("/companies/{id}/audit", s.handleAuditLog)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScoringEvaluate(w http.ResponseWriter, r *http.Request) {
	var in domain.ScoreInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "body", Msg: "malformed JSON"})
		return
	}
	res, err := s.scorer.Score(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type conflictCheckRequest struct {
	MentorID   string `json:"mentor_id"`
	CompanyID  string `json:"company_id"`
	ActionType string `json:"action_type"`
}

func (s *Server) handleConflictCheck(w http.ResponseWriter, r *http.Request) {
	var req conflictCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "body", Msg: "malformed JSON"})
		return
	}
	if req.MentorID == "" || req.CompanyID == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "mentor_id/company_id", Msg: "both ids are required"})
		return
	}
	if req.ActionType == "" {
		req.ActionType = "evaluation_attempt"
	}
	res, err := s.gate.Check(r.Context(), req.MentorID, req.CompanyID, req.ActionType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Blocked is a business outcome, not a transport error.
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEligibilityCheck(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "company_id", Msg: "query parameter is required"})
		return
	}
	res, err := s.eligibility.Check(r.Context(), companyID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type submitEvaluationRequest struct {
	CompanyID  string `json:"company_id"`
	MentorID   string `json:"mentor_id"`
	ProgramKey string `json:"program_key"`
	GateValue  string `json:"gate_value"`
	domain.ScoreInput
}

// handleSubmitEvaluation runs the full submission flow: conflict gate first,
// scoring second, persistence last.
func (s *Server) handleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	var req submitEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "body", Msg: "malformed JSON"})
		return
	}
	if req.CompanyID == "" || req.MentorID == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "company_id/mentor_id", Msg: "both ids are required"})
		return
	}
	if !domain.ValidGateValue(req.GateValue) {
		s.writeError(w, r, &domain.ValidationError{Field: "gate_value", Msg: "unknown gate value"})
		return
	}

	// Gate before resolving the company: every attempt leaves an audit row,
	// even one against an id that turns out not to exist.
	gateRes, err := s.gate.Check(r.Context(), req.MentorID, req.CompanyID, "evaluation_submission")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if gateRes.Status == domain.ConflictBlocked {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    "conflict_blocked",
			"conflict": gateRes,
		})
		return
	}

	company, err := s.companies.GetCompany(r.Context(), req.CompanyID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	programKey := req.ProgramKey
	if programKey == "" {
		programKey = company.CurrentStageKey
	}

	score, err := s.scorer.Score(req.ScoreInput)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := time.Now().UTC()
	ev := domain.Evaluation{
		ID:              uuid.NewString(),
		CompanyID:       req.CompanyID,
		MentorID:        req.MentorID,
		ProgramKey:      programKey,
		DimensionScores: req.DimensionScores,
		CriteriaScores:  req.CriteriaScores,
		WeightedScore:   score.WeightedScore,
		GateValue:       req.GateValue,
		EvaluationDate:  now,
		ExpiresAt:       now.Add(s.evalTTL),
		IsValid:         true,
	}
	if req.Template != nil {
		ev.TemplateID = &req.Template.ID
	}
	if err := s.evaluations.CreateEvaluation(r.Context(), ev); err != nil {
		s.writeError(w, r, domain.DependencyFailure("evaluation insert", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"evaluation": ev,
		"score":      score,
		"conflict":   gateRes,
	})
}

type advanceRequest struct {
	FromProgramKey string `json:"from_program_key"`
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")
	var req advanceRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, &domain.ValidationError{Field: "body", Msg: "malformed JSON"})
			return
		}
	}
	// The stage the caller decided on is required: it is what makes a
	// double-submitted advance a detectable no-op instead of a spurious
	// eligibility failure.
	if req.FromProgramKey == "" {
		s.writeError(w, r, &domain.ValidationError{Field: "from_program_key", Msg: "the stage the eligibility decision was made in is required"})
		return
	}
	res, err := s.eligibility.Advance(r.Context(), companyID, req.FromProgramKey)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "id")
	entries, err := s.audit.ListAuditByCompany(r.Context(), companyID, 100)
	if err != nil {
		s.writeError(w, r, domain.DependencyFailure("audit lookup", err))
		return
	}
	if entries == nil {
		entries = []domain.ConflictAuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	var cErr *domain.ConfigError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: vErr.Code(), Details: vErr.Error()})
	case errors.As(err, &cErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: cErr.Code(), Details: cErr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
	case errors.Is(err, eligsvc.ErrNotEligible):
		writeJSON(w, http.StatusConflict, errorBody{Error: "not_eligible", Details: err.Error()})
	case errors.Is(err, domain.ErrDependencyUnavailable):
		s.logger.Error("dependency unavailable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "dependency_unavailable"})
	default:
		s.logger.Error("internal error", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
