package ports

import (
	"context"

	"semear/internal/domain"
)

// CompanyRepository fetches and advances companies.
type CompanyRepository interface {
	GetCompany(ctx context.Context, id string) (domain.Company, error)
	// AdvanceCompany moves the company from fromStage to toStage and creates
	// the new stage's deliverables in one transaction. It is a no-op when the
	// company already left fromStage.
	AdvanceCompany(ctx context.Context, companyID, fromStage, toStage string, deliverables []domain.RequiredDeliverable) (advanced bool, err error)
}

// ProgramRepository loads immutable program configuration.
type ProgramRepository interface {
	GetProgram(ctx context.Context, key string) (domain.Program, error)
}

// EvaluationRepository manages evaluation rows. Only the single most recent
// valid evaluation per company/program is authoritative.
type EvaluationRepository interface {
	// LatestValid returns the newest non-expired valid evaluation, if any.
	LatestValid(ctx context.Context, companyID, programKey string) (domain.Evaluation, bool, error)
	// CreateEvaluation inserts ev and invalidates older valid rows for the
	// same company and program in the same transaction.
	CreateEvaluation(ctx context.Context, ev domain.Evaluation) error
	// MentorHistory lists prior evaluations of the company by the mentor,
	// newest first.
	MentorHistory(ctx context.Context, mentorID, companyID string) ([]domain.Evaluation, error)
}

// DeliverableRepository reads a company's deliverables for a program. The
// approval workflow mutating them lives outside this service.
type DeliverableRepository interface {
	ListDeliverables(ctx context.Context, companyID, programKey string) ([]domain.Deliverable, error)
}

// PartnershipRepository lists declared mentor/company partnerships, active
// and historical.
type PartnershipRepository interface {
	ListPartnerships(ctx context.Context, mentorID, companyID string) ([]domain.Partnership, error)
}

// AuditRepository is append-only; there are no update or delete methods on
// purpose.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry domain.ConflictAuditEntry) error
	ListAuditByCompany(ctx context.Context, companyID string, limit int) ([]domain.ConflictAuditEntry, error)
}
