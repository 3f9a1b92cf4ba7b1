package ports

import (
	"context"

	"semear/internal/domain"
)

// Scorer computes weighted scores. Pure; no storage access.
type Scorer interface {
	Score(in domain.ScoreInput) (domain.ScoreResult, error)
}

// ConflictGate classifies mentor/company conflict risk. Every invocation
// appends exactly one audit entry regardless of outcome.
type ConflictGate interface {
	Check(ctx context.Context, mentorID, companyID, actionType string) (domain.ConflictResult, error)
}

// EligibilityChecker decides stage progression. Check is read-only; Advance
// mutates the company and is idempotent: re-invoking for a company that
// already left fromStage is a no-op success.
type EligibilityChecker interface {
	Check(ctx context.Context, companyID string) (domain.EligibilityResult, error)
	Advance(ctx context.Context, companyID, fromStage string) (domain.AdvanceResult, error)
}

// AuditSink appends policy decisions and raises side-channel alerts for
// warning and critical entries.
type AuditSink interface {
	Record(ctx context.Context, entry domain.ConflictAuditEntry) error
}
