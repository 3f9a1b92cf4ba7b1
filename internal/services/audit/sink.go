package audit

import (
	"context"
	"fmt"
	"log/slog"

	"semear/internal/domain"
	"semear/internal/ports"
)

// Sink appends policy decisions to the audit log and raises side-channel
// alerts for warning and critical entries. The append is the compliance
// surface: if it fails the caller must not treat the decision as recorded.
type Sink struct {
	repo   ports.AuditRepository
	queue  ports.AlertQueue
	logger *slog.Logger
}

func NewSink(repo ports.AuditRepository, queue ports.AlertQueue, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{repo: repo, queue: queue, logger: logger}
}

func (s *Sink) Record(ctx context.Context, entry domain.ConflictAuditEntry) error {
	if err := s.repo.AppendAudit(ctx, entry); err != nil {
		return domain.DependencyFailure("audit append", err)
	}
	s.logger.InfoContext(ctx, "policy decision recorded",
		"mentor_id", entry.MentorID,
		"company_id", entry.CompanyID,
		"action_type", entry.ActionType,
		"severity", entry.Severity,
	)
	if entry.Severity != domain.SeverityWarning && entry.Severity != domain.SeverityCritical {
		return nil
	}
	msg := fmt.Sprintf("%s conflict on %s: mentor %s / company %s",
		entry.Severity, entry.ActionType, entry.MentorID, entry.CompanyID)
	if _, err := s.queue.EnqueueAlert(ctx, entry.Severity, msg); err != nil {
		// Alert delivery is best effort; the audit row is already durable.
		s.logger.ErrorContext(ctx, "alert enqueue failed", "error", err)
	}
	return nil
}
