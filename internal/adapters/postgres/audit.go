package postgres

import (
	"context"

	"semear/internal/domain"
)

// AuditRepository. Insert and select only; the audit log is append-only.

func (db *DB) AppendAudit(ctx context.Context, entry domain.ConflictAuditEntry) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO conflict_audit_log (id, mentor_id, company_id, action_type, severity, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, entry.ID, entry.MentorID, entry.CompanyID, entry.ActionType, entry.Severity, entry.Details, entry.CreatedAt)
	return err
}

func (db *DB) ListAuditByCompany(ctx context.Context, companyID string, limit int) ([]domain.ConflictAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx, `
        SELECT id, mentor_id, company_id, action_type, severity, details, created_at
        FROM conflict_audit_log
        WHERE company_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ConflictAuditEntry
	for rows.Next() {
		var e domain.ConflictAuditEntry
		if err := rows.Scan(&e.ID, &e.MentorID, &e.CompanyID, &e.ActionType, &e.Severity, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
