package postgres

import (
	"context"

	"semear/internal/domain"
)

// PartnershipRepository

func (db *DB) ListPartnerships(ctx context.Context, mentorID, companyID string) ([]domain.Partnership, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, mentor_id, company_id, type, is_active
        FROM partnerships
        WHERE mentor_id = $1 AND company_id = $2
    `, mentorID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Partnership
	for rows.Next() {
		var p domain.Partnership
		if err := rows.Scan(&p.ID, &p.MentorID, &p.CompanyID, &p.Type, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
