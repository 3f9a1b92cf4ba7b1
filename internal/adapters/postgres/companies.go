package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"semear/internal/domain"
)

// CompanyRepository

func (db *DB) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	var c domain.Company
	err := db.Pool.QueryRow(ctx, `
        SELECT id, name, current_program_key, created_at
        FROM companies WHERE id = $1
    `, id).Scan(&c.ID, &c.Name, &c.CurrentStageKey, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, domain.ErrNotFound
	}
	return c, err
}

// AdvanceCompany moves the company between stages with a conditional update,
// so a repeated or racing call affects zero rows and reports advanced=false.
// The new stage's deliverables are seeded in the same transaction.
func (db *DB) AdvanceCompany(ctx context.Context, companyID, fromStage, toStage string, deliverables []domain.RequiredDeliverable) (advanced bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
        UPDATE companies SET current_program_key = $3
        WHERE id = $1 AND current_program_key = $2
    `, companyID, fromStage, toStage)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	for _, d := range deliverables {
		if _, err = tx.Exec(ctx, `
            INSERT INTO deliverables (company_id, program_key, key, status, approval_required)
            VALUES ($1, $2, $3, 'to_do', $4)
            ON CONFLICT (company_id, program_key, key) DO NOTHING
        `, companyID, toStage, d.Key, d.ApprovalRequired); err != nil {
			return false, err
		}
	}
	return true, nil
}
