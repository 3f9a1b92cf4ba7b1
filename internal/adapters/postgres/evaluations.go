package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"semear/internal/domain"
)

// EvaluationRepository

const evaluationColumns = `
    id, company_id, mentor_id, program_key, template_id,
    dimension_scores, criteria_scores, weighted_score, gate_value,
    evaluation_date, expires_at, is_valid`

func scanEvaluation(row pgx.Row) (domain.Evaluation, error) {
	var (
		ev       domain.Evaluation
		dimWire  []byte
		critWire []byte
	)
	err := row.Scan(&ev.ID, &ev.CompanyID, &ev.MentorID, &ev.ProgramKey, &ev.TemplateID,
		&dimWire, &critWire, &ev.WeightedScore, &ev.GateValue,
		&ev.EvaluationDate, &ev.ExpiresAt, &ev.IsValid)
	if err != nil {
		return domain.Evaluation{}, err
	}
	if dimWire != nil {
		if err := json.Unmarshal(dimWire, &ev.DimensionScores); err != nil {
			return domain.Evaluation{}, err
		}
	}
	if critWire != nil {
		if err := json.Unmarshal(critWire, &ev.CriteriaScores); err != nil {
			return domain.Evaluation{}, err
		}
	}
	return ev, nil
}

// LatestValid returns the single authoritative evaluation for the pair:
// newest, still valid, not past its expiry.
func (db *DB) LatestValid(ctx context.Context, companyID, programKey string) (domain.Evaluation, bool, error) {
	row := db.Pool.QueryRow(ctx, `
        SELECT `+evaluationColumns+`
        FROM evaluations
        WHERE company_id = $1 AND program_key = $2 AND is_valid AND expires_at > now()
        ORDER BY evaluation_date DESC
        LIMIT 1
    `, companyID, programKey)
	ev, err := scanEvaluation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Evaluation{}, false, nil
	}
	if err != nil {
		return domain.Evaluation{}, false, err
	}
	return ev, true, nil
}

// CreateEvaluation inserts the new row and supersedes older valid rows for
// the same company and program atomically.
func (db *DB) CreateEvaluation(ctx context.Context, ev domain.Evaluation) (err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
        UPDATE evaluations SET is_valid = false
        WHERE company_id = $1 AND program_key = $2 AND is_valid
    `, ev.CompanyID, ev.ProgramKey); err != nil {
		return err
	}

	var dimWire, critWire []byte
	if ev.DimensionScores != nil {
		if dimWire, err = json.Marshal(ev.DimensionScores); err != nil {
			return err
		}
	}
	if ev.CriteriaScores != nil {
		if critWire, err = json.Marshal(ev.CriteriaScores); err != nil {
			return err
		}
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO evaluations (`+evaluationColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, ev.ID, ev.CompanyID, ev.MentorID, ev.ProgramKey, ev.TemplateID,
		dimWire, critWire, ev.WeightedScore, ev.GateValue,
		ev.EvaluationDate, ev.ExpiresAt, ev.IsValid)
	return err
}

func (db *DB) MentorHistory(ctx context.Context, mentorID, companyID string) ([]domain.Evaluation, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT `+evaluationColumns+`
        FROM evaluations
        WHERE mentor_id = $1 AND company_id = $2
        ORDER BY evaluation_date DESC
    `, mentorID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
