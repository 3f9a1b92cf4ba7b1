package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"semear/internal/domain"
)

// ProgramRepository

func (db *DB) GetProgram(ctx context.Context, key string) (domain.Program, error) {
	var (
		p            domain.Program
		mins         []byte
		deliverables []byte
	)
	err := db.Pool.QueryRow(ctx, `
        SELECT key, stage_index, weighted_score_min, dimension_mins, required_deliverables
        FROM programs WHERE key = $1
    `, key).Scan(&p.Key, &p.StageIndex, &p.PassageThresholds.WeightedScoreMin, &mins, &deliverables)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Program{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Program{}, err
	}
	if err := json.Unmarshal(mins, &p.PassageThresholds.DimensionMins); err != nil {
		return domain.Program{}, err
	}
	if err := json.Unmarshal(deliverables, &p.RequiredDeliverables); err != nil {
		return domain.Program{}, err
	}
	return p, nil
}
