package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"semear/internal/ports"
)

// AlertQueue

func (db *DB) EnqueueAlert(ctx context.Context, severity, message string) (string, error) {
	var id string
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO alerts (severity, message)
        VALUES ($1, $2)
        RETURNING id
    `, severity, message).Scan(&id)
	return id, err
}

// ClaimNextAlert selects the next queued alert using SKIP LOCKED and marks
// it sending, so concurrent workers never deliver the same alert twice.
func (db *DB) ClaimNextAlert(ctx context.Context) (alert ports.Alert, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return alert, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id, severity, message FROM alerts
        WHERE status = 'queued'
        ORDER BY queued_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `).Scan(&alert.ID, &alert.Severity, &alert.Message)
	if errors.Is(err, pgx.ErrNoRows) {
		err = nil
		return alert, false, nil
	}
	if err != nil {
		return alert, false, err
	}
	if _, err = tx.Exec(ctx, `
        UPDATE alerts SET status='sending', attempts=attempts+1 WHERE id=$1
    `, alert.ID); err != nil {
		return alert, false, err
	}
	return alert, true, nil
}

func (db *DB) MarkAlertSent(ctx context.Context, alertID string) error {
	_, err := db.Pool.Exec(ctx, `UPDATE alerts SET status='sent', sent_at=now() WHERE id=$1`, alertID)
	return err
}

func (db *DB) MarkAlertFailed(ctx context.Context, alertID string, reason string) error {
	_, err := db.Pool.Exec(ctx, `UPDATE alerts SET status='failed', reason=$2 WHERE id=$1`, alertID)
	return err
}
