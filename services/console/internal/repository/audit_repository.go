package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/checkin-console/services/console/internal/domain"
)

type AuditRepository interface {
	RecordImport(ctx context.Context, run *domain.ImportRun) error
	RecordCheckout(ctx context.Context, run *domain.CheckoutRun) error
	ListImports(ctx context.Context, limit, offset int) ([]domain.ImportRun, error)
	ListCheckouts(ctx context.Context, checkInID int64) ([]domain.CheckoutRun, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) RecordImport(ctx context.Context, run *domain.ImportRun) error {
	const q = `
		INSERT INTO console_import_runs
			(session_id, kind, file_name, row_count, local_errors, success_count,
			 error_count, status, failure_message, submitted_by, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := r.pool.QueryRow(ctx, q,
		run.SessionID, run.Kind, run.FileName, run.RowCount, run.LocalErrors, run.SuccessCount,
		run.ErrorCount, run.Status, run.FailureMessage, run.SubmittedBy, run.SubmittedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}
	return nil
}

func (r *auditRepository) RecordCheckout(ctx context.Context, run *domain.CheckoutRun) error {
	const q = `
		INSERT INTO console_checkouts
			(checkin_id, mode, guests, succeeded, message, performed_by, performed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	guests := run.Guests
	if guests == nil {
		guests = []string{}
	}
	err := r.pool.QueryRow(ctx, q,
		run.CheckInID, string(run.Mode), guests, run.Succeeded, run.Message, run.PerformedBy, run.PerformedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to record checkout: %w", err)
	}
	return nil
}

func (r *auditRepository) ListImports(ctx context.Context, limit, offset int) ([]domain.ImportRun, error) {
	const q = `
		SELECT id, session_id, kind, file_name, row_count, local_errors, success_count,
		       error_count, status, failure_message, submitted_by, submitted_at
		FROM console_import_runs
		ORDER BY submitted_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ImportRun, error) {
		var run domain.ImportRun
		err := row.Scan(
			&run.ID, &run.SessionID, &run.Kind, &run.FileName, &run.RowCount, &run.LocalErrors,
			&run.SuccessCount, &run.ErrorCount, &run.Status, &run.FailureMessage,
			&run.SubmittedBy, &run.SubmittedAt,
		)
		return run, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan import runs: %w", err)
	}
	return runs, nil
}

func (r *auditRepository) ListCheckouts(ctx context.Context, checkInID int64) ([]domain.CheckoutRun, error) {
	const q = `
		SELECT id, checkin_id, mode, guests, succeeded, message, performed_by, performed_at
		FROM console_checkouts
		WHERE checkin_id = $1
		ORDER BY performed_at DESC, id DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, checkInID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkouts: %w", err)
	}
	defer rows.Close()

	var runs []domain.CheckoutRun
	for rows.Next() {
		var run domain.CheckoutRun
		var mode string
		if err := rows.Scan(&run.ID, &run.CheckInID, &mode, &run.Guests, &run.Succeeded,
			&run.Message, &run.PerformedBy, &run.PerformedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkout: %w", err)
		}
		run.Mode = domain.CheckoutMode(mode)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
