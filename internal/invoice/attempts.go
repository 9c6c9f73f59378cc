package invoice

import (
	"context"

	"bookpass/internal/logger"

	"github.com/jmoiron/sqlx"
)

// AttemptRepository persists the reconciliation log of invoice operations.
type AttemptRepository interface {
	Record(ctx context.Context, a Attempt) error
	ListByTarget(ctx context.Context, kind string, targetID int) ([]Attempt, error)
}

type attemptRepository struct {
	db *sqlx.DB
}

func NewAttemptRepository(db *sqlx.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Record(ctx context.Context, a Attempt) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invoice_attempts
		 (tenant_id, kind, target_id, status, invoice_id, request_snapshot, response_snapshot, error_detail)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.TenantID, a.Kind, a.TargetID, a.Status, a.InvoiceID,
		a.RequestSnapshot, a.ResponseSnapshot, a.ErrorDetail,
	)
	if err != nil {
		// The log must never take the primary flow down with it.
		logger.Errorf("Failed to record invoice attempt (%s %d): %v", a.Kind, a.TargetID, err)
	}
	return err
}

func (r *attemptRepository) ListByTarget(ctx context.Context, kind string, targetID int) ([]Attempt, error) {
	var attempts []Attempt
	err := r.db.SelectContext(ctx, &attempts,
		`SELECT id, tenant_id, kind, target_id, status, invoice_id,
		        request_snapshot, response_snapshot, error_detail, created_at
		 FROM invoice_attempts
		 WHERE kind = $1 AND target_id = $2
		 ORDER BY created_at DESC`,
		kind, targetID,
	)
	if err != nil {
		return nil, err
	}

	return attempts, nil
}
