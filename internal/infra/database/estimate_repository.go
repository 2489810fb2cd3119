package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/graniteflow/crm-backend/internal/entity"
)

type EstimateRepository struct {
	DB *sql.DB
}

func NewEstimateRepository(db *sql.DB) *EstimateRepository {
	return &EstimateRepository{DB: db}
}

func (r *EstimateRepository) FindByID(ctx context.Context, id string) (*entity.Estimate, error) {
	query := `
		SELECT id, COALESCE(lead_id, ''), COALESCE(customer_id, ''),
			COALESCE(description, ''), amount, status,
			COALESCE(payment_id, ''), COALESCE(paid_amount, 0), paid_at,
			COALESCE(failure_reason, ''), created_at, updated_at
		FROM estimates
		WHERE id = $1
	`

	var est entity.Estimate
	var paidAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&est.ID,
		&est.LeadID,
		&est.CustomerID,
		&est.Description,
		&est.Amount,
		&est.Status,
		&est.PaymentID,
		&est.PaidAmount,
		&paidAt,
		&est.FailureReason,
		&est.CreatedAt,
		&est.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrEstimateNotFound
		}
		return nil, err
	}
	if paidAt.Valid {
		est.PaidAt = &paidAt.Time
	}

	return &est, nil
}

func (r *EstimateRepository) MarkPaid(ctx context.Context, id, paymentID string, amount float64, paidAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE estimates
		SET status = $2, payment_id = $3, paid_amount = $4, paid_at = $5, updated_at = NOW()
		WHERE id = $1
	`, id, entity.EstimateStatusPaid, paymentID, amount, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark estimate paid: %w", err)
	}
	return checkFound(res)
}

func (r *EstimateRepository) MarkPaymentFailed(ctx context.Context, id, reason string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE estimates
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1
	`, id, entity.EstimateStatusPaymentFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark estimate payment_failed: %w", err)
	}
	return checkFound(res)
}

func checkFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrEstimateNotFound
	}
	return nil
}
