package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/graniteflow/crm-backend/internal/entity"
)

type InvoiceRepository struct {
	DB *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{DB: db}
}

func (r *InvoiceRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE invoices
		SET status = 'paid', paid_at = $2, updated_at = NOW()
		WHERE id = $1
	`, id, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrInvoiceNotFound
	}
	return nil
}
