package entity

import (
	"context"
	"errors"
	"time"
)

type Invoice struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	Amount     float64    `json:"amount"`
	Status     string     `json:"status"` // open, paid, void
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

var ErrInvoiceNotFound = errors.New("invoice not found")

type InvoiceRepositoryInterface interface {
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error
}
