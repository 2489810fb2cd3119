package entity

import (
	"context"
	"errors"
	"time"
)

const (
	EstimateStatusPending       = "pending"
	EstimateStatusSent          = "sent"
	EstimateStatusApproved      = "approved"
	EstimateStatusPaid          = "paid"
	EstimateStatusPaymentFailed = "payment_failed"
)

// Estimate is the billable record a payment event correlates back to via
// metadata. Amounts are in major currency units (dollars).
type Estimate struct {
	ID            string     `json:"id"`
	LeadID        string     `json:"lead_id,omitempty"`
	CustomerID    string     `json:"customer_id,omitempty"`
	Description   string     `json:"description,omitempty"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	PaymentID     string     `json:"payment_id,omitempty"`
	PaidAmount    float64    `json:"paid_amount,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

var ErrEstimateNotFound = errors.New("estimate not found")

type EstimateRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Estimate, error)
	MarkPaid(ctx context.Context, id, paymentID string, amount float64, paidAt time.Time) error
	MarkPaymentFailed(ctx context.Context, id, reason string) error
}
