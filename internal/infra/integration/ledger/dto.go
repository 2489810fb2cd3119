package ledger

import "time"

// PaymentRecord is what gets pushed to the accounting system for each
// successful payment. Amount is in major units.
type PaymentRecord struct {
	EstimateID  string    `json:"estimate_id,omitempty"`
	InvoiceID   string    `json:"invoice_id,omitempty"`
	PaymentID   string    `json:"payment_id,omitempty"`
	CustomerRef string    `json:"customer_ref,omitempty"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	PaidAt      time.Time `json:"paid_at"`
}

type syncPaymentRequest struct {
	ExternalRef string  `json:"externalRef"`
	PaymentRef  string  `json:"paymentRef,omitempty"`
	CustomerRef string  `json:"customerRef,omitempty"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PaidAt      string  `json:"paidAt"`
	Source      string  `json:"source"`
}

type syncPaymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
