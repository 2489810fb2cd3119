package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncPaymentSendsEstimateAsExternalRef(t *testing.T) {
	var got syncPaymentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "Bearer ledger-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(syncPaymentResponse{ID: "led_1", Status: "recorded"})
	}))
	defer srv.Close()

	c := NewClient("ledger-key", srv.URL)
	err := c.SyncPayment(context.Background(), PaymentRecord{
		EstimateID: "E1",
		PaymentID:  "pi_1",
		Amount:     100.0,
		Currency:   "usd",
		PaidAt:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	})

	assert.NoError(t, err)
	assert.Equal(t, "E1", got.ExternalRef)
	assert.Equal(t, "pi_1", got.PaymentRef)
	assert.Equal(t, 100.0, got.Amount)
	assert.Equal(t, "graniteflow-crm", got.Source)
}

func TestSyncPaymentFallsBackToInvoiceRef(t *testing.T) {
	var got syncPaymentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(syncPaymentResponse{ID: "led_2", Status: "recorded"})
	}))
	defer srv.Close()

	c := NewClient("ledger-key", srv.URL)
	err := c.SyncPayment(context.Background(), PaymentRecord{
		InvoiceID: "inv_1",
		Amount:    2500.0,
		Currency:  "usd",
		PaidAt:    time.Now(),
	})

	assert.NoError(t, err)
	assert.Equal(t, "inv_1", got.ExternalRef)
}

func TestSyncPaymentRejectedReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"duplicate payment"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("ledger-key", srv.URL)
	err := c.SyncPayment(context.Background(), PaymentRecord{EstimateID: "E1", Amount: 100.0, Currency: "usd", PaidAt: time.Now()})

	assert.ErrorContains(t, err, "ledger sync failed (status 422)")
}
