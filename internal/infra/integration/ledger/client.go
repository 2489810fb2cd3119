package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/graniteflow/crm-backend/internal/infra/http/middleware"
)

// Client pushes payment records into the external accounting ledger.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SyncPayment(ctx context.Context, record PaymentRecord) error {
	url := fmt.Sprintf("%s/payments", c.baseURL)

	externalRef := record.EstimateID
	if externalRef == "" {
		externalRef = record.InvoiceID
	}

	payload := syncPaymentRequest{
		ExternalRef: externalRef,
		PaymentRef:  record.PaymentID,
		CustomerRef: record.CustomerRef,
		Amount:      record.Amount,
		Currency:    record.Currency,
		PaidAt:      record.PaidAt.Format(time.RFC3339),
		Source:      "graniteflow-crm",
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payment record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("ledger")
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("[LEDGER] sync rejected: %s", string(body))
		middleware.RecordIntegrationError("ledger")
		return fmt.Errorf("ledger sync failed (status %d)", resp.StatusCode)
	}

	var response syncPaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode ledger response: %w", err)
	}

	log.Printf("[LEDGER] payment synced as %s (%s)", response.ID, response.Status)
	return nil
}
