package smsgw

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/graniteflow/crm-backend/internal/infra/http/middleware"
)

// Client is the SMS gateway integration. The gateway expects a bearer token
// and a sender number registered with the account.
type Client struct {
	apiToken   string
	fromNumber string
	baseURL    string
	http       *http.Client
}

func NewClient(apiToken, fromNumber, baseURL string) *Client {
	return &Client{
		apiToken:   apiToken,
		fromNumber: fromNumber,
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SendMessage(input SendMessageInput) error {
	if c.apiToken == "" {
		log.Println("[SMSGW] API token not configured")
		return fmt.Errorf("sms gateway not configured")
	}

	payload, err := json.Marshal(sendMessageRequest{
		To:   input.PhoneNumber,
		From: c.fromNumber,
		Body: input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/messages", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("smsgw")
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		middleware.RecordIntegrationError("smsgw")
		return fmt.Errorf("sms gateway rejected message (status %d): %s", resp.StatusCode, string(body))
	}

	var out sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode sms response: %w", err)
	}

	log.Printf("[SMSGW] message %s queued (%s)", out.ID, out.Status)
	return nil
}
