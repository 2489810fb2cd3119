package scheduling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/graniteflow/crm-backend/internal/infra/http/middleware"
)

// Client talks to the scheduling provider that owns the install calendar.
// It caches the OAuth token and refreshes it shortly before expiry.
type Client struct {
	HTTPClient   *http.Client
	BaseURL      string
	ClientID     string
	ClientSecret string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	payload, err := json.Marshal(authRequest{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		GrantType:    "client_credentials",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth/token", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("scheduling")
		return "", fmt.Errorf("scheduling auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		middleware.RecordIntegrationError("scheduling")
		return "", fmt.Errorf("scheduling auth failed (status %d): %s", resp.StatusCode, string(body))
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}

	c.token = auth.AccessToken
	// Refresh one minute early so in-flight calls never race expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(auth.ExpiresIn)*time.Second - time.Minute)

	return c.token, nil
}

func (c *Client) AvailableTimeSlots(ctx context.Context) ([]TimeSlot, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/slots/available", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("scheduling")
		return nil, fmt.Errorf("slots request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		middleware.RecordIntegrationError("scheduling")
		return nil, fmt.Errorf("slots request failed (status %d)", resp.StatusCode)
	}

	var out slotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode slots response: %w", err)
	}

	return out.Slots, nil
}

func (c *Client) CreateProjectSchedule(ctx context.Context, input CreateScheduleInput) (string, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(createScheduleRequest{
		ExternalRef:  input.LeadID,
		CustomerName: input.CustomerName,
		Notes:        input.Notes,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/schedules", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		middleware.RecordIntegrationError("scheduling")
		return "", fmt.Errorf("schedule request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		middleware.RecordIntegrationError("scheduling")
		return "", fmt.Errorf("schedule creation failed (status %d): %s", resp.StatusCode, string(body))
	}

	var out createScheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode schedule response: %w", err)
	}

	return out.ID, nil
}
