package entity

import (
	"context"
	"time"
)

// WebhookEvent records a processed provider delivery for deduplication.
// Providers redeliver; the (provider, event id) pair is the idempotency key.
type WebhookEvent struct {
	Provider   string    `json:"provider"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	ReceivedAt time.Time `json:"received_at"`
}

type WebhookEventRepositoryInterface interface {
	// MarkProcessed claims the event id. It returns true when the event was
	// already claimed by an earlier delivery.
	MarkProcessed(ctx context.Context, provider, eventID, eventType string) (alreadyProcessed bool, err error)
	// DeleteOlderThan prunes claims received before the cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
