package worker

import (
	"context"
	"log"
	"time"

	"github.com/graniteflow/crm-backend/internal/entity"
)

// WebhookEventPruner enforces the retention window on the webhook dedup
// store. Provider redeliveries arrive within days; keeping claims for 30 days
// is generous and keeps the table small.
type WebhookEventPruner struct {
	events       entity.WebhookEventRepositoryInterface
	retention    time.Duration
	tickInterval time.Duration
}

func NewWebhookEventPruner(events entity.WebhookEventRepositoryInterface) *WebhookEventPruner {
	return &WebhookEventPruner{
		events:       events,
		retention:    30 * 24 * time.Hour,
		tickInterval: time.Hour,
	}
}

func (w *WebhookEventPruner) Start(ctx context.Context) {
	log.Printf("[PRUNER] webhook event pruner started (retention %s)", w.retention)

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[PRUNER] webhook event pruner stopped")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *WebhookEventPruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-w.retention)

	deleted, err := w.events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("[PRUNER] failed to prune webhook events: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("[PRUNER] pruned %d webhook event(s) older than %s", deleted, cutoff.Format(time.RFC3339))
	}
}
