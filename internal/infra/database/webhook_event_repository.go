package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type WebhookEventRepository struct {
	DB *sql.DB
}

func NewWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{DB: db}
}

// MarkProcessed claims (provider, event_id) via the unique index. A conflict
// means an earlier delivery already claimed it.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO webhook_events (provider, event_id, event_type, received_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (provider, event_id) DO NOTHING
	`, provider, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 0, nil
}

func (r *WebhookEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM webhook_events WHERE received_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune webhook events: %w", err)
	}

	return res.RowsAffected()
}
