package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/graniteflow/crm-backend/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO leads (
			id, name, email, phone, source, budget, timeline, is_local,
			project_notes, score, status, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		nullString(lead.Email),
		nullString(lead.Phone),
		lead.Source,
		lead.Budget,
		lead.Timeline,
		lead.IsLocal,
		nullString(lead.ProjectNotes),
		lead.Score,
		lead.Status,
		lead.Version,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	for _, entry := range lead.StageHistory {
		if err := insertStageEntry(ctx, tx, lead.ID, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), source, budget,
			timeline, is_local, COALESCE(project_notes, ''), score, status,
			COALESCE(assigned_rep_id, ''), version, created_at, updated_at
		FROM leads
		WHERE id = $1
	`

	var lead entity.Lead
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Source,
		&lead.Budget,
		&lead.Timeline,
		&lead.IsLocal,
		&lead.ProjectNotes,
		&lead.Score,
		&lead.Status,
		&lead.AssignedRepID,
		&lead.Version,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, err
	}

	history, err := r.loadStageHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	lead.StageHistory = history

	return &lead, nil
}

// AppendStage persists the transition atomically: the status/version update
// and the history insert either both land or neither does. A zero-row update
// means either a stale version (conflict) or a missing lead.
func (r *LeadRepository) AppendStage(ctx context.Context, id string, stage entity.PipelineStage, entry entity.StageEntry, expectedVersion int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE leads
		SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
	`, id, stage, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return entity.ErrLeadNotFound
		}
		return entity.ErrVersionConflict
	}

	if err := insertStageEntry(ctx, tx, id, entry); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *LeadRepository) UpdateAssignedRep(ctx context.Context, leadID, repID string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads SET assigned_rep_id = $2, updated_at = NOW() WHERE id = $1
	`, leadID, repID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) loadStageHistory(ctx context.Context, leadID string) ([]entity.StageEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT stage, entered_at, duration_seconds
		FROM lead_stage_history
		WHERE lead_id = $1
		ORDER BY entered_at, id
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stage history: %w", err)
	}
	defer rows.Close()

	var history []entity.StageEntry
	for rows.Next() {
		var entry entity.StageEntry
		if err := rows.Scan(&entry.Stage, &entry.EnteredAt, &entry.DurationSeconds); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}

	return history, rows.Err()
}

func insertStageEntry(ctx context.Context, tx *sql.Tx, leadID string, entry entity.StageEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO lead_stage_history (lead_id, stage, entered_at, duration_seconds)
		VALUES ($1, $2, $3, $4)
	`, leadID, entry.Stage, entry.EnteredAt, entry.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to insert stage history entry: %w", err)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
