package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/graniteflow/crm-backend/internal/entity"
)

type SalesRepRepository struct {
	DB *sql.DB
}

func NewSalesRepRepository(db *sql.DB) *SalesRepRepository {
	return &SalesRepRepository{DB: db}
}

// FindAvailable orders by id so routing tie-breaks stay deterministic.
func (r *SalesRepRepository) FindAvailable(ctx context.Context) ([]*entity.SalesRep, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, email, COALESCE(phone, ''), current_leads, max_leads
		FROM sales_reps
		WHERE current_leads < max_leads
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load available reps: %w", err)
	}
	defer rows.Close()

	var reps []*entity.SalesRep
	for rows.Next() {
		var rep entity.SalesRep
		if err := rows.Scan(&rep.ID, &rep.Name, &rep.Email, &rep.Phone, &rep.CurrentLeads, &rep.MaxLeads); err != nil {
			return nil, err
		}
		reps = append(reps, &rep)
	}

	return reps, rows.Err()
}

// AssignLead assigns the lead and bumps the rep's load in one transaction.
func (r *SalesRepRepository) AssignLead(ctx context.Context, leadID, repID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE leads SET assigned_rep_id = $2, updated_at = NOW() WHERE id = $1
	`, leadID, repID)
	if err != nil {
		return fmt.Errorf("failed to assign lead: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrLeadNotFound
	}

	// Guarded increment: a rep that filled up since FindAvailable stays at cap.
	res, err = tx.ExecContext(ctx, `
		UPDATE sales_reps SET current_leads = current_leads + 1
		WHERE id = $1 AND current_leads < max_leads
	`, repID)
	if err != nil {
		return fmt.Errorf("failed to update rep load: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("rep %s is at capacity", repID)
	}

	return tx.Commit()
}
