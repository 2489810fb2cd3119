package entity

import "context"

// SalesRep is referenced for routing only; load and capacity drive the match score.
type SalesRep struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	CurrentLeads int    `json:"current_leads"`
	MaxLeads     int    `json:"max_leads"`
}

func (r *SalesRep) HasCapacity() bool {
	return r.CurrentLeads < r.MaxLeads
}

// SpareCapacityRatio is 1.0 for an idle rep and 0.0 for a fully loaded one.
func (r *SalesRep) SpareCapacityRatio() float64 {
	if r.MaxLeads <= 0 {
		return 0
	}
	return float64(r.MaxLeads-r.CurrentLeads) / float64(r.MaxLeads)
}

type SalesRepRepositoryInterface interface {
	// FindAvailable returns reps with spare capacity, ordered by id so that
	// routing tie-breaks are deterministic.
	FindAvailable(ctx context.Context) ([]*SalesRep, error)
	// AssignLead links the lead to the rep and bumps the rep's current load.
	AssignLead(ctx context.Context, leadID, repID string) error
}
