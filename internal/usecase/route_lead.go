package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
)

type RouteLeadUseCase struct {
	Reps        entity.SalesRepRepositoryInterface
	Producer    queue.NotificationProducerInterface
	FrontendURL string
}

func NewRouteLeadUseCase(
	reps entity.SalesRepRepositoryInterface,
	producer queue.NotificationProducerInterface,
	frontendURL string,
) *RouteLeadUseCase {
	return &RouteLeadUseCase{
		Reps:        reps,
		Producer:    producer,
		FrontendURL: frontendURL,
	}
}

// Execute picks the best available rep for the lead, assigns it and notifies
// the rep. Returning (nil, nil) means every rep is at capacity, which is a
// normal outcome and not an error.
//
// Ties break deterministically: candidates come back ordered by id and only a
// strictly higher match score displaces the current best, so the first
// candidate wins ties.
func (uc *RouteLeadUseCase) Execute(ctx context.Context, lead *entity.Lead) (*entity.SalesRep, error) {
	reps, err := uc.Reps.FindAvailable(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load sales reps: " + err.Error()}
	}

	var best *entity.SalesRep
	var bestScore float64

	for _, rep := range reps {
		if !rep.HasCapacity() {
			continue
		}
		score := matchScore(lead, rep)
		if best == nil || score > bestScore {
			best = rep
			bestScore = score
		}
	}

	if best == nil {
		log.Printf("[ROUTING] no rep with spare capacity for lead %s", lead.ID)
		return nil, nil
	}

	if err := uc.Reps.AssignLead(ctx, lead.ID, best.ID); err != nil {
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to assign lead: " + err.Error()}
	}
	lead.AssignedRepID = best.ID

	err = uc.Producer.Publish(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       best.Email,
		Template: "rep_assignment",
		LeadID:   lead.ID,
		Data: map[string]string{
			"rep_name":  best.Name,
			"lead_name": lead.Name,
			"score":     fmt.Sprintf("%d", lead.Score),
			"lead_url":  uc.FrontendURL + "/leads/" + lead.ID,
		},
	})
	if err != nil {
		log.Printf("[ROUTING] rep notification failed (lead=%s rep=%s): %v", lead.ID, best.ID, err)
	}

	log.Printf("[ROUTING] lead %s assigned to rep %s (match=%.1f)", lead.ID, best.ID, bestScore)
	return best, nil
}

// matchScore weighs rep availability against lead priority. Higher is better.
func matchScore(lead *entity.Lead, rep *entity.SalesRep) float64 {
	return rep.SpareCapacityRatio()*60 + float64(lead.Score)*0.4
}
