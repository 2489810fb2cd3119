package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
)

const followUpDelay = 24 * time.Hour

type CaptureLeadUseCase struct {
	Leads       entity.LeadRepositoryInterface
	Producer    queue.NotificationProducerInterface
	OpsEmail    string
	FrontendURL string
}

func NewCaptureLeadUseCase(
	leads entity.LeadRepositoryInterface,
	producer queue.NotificationProducerInterface,
	opsEmail string,
	frontendURL string,
) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		Leads:       leads,
		Producer:    producer,
		OpsEmail:    opsEmail,
		FrontendURL: frontendURL,
	}
}

// Execute scores and persists a new lead, then runs the capture side effects
// in order: welcome notification, internal new-lead alert, follow-up schedule.
// The persisted lead is the primary effect; notification failures are logged
// and never fail the capture.
func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input CaptureLeadInput) (*entity.Lead, error) {
	validationErrors := ValidateCaptureLeadInput(input)
	if len(validationErrors) > 0 {
		errMsg := "validation failed: "
		for _, e := range validationErrors {
			errMsg += e.Field + " (" + e.Message + "), "
		}
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: errMsg,
		}
	}

	lead := entity.NewLead(
		input.Name, input.Email, input.Phone,
		input.Source, input.Budget, input.Timeline, input.IsLocal,
	)
	lead.ProjectNotes = input.ProjectNotes
	lead.Score = ScoreLead(input)

	if err := uc.Leads.Create(ctx, lead); err != nil {
		return nil, &TechnicalError{
			Code:    "DATABASE_ERROR",
			Message: "failed to persist lead: " + err.Error(),
		}
	}

	if lead.Email != "" {
		err := uc.Producer.Publish(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       lead.Email,
			Template: "welcome",
			LeadID:   lead.ID,
			Data: map[string]string{
				"name": lead.Name,
			},
		})
		if err != nil {
			log.Printf("[CAPTURE] welcome notification failed for lead %s: %v", lead.ID, err)
		}
	}

	err := uc.Producer.Publish(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       uc.OpsEmail,
		Template: "internal_new_lead",
		LeadID:   lead.ID,
		Data: map[string]string{
			"name":     lead.Name,
			"score":    fmt.Sprintf("%d", lead.Score),
			"source":   string(lead.Source),
			"budget":   fmt.Sprintf("%.2f", lead.Budget),
			"lead_url": uc.FrontendURL + "/leads/" + lead.ID,
		},
	})
	if err != nil {
		log.Printf("[CAPTURE] internal alert failed for lead %s: %v", lead.ID, err)
	}

	if lead.Email != "" {
		err = uc.Producer.PublishDelayed(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       lead.Email,
			Template: "follow_up",
			LeadID:   lead.ID,
			Data: map[string]string{
				"name": lead.Name,
			},
		}, followUpDelay)
		if err != nil {
			log.Printf("[CAPTURE] follow-up scheduling failed for lead %s: %v", lead.ID, err)
		}
	}

	log.Printf("[CAPTURE] lead %s captured (score=%d source=%s)", lead.ID, lead.Score, lead.Source)
	return lead, nil
}
