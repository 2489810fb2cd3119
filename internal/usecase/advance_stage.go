package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/integration/scheduling"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
)

const (
	estimateFollowUpDelay    = 72 * time.Hour
	maintenanceReminderDelay = 365 * 24 * time.Hour
)

type AdvanceStageUseCase struct {
	Leads           entity.LeadRepositoryInterface
	Producer        queue.NotificationProducerInterface
	Scheduling      SchedulingService
	OpsEmail        string
	ProductionEmail string
	FrontendURL     string
}

func NewAdvanceStageUseCase(
	leads entity.LeadRepositoryInterface,
	producer queue.NotificationProducerInterface,
	schedulingSvc SchedulingService,
	opsEmail string,
	productionEmail string,
	frontendURL string,
) *AdvanceStageUseCase {
	return &AdvanceStageUseCase{
		Leads:           leads,
		Producer:        producer,
		Scheduling:      schedulingSvc,
		OpsEmail:        opsEmail,
		ProductionEmail: productionEmail,
		FrontendURL:     frontendURL,
	}
}

// Execute moves the lead to the target stage and appends a history entry
// recording how long the previous stage lasted. The write is guarded by an
// optimistic version check so concurrent advances cannot lose updates.
// Stage order is NOT enforced: a lead may jump stages in either direction.
// Calling twice with the same target appends two history entries.
//
// The stage change is the primary effect. Once it is persisted, the
// stage-specific side effects run best-effort: failures are logged, never
// rolled back into the response.
func (uc *AdvanceStageUseCase) Execute(ctx context.Context, leadID string, stage entity.PipelineStage) (*entity.Lead, error) {
	if !stage.Valid() {
		return nil, &DomainError{
			Code:    "INVALID_STAGE",
			Message: fmt.Sprintf("unknown pipeline stage %q", stage),
		}
	}

	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, &DomainError{Code: "LEAD_NOT_FOUND", Message: "lead " + leadID + " not found"}
		}
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to load lead: " + err.Error()}
	}

	now := time.Now()
	entry := entity.StageEntry{
		Stage:     stage,
		EnteredAt: now,
	}
	if prev := lead.LastStageEntry(); prev != nil {
		entry.DurationSeconds = int64(now.Sub(prev.EnteredAt).Seconds())
	}

	if err := uc.Leads.AppendStage(ctx, lead.ID, stage, entry, lead.Version); err != nil {
		if errors.Is(err, entity.ErrVersionConflict) {
			return nil, &DomainError{
				Code:    "STAGE_CONFLICT",
				Message: "lead was updated concurrently, retry the stage change",
			}
		}
		return nil, &TechnicalError{Code: "DATABASE_ERROR", Message: "failed to advance stage: " + err.Error()}
	}

	lead.Status = stage
	lead.StageHistory = append(lead.StageHistory, entry)
	lead.Version++
	lead.UpdatedAt = now

	uc.runStageSideEffects(ctx, lead, stage)

	log.Printf("[PIPELINE] lead %s advanced to %s (entry #%d)", lead.ID, stage, len(lead.StageHistory))
	return lead, nil
}

func (uc *AdvanceStageUseCase) runStageSideEffects(ctx context.Context, lead *entity.Lead, stage entity.PipelineStage) {
	switch stage {
	case entity.StageQualified:
		uc.scheduleEstimateCall(ctx, lead)

	case entity.StageEstimateSent:
		uc.scheduleEstimateFollowUp(ctx, lead)

	case entity.StageContractSigned:
		// Both effects must run; neither blocks the other.
		uc.createProjectSchedule(ctx, lead)
		uc.notifyProductionTeam(ctx, lead)

	case entity.StageCompleted:
		uc.requestReview(ctx, lead)
		uc.scheduleMaintenanceReminder(ctx, lead)
	}
}

func (uc *AdvanceStageUseCase) scheduleEstimateCall(ctx context.Context, lead *entity.Lead) {
	if lead.Email != "" {
		data := map[string]string{
			"name":           lead.Name,
			"scheduling_url": uc.FrontendURL + "/schedule?lead=" + lead.ID,
		}

		// The next open slot is a nice touch in the email, not a requirement.
		slots, err := uc.Scheduling.AvailableTimeSlots(ctx)
		if err != nil {
			log.Printf("[PIPELINE] slot lookup failed for lead %s: %v", lead.ID, err)
		} else if len(slots) > 0 {
			data["next_slot"] = slots[0].Start.Format("Monday, January 2 at 3:04 PM")
		}

		err = uc.Producer.Publish(ctx, queue.NotificationPayload{
			Channel:  queue.ChannelEmail,
			To:       lead.Email,
			Template: "scheduling_link",
			LeadID:   lead.ID,
			Data:     data,
		})
		if err != nil {
			log.Printf("[PIPELINE] scheduling link failed for lead %s: %v", lead.ID, err)
		}
	}

	if lead.Phone != "" {
		err := uc.Producer.Publish(ctx, queue.NotificationPayload{
			Channel: queue.ChannelSMS,
			To:      lead.Phone,
			Message: fmt.Sprintf("Hi %s, this is GraniteFlow. Grab a time for your estimate call here: %s/schedule?lead=%s",
				lead.Name, uc.FrontendURL, lead.ID),
			LeadID: lead.ID,
		})
		if err != nil {
			log.Printf("[PIPELINE] SMS reminder failed for lead %s: %v", lead.ID, err)
		}
	}
}

func (uc *AdvanceStageUseCase) scheduleEstimateFollowUp(ctx context.Context, lead *entity.Lead) {
	if lead.Email == "" {
		return
	}
	err := uc.Producer.PublishDelayed(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       lead.Email,
		Template: "estimate_follow_up",
		LeadID:   lead.ID,
		Data: map[string]string{
			"name": lead.Name,
		},
	}, estimateFollowUpDelay)
	if err != nil {
		log.Printf("[PIPELINE] estimate follow-up failed for lead %s: %v", lead.ID, err)
	}
}

func (uc *AdvanceStageUseCase) createProjectSchedule(ctx context.Context, lead *entity.Lead) {
	scheduleID, err := uc.Scheduling.CreateProjectSchedule(ctx, scheduling.CreateScheduleInput{
		LeadID:       lead.ID,
		CustomerName: lead.Name,
		Notes:        lead.ProjectNotes,
	})
	if err != nil {
		log.Printf("[PIPELINE] project schedule creation failed for lead %s: %v", lead.ID, err)
		return
	}
	log.Printf("[PIPELINE] project schedule %s created for lead %s", scheduleID, lead.ID)
}

func (uc *AdvanceStageUseCase) notifyProductionTeam(ctx context.Context, lead *entity.Lead) {
	err := uc.Producer.Publish(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       uc.ProductionEmail,
		Template: "production_handoff",
		LeadID:   lead.ID,
		Data: map[string]string{
			"name":     lead.Name,
			"lead_url": uc.FrontendURL + "/leads/" + lead.ID,
			"notes":    lead.ProjectNotes,
		},
	})
	if err != nil {
		log.Printf("[PIPELINE] production handoff failed for lead %s: %v", lead.ID, err)
	}
}

func (uc *AdvanceStageUseCase) requestReview(ctx context.Context, lead *entity.Lead) {
	if lead.Email == "" {
		return
	}
	err := uc.Producer.Publish(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       lead.Email,
		Template: "review_request",
		LeadID:   lead.ID,
		Data: map[string]string{
			"name": lead.Name,
		},
	})
	if err != nil {
		log.Printf("[PIPELINE] review request failed for lead %s: %v", lead.ID, err)
	}
}

func (uc *AdvanceStageUseCase) scheduleMaintenanceReminder(ctx context.Context, lead *entity.Lead) {
	if lead.Email == "" {
		return
	}
	err := uc.Producer.PublishDelayed(ctx, queue.NotificationPayload{
		Channel:  queue.ChannelEmail,
		To:       lead.Email,
		Template: "maintenance_reminder",
		LeadID:   lead.ID,
		Data: map[string]string{
			"name": lead.Name,
		},
	}, maintenanceReminderDelay)
	if err != nil {
		log.Printf("[PIPELINE] maintenance reminder failed for lead %s: %v", lead.ID, err)
	}
}
