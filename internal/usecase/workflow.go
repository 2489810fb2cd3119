package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/graniteflow/crm-backend/internal/entity"
)

// StageWorkflow maps payment-side workflow events onto pipeline stage
// advances for the lead linked to an estimate.
type StageWorkflow struct {
	Estimates entity.EstimateRepositoryInterface
	Advance   *AdvanceStageUseCase
}

func NewStageWorkflow(
	estimates entity.EstimateRepositoryInterface,
	advance *AdvanceStageUseCase,
) *StageWorkflow {
	return &StageWorkflow{
		Estimates: estimates,
		Advance:   advance,
	}
}

func (w *StageWorkflow) Trigger(ctx context.Context, estimateID, event string) error {
	estimate, err := w.Estimates.FindByID(ctx, estimateID)
	if err != nil {
		if errors.Is(err, entity.ErrEstimateNotFound) {
			// Unknown correlation id is a soft condition.
			log.Printf("[WORKFLOW] estimate %s not found for event %s, skipping", estimateID, event)
			return nil
		}
		return err
	}
	if estimate.LeadID == "" {
		log.Printf("[WORKFLOW] estimate %s has no linked lead, skipping %s", estimateID, event)
		return nil
	}

	switch event {
	case WorkflowPaymentReceived:
		_, err := w.Advance.Execute(ctx, estimate.LeadID, entity.StageEstimateApproved)
		return err

	default:
		log.Printf("[WORKFLOW] unknown workflow event %q for estimate %s", event, estimateID)
		return nil
	}
}
