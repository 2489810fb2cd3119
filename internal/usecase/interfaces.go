package usecase

import (
	"context"

	"github.com/graniteflow/crm-backend/internal/infra/integration/ledger"
	"github.com/graniteflow/crm-backend/internal/infra/integration/scheduling"
)

// LedgerService syncs payment records to the external accounting system.
type LedgerService interface {
	SyncPayment(ctx context.Context, record ledger.PaymentRecord) error
}

// SchedulingService is the calendar/production-schedule collaborator.
type SchedulingService interface {
	AvailableTimeSlots(ctx context.Context) ([]scheduling.TimeSlot, error)
	CreateProjectSchedule(ctx context.Context, input scheduling.CreateScheduleInput) (string, error)
}

// WorkflowTrigger advances the surrounding CRM workflow in response to a
// payment event (e.g. "payment_received" for an estimate).
type WorkflowTrigger interface {
	Trigger(ctx context.Context, estimateID, event string) error
}
