package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/integration/ledger"
	"github.com/graniteflow/crm-backend/internal/infra/integration/scheduling"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) AppendStage(ctx context.Context, id string, stage entity.PipelineStage, entry entity.StageEntry, expectedVersion int) error {
	args := m.Called(ctx, id, stage, entry, expectedVersion)
	return args.Error(0)
}

func (m *MockLeadRepository) UpdateAssignedRep(ctx context.Context, leadID, repID string) error {
	args := m.Called(ctx, leadID, repID)
	return args.Error(0)
}

// MockSalesRepRepository
type MockSalesRepRepository struct {
	mock.Mock
}

func (m *MockSalesRepRepository) FindAvailable(ctx context.Context) ([]*entity.SalesRep, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.SalesRep), args.Error(1)
}

func (m *MockSalesRepRepository) AssignLead(ctx context.Context, leadID, repID string) error {
	args := m.Called(ctx, leadID, repID)
	return args.Error(0)
}

// MockEstimateRepository
type MockEstimateRepository struct {
	mock.Mock
}

func (m *MockEstimateRepository) FindByID(ctx context.Context, id string) (*entity.Estimate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) MarkPaid(ctx context.Context, id, paymentID string, amount float64, paidAt time.Time) error {
	args := m.Called(ctx, id, paymentID, amount, paidAt)
	return args.Error(0)
}

func (m *MockEstimateRepository) MarkPaymentFailed(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

// MockInvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	args := m.Called(ctx, id, paidAt)
	return args.Error(0)
}

// MockCustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id string) (*entity.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByGatewayID(ctx context.Context, gatewayID string) (*entity.Customer, error) {
	args := m.Called(ctx, gatewayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Customer), args.Error(1)
}

// MockWebhookEventRepository
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) MarkProcessed(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	args := m.Called(ctx, provider, eventID, eventType)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockNotificationProducer records every payload so tests can assert on the
// side-effect order, not just the call count.
type MockNotificationProducer struct {
	mock.Mock
	Published []queue.NotificationPayload
	Delayed   []DelayedPublish
}

type DelayedPublish struct {
	Payload queue.NotificationPayload
	Delay   time.Duration
}

func (m *MockNotificationProducer) Publish(ctx context.Context, payload queue.NotificationPayload) error {
	args := m.Called(ctx, payload)
	if args.Error(0) == nil {
		m.Published = append(m.Published, payload)
	}
	return args.Error(0)
}

func (m *MockNotificationProducer) PublishDelayed(ctx context.Context, payload queue.NotificationPayload, delay time.Duration) error {
	args := m.Called(ctx, payload, delay)
	if args.Error(0) == nil {
		m.Delayed = append(m.Delayed, DelayedPublish{Payload: payload, Delay: delay})
	}
	return args.Error(0)
}

// MockLedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) SyncPayment(ctx context.Context, record ledger.PaymentRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockSchedulingService
type MockSchedulingService struct {
	mock.Mock
}

func (m *MockSchedulingService) AvailableTimeSlots(ctx context.Context) ([]scheduling.TimeSlot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scheduling.TimeSlot), args.Error(1)
}

func (m *MockSchedulingService) CreateProjectSchedule(ctx context.Context, input scheduling.CreateScheduleInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// MockWorkflowTrigger
type MockWorkflowTrigger struct {
	mock.Mock
}

func (m *MockWorkflowTrigger) Trigger(ctx context.Context, estimateID, event string) error {
	args := m.Called(ctx, estimateID, event)
	return args.Error(0)
}
