package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/infra/http/handlers"
	"github.com/graniteflow/crm-backend/internal/infra/integration/scheduling"
	"github.com/graniteflow/crm-backend/internal/infra/queue"
	"github.com/graniteflow/crm-backend/internal/usecase"
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

// MockNotificationProducer
type MockNotificationProducer struct {
	mock.Mock
}

func (m *MockNotificationProducer) Publish(ctx context.Context, payload queue.NotificationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockNotificationProducer) PublishDelayed(ctx context.Context, payload queue.NotificationPayload, delay time.Duration) error {
	args := m.Called(ctx, payload, delay)
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

type leadHandlerFixture struct {
	leads     *MockLeadRepository
	reps      *MockSalesRepRepository
	customers *MockCustomerRepository
	producer  *MockNotificationProducer
	router    *chi.Mux
}

func newLeadHandlerFixture() *leadHandlerFixture {
	f := &leadHandlerFixture{
		leads:     new(MockLeadRepository),
		reps:      new(MockSalesRepRepository),
		customers: new(MockCustomerRepository),
		producer:  new(MockNotificationProducer),
	}

	capture := usecase.NewCaptureLeadUseCase(f.leads, f.producer, "ops@graniteflow.example", "https://crm.graniteflow.example")
	advance := usecase.NewAdvanceStageUseCase(f.leads, f.producer, new(MockSchedulingService), "ops@graniteflow.example", "production@graniteflow.example", "https://crm.graniteflow.example")
	route := usecase.NewRouteLeadUseCase(f.reps, f.producer, "https://crm.graniteflow.example")
	sequences := usecase.NewSequenceScheduler(f.producer, f.customers)

	h := handlers.NewLeadHandler(capture, advance, route, sequences, f.leads)

	f.router = chi.NewRouter()
	f.router.Post("/leads", h.CaptureLead)
	f.router.Get("/leads/{leadId}", h.GetLead)
	f.router.Put("/leads/{leadId}/stage", h.AdvanceStage)
	f.router.Post("/leads/{leadId}/route", h.RouteLead)
	f.router.Post("/leads/{leadId}/sequence", h.StartSequence)
	f.router.Post("/customers/{customerId}/retention", h.StartRetention)
	return f
}

func TestCaptureLeadEndpoint(t *testing.T) {
	f := newLeadHandlerFixture()

	f.leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.producer.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.producer.On("PublishDelayed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(map[string]any{
		"name":     "Ana Torres",
		"email":    "ana@example.com",
		"source":   "referral",
		"budget":   15000,
		"timeline": "immediate",
		"is_local": true,
	})

	req := httptest.NewRequest("POST", "/leads", bytes.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var lead entity.Lead
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &lead))
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, entity.StageNew, lead.Status)
	// 20 budget + 25 timeline + 15 local + 20 referral
	assert.Equal(t, 80, lead.Score)
}

func TestCaptureLeadEndpointInvalidJSON(t *testing.T) {
	f := newLeadHandlerFixture()

	req := httptest.NewRequest("POST", "/leads", bytes.NewReader([]byte("{not json")))
	req.Header.Set("X-Forwarded-For", "203.0.113.11")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_JSON")
}

func TestCaptureLeadEndpointValidationError(t *testing.T) {
	f := newLeadHandlerFixture()

	body, _ := json.Marshal(map[string]any{"name": "No Contact"})

	req := httptest.NewRequest("POST", "/leads", bytes.NewReader(body))
	req.Header.Set("X-Forwarded-For", "203.0.113.12")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestCaptureLeadEndpointRateLimited(t *testing.T) {
	f := newLeadHandlerFixture()

	f.leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.producer.On("Publish", mock.Anything, mock.Anything).Return(nil)
	f.producer.On("PublishDelayed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	body, _ := json.Marshal(map[string]any{
		"name":  "Ana Torres",
		"email": "ana@example.com",
	})

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest("POST", "/leads", bytes.NewReader(body))
		req.Header.Set("X-Forwarded-For", "203.0.113.99")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		last = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestGetLeadEndpointNotFound(t *testing.T) {
	f := newLeadHandlerFixture()

	f.leads.On("FindByID", mock.Anything, "missing").Return(nil, entity.ErrLeadNotFound)

	req := httptest.NewRequest("GET", "/leads/missing", nil)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "LEAD_NOT_FOUND")
}

func TestAdvanceStageEndpoint(t *testing.T) {
	f := newLeadHandlerFixture()

	stored := &entity.Lead{
		ID:     "lead-1",
		Name:   "Ana",
		Status: entity.StageNew,
		StageHistory: []entity.StageEntry{
			{Stage: entity.StageNew, EnteredAt: time.Now().Add(-time.Hour)},
		},
		Version: 1,
	}

	f.leads.On("FindByID", mock.Anything, "lead-1").Return(stored, nil)
	f.leads.On("AppendStage", mock.Anything, "lead-1", entity.StageContacted, mock.Anything, 1).Return(nil)

	body, _ := json.Marshal(map[string]string{"stage": "contacted"})

	req := httptest.NewRequest("PUT", "/leads/lead-1/stage", bytes.NewReader(body))
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var lead entity.Lead
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &lead))
	assert.Equal(t, entity.StageContacted, lead.Status)
	assert.Len(t, lead.StageHistory, 2)
}

func TestAdvanceStageEndpointConflict(t *testing.T) {
	f := newLeadHandlerFixture()

	stored := &entity.Lead{
		ID:      "lead-1",
		Status:  entity.StageNew,
		Version: 1,
	}

	f.leads.On("FindByID", mock.Anything, "lead-1").Return(stored, nil)
	f.leads.On("AppendStage", mock.Anything, "lead-1", entity.StageContacted, mock.Anything, 1).
		Return(entity.ErrVersionConflict)

	body, _ := json.Marshal(map[string]string{"stage": "contacted"})

	req := httptest.NewRequest("PUT", "/leads/lead-1/stage", bytes.NewReader(body))
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "STAGE_CONFLICT")
}

func TestRouteLeadEndpointNoCapacity(t *testing.T) {
	f := newLeadHandlerFixture()

	f.leads.On("FindByID", mock.Anything, "lead-1").Return(&entity.Lead{ID: "lead-1"}, nil)
	f.reps.On("FindAvailable", mock.Anything).Return([]*entity.SalesRep{}, nil)

	req := httptest.NewRequest("POST", "/leads/lead-1/route", nil)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"assigned": false}`, w.Body.String())
}

func TestStartRetentionEndpointCustomerNotFound(t *testing.T) {
	f := newLeadHandlerFixture()

	f.customers.On("FindByID", mock.Anything, "missing").Return(nil, entity.ErrCustomerNotFound)

	req := httptest.NewRequest("POST", "/customers/missing/retention", nil)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CUSTOMER_NOT_FOUND")
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := handlers.NewRateLimiter(2, 50*time.Millisecond)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// A different ip has its own budget.
	assert.True(t, rl.Allow("5.6.7.8"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("1.2.3.4"))
}
