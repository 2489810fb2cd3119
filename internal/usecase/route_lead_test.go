package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/graniteflow/crm-backend/internal/entity"
	"github.com/graniteflow/crm-backend/internal/usecase"
)

func routableLead() *entity.Lead {
	return &entity.Lead{
		ID:    "lead-1",
		Name:  "Ana Torres",
		Score: 80,
	}
}

func TestRouteLeadPicksLeastLoadedRep(t *testing.T) {
	ctx := context.Background()

	mockReps := new(MockSalesRepRepository)
	mockProducer := new(MockNotificationProducer)

	reps := []*entity.SalesRep{
		{ID: "rep-1", Name: "Busy", Email: "busy@graniteflow.example", CurrentLeads: 9, MaxLeads: 10},
		{ID: "rep-2", Name: "Idle", Email: "idle@graniteflow.example", CurrentLeads: 1, MaxLeads: 10},
	}

	mockReps.On("FindAvailable", ctx).Return(reps, nil)
	mockReps.On("AssignLead", ctx, "lead-1", "rep-2").Return(nil)
	mockProducer.On("Publish", ctx, mock.Anything).Return(nil)

	uc := usecase.NewRouteLeadUseCase(mockReps, mockProducer, "https://crm.graniteflow.example")

	lead := routableLead()
	rep, err := uc.Execute(ctx, lead)

	assert.NoError(t, err)
	assert.NotNil(t, rep)
	assert.Equal(t, "rep-2", rep.ID)
	assert.Equal(t, "rep-2", lead.AssignedRepID)

	mockReps.AssertCalled(t, "AssignLead", ctx, "lead-1", "rep-2")

	assert.Len(t, mockProducer.Published, 1)
	assert.Equal(t, "rep_assignment", mockProducer.Published[0].Template)
	assert.Equal(t, "idle@graniteflow.example", mockProducer.Published[0].To)
}

func TestRouteLeadAllRepsAtCapacity(t *testing.T) {
	ctx := context.Background()

	mockReps := new(MockSalesRepRepository)
	mockProducer := new(MockNotificationProducer)

	reps := []*entity.SalesRep{
		{ID: "rep-1", CurrentLeads: 10, MaxLeads: 10},
		{ID: "rep-2", CurrentLeads: 5, MaxLeads: 5},
	}

	mockReps.On("FindAvailable", ctx).Return(reps, nil)

	uc := usecase.NewRouteLeadUseCase(mockReps, mockProducer, "https://crm.graniteflow.example")

	rep, err := uc.Execute(ctx, routableLead())

	// No rep and no error: the lead stays unassigned.
	assert.NoError(t, err)
	assert.Nil(t, rep)
	mockReps.AssertNotCalled(t, "AssignLead")
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestRouteLeadNoRepsAtAll(t *testing.T) {
	ctx := context.Background()

	mockReps := new(MockSalesRepRepository)
	mockProducer := new(MockNotificationProducer)

	mockReps.On("FindAvailable", ctx).Return([]*entity.SalesRep{}, nil)

	uc := usecase.NewRouteLeadUseCase(mockReps, mockProducer, "https://crm.graniteflow.example")

	rep, err := uc.Execute(ctx, routableLead())

	assert.NoError(t, err)
	assert.Nil(t, rep)
}

func TestRouteLeadTieBreaksToFirstCandidate(t *testing.T) {
	ctx := context.Background()

	mockReps := new(MockSalesRepRepository)
	mockProducer := new(MockNotificationProducer)

	// Identical load and capacity; candidates arrive ordered by id.
	reps := []*entity.SalesRep{
		{ID: "rep-1", Name: "First", Email: "first@graniteflow.example", CurrentLeads: 3, MaxLeads: 10},
		{ID: "rep-2", Name: "Second", Email: "second@graniteflow.example", CurrentLeads: 3, MaxLeads: 10},
		{ID: "rep-3", Name: "Third", Email: "third@graniteflow.example", CurrentLeads: 3, MaxLeads: 10},
	}

	mockReps.On("FindAvailable", ctx).Return(reps, nil)
	mockReps.On("AssignLead", ctx, "lead-1", "rep-1").Return(nil)
	mockProducer.On("Publish", ctx, mock.Anything).Return(nil)

	uc := usecase.NewRouteLeadUseCase(mockReps, mockProducer, "https://crm.graniteflow.example")

	rep, err := uc.Execute(ctx, routableLead())

	assert.NoError(t, err)
	assert.Equal(t, "rep-1", rep.ID)
}

func TestRouteLeadAssignmentFailure(t *testing.T) {
	ctx := context.Background()

	mockReps := new(MockSalesRepRepository)
	mockProducer := new(MockNotificationProducer)

	reps := []*entity.SalesRep{
		{ID: "rep-1", CurrentLeads: 0, MaxLeads: 10},
	}

	mockReps.On("FindAvailable", ctx).Return(reps, nil)
	mockReps.On("AssignLead", ctx, "lead-1", "rep-1").Return(errors.New("deadlock detected"))

	uc := usecase.NewRouteLeadUseCase(mockReps, mockProducer, "https://crm.graniteflow.example")

	rep, err := uc.Execute(ctx, routableLead())

	assert.Error(t, err)
	assert.Nil(t, rep)
	assert.True(t, usecase.IsTechnicalError(err))
	mockProducer.AssertNotCalled(t, "Publish")
}

func TestRouteLeadNotificationFailureStillAssigns(t *testing.T) {
	ctx := context.Background()

	mockReps := new(MockSalesRepRepository)
	mockProducer := new(MockNotificationProducer)

	reps := []*entity.SalesRep{
		{ID: "rep-1", Email: "rep@graniteflow.example", CurrentLeads: 0, MaxLeads: 10},
	}

	mockReps.On("FindAvailable", ctx).Return(reps, nil)
	mockReps.On("AssignLead", ctx, "lead-1", "rep-1").Return(nil)
	mockProducer.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	uc := usecase.NewRouteLeadUseCase(mockReps, mockProducer, "https://crm.graniteflow.example")

	rep, err := uc.Execute(ctx, routableLead())

	assert.NoError(t, err)
	assert.NotNil(t, rep)
	assert.Equal(t, "rep-1", rep.ID)
}
