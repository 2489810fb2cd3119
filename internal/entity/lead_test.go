package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graniteflow/crm-backend/internal/entity"
)

func TestNewLead(t *testing.T) {
	lead := entity.NewLead("Ana Torres", "ana@example.com", "555-123-4567",
		entity.SourceReferral, 15000, entity.TimelineImmediate, true)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, entity.StageNew, lead.Status)
	assert.Equal(t, 1, lead.Version)

	// Capture seeds the first history entry.
	assert.Len(t, lead.StageHistory, 1)
	assert.Equal(t, entity.StageNew, lead.StageHistory[0].Stage)
	assert.Zero(t, lead.StageHistory[0].DurationSeconds)
}

func TestPipelineStageValid(t *testing.T) {
	for _, stage := range entity.PipelineStages {
		assert.True(t, stage.Valid(), string(stage))
	}

	assert.False(t, entity.PipelineStage("negotiating").Valid())
	assert.False(t, entity.PipelineStage("").Valid())
}

func TestLastStageEntry(t *testing.T) {
	lead := &entity.Lead{}
	assert.Nil(t, lead.LastStageEntry())

	lead.StageHistory = []entity.StageEntry{
		{Stage: entity.StageNew},
		{Stage: entity.StageContacted},
	}
	assert.Equal(t, entity.StageContacted, lead.LastStageEntry().Stage)
}

func TestSalesRepCapacity(t *testing.T) {
	rep := &entity.SalesRep{CurrentLeads: 3, MaxLeads: 10}
	assert.True(t, rep.HasCapacity())
	assert.InDelta(t, 0.7, rep.SpareCapacityRatio(), 0.0001)

	full := &entity.SalesRep{CurrentLeads: 10, MaxLeads: 10}
	assert.False(t, full.HasCapacity())
	assert.Zero(t, full.SpareCapacityRatio())

	// Misconfigured rep never receives leads.
	broken := &entity.SalesRep{CurrentLeads: 0, MaxLeads: 0}
	assert.False(t, broken.HasCapacity())
	assert.Zero(t, broken.SpareCapacityRatio())
}
