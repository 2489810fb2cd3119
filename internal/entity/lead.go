package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type LeadSource string

const (
	SourceWebsite        LeadSource = "website"
	SourceReferral       LeadSource = "referral"
	SourceRepeatCustomer LeadSource = "repeat_customer"
	SourceGoogle         LeadSource = "google"
	SourceInstagram      LeadSource = "instagram"
	SourceYelp           LeadSource = "yelp"
	SourceOther          LeadSource = "other"
)

type Timeline string

const (
	TimelineImmediate   Timeline = "immediate"
	TimelineOneToThree  Timeline = "1-3_months"
	TimelineThreeToSix  Timeline = "3-6_months"
	TimelineUnspecified Timeline = "other"
)

type PipelineStage string

const (
	StageNew              PipelineStage = "new"
	StageContacted        PipelineStage = "contacted"
	StageQualified        PipelineStage = "qualified"
	StageEstimateSent     PipelineStage = "estimate_sent"
	StageEstimateApproved PipelineStage = "estimate_approved"
	StageContractSigned   PipelineStage = "contract_signed"
	StageProjectScheduled PipelineStage = "project_scheduled"
	StageInProgress       PipelineStage = "in_progress"
	StageCompleted        PipelineStage = "completed"
	StageClosed           PipelineStage = "closed"
)

// PipelineStages is the canonical stage order. Reference only: advancement is
// deliberately permissive and a lead may skip stages.
var PipelineStages = []PipelineStage{
	StageNew,
	StageContacted,
	StageQualified,
	StageEstimateSent,
	StageEstimateApproved,
	StageContractSigned,
	StageProjectScheduled,
	StageInProgress,
	StageCompleted,
	StageClosed,
}

func (s PipelineStage) Valid() bool {
	for _, stage := range PipelineStages {
		if s == stage {
			return true
		}
	}
	return false
}

// StageEntry is one record of the append-only stage history.
type StageEntry struct {
	Stage           PipelineStage `json:"stage"`
	EnteredAt       time.Time     `json:"entered_at"`
	DurationSeconds int64         `json:"duration_seconds"` // since the previous entry, 0 for the first
}

type Lead struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	Source        LeadSource    `json:"source"`
	Budget        float64       `json:"budget"`
	Timeline      Timeline      `json:"timeline"`
	IsLocal       bool          `json:"is_local"`
	ProjectNotes  string        `json:"project_notes,omitempty"`
	Score         int           `json:"score"` // 0-100, computed at capture
	Status        PipelineStage `json:"status"`
	AssignedRepID string        `json:"assigned_rep_id,omitempty"`
	StageHistory  []StageEntry  `json:"stage_history"`
	Version       int           `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

var (
	ErrLeadNotFound    = errors.New("lead not found")
	ErrVersionConflict = errors.New("lead was modified concurrently")
)

// NewLead builds a lead in the "new" stage with its first history entry.
func NewLead(name, email, phone string, source LeadSource, budget float64, timeline Timeline, isLocal bool) *Lead {
	now := time.Now()
	return &Lead{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Phone:    phone,
		Source:   source,
		Budget:   budget,
		Timeline: timeline,
		IsLocal:  isLocal,
		Status:   StageNew,
		StageHistory: []StageEntry{
			{Stage: StageNew, EnteredAt: now},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LastStageEntry returns the most recent history entry, or nil for an empty history.
func (l *Lead) LastStageEntry() *StageEntry {
	if len(l.StageHistory) == 0 {
		return nil
	}
	return &l.StageHistory[len(l.StageHistory)-1]
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// AppendStage persists the new status and history entry only when the
	// stored version still matches expectedVersion. ErrVersionConflict otherwise.
	AppendStage(ctx context.Context, id string, stage PipelineStage, entry StageEntry, expectedVersion int) error
	UpdateAssignedRep(ctx context.Context, leadID, repID string) error
}
