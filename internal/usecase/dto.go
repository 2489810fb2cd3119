package usecase

import "github.com/graniteflow/crm-backend/internal/entity"

type CaptureLeadInput struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Source       entity.LeadSource `json:"source"`
	Budget       float64           `json:"budget"`
	Timeline     entity.Timeline   `json:"timeline"`
	IsLocal      bool              `json:"is_local"`
	ProjectNotes string            `json:"project_notes"`
}

type AdvanceStageInput struct {
	LeadID string               `json:"lead_id"`
	Stage  entity.PipelineStage `json:"stage"`
}
