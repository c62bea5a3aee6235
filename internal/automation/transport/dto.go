package transport

import (
	"clinic_crm_backend/internal/automation/repository"
	"clinic_crm_backend/internal/automation/service"
)

// StageChangeRequest is the trigger payload of a stage transition.
type StageChangeRequest struct {
	LeadID      string  `json:"leadId" binding:"required,uuid"`
	OldStageID  *string `json:"oldStageId,omitempty" binding:"omitempty,uuid"`
	NewStageID  string  `json:"newStageId" binding:"required,uuid"`
	PerformedBy *string `json:"performedBy,omitempty" binding:"omitempty,uuid"`
}

// StageChangeResponse wraps the engine result.
type StageChangeResponse struct {
	Success bool `json:"success"`
	service.Result
}

// HistoryResponse lists the recent automation runs of a lead.
type HistoryResponse struct {
	Success bool                      `json:"success"`
	History []repository.HistoryEntry `json:"history"`
}
