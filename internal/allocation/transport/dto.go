// Package transport defines the JSON shapes of the allocation trigger surface.
package transport

import "clinic_crm_backend/internal/allocation/service"

// RunRequest selects the allocation action.
type RunRequest struct {
	Action string `json:"action" binding:"omitempty,oneof=import_and_distribute import_only distribute_only"`
}

// RunResponse is returned by POST /allocation/run.
type RunResponse struct {
	Success bool            `json:"success"`
	Summary service.Summary `json:"summary"`
}
