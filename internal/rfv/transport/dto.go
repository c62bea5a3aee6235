// Package transport defines the JSON shapes of the RFV trigger surface.
package transport

import "clinic_crm_backend/internal/rfv/service"

// RecalculateResponse is returned by POST /rfv/recalculate.
type RecalculateResponse struct {
	Success bool          `json:"success"`
	Stats   service.Stats `json:"stats"`
}

// EnqueuedResponse is returned when the run was handed to the scheduler.
type EnqueuedResponse struct {
	Success  bool   `json:"success"`
	Enqueued bool   `json:"enqueued"`
	Task     string `json:"task"`
}
