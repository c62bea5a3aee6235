package handler

import (
	"context"
	"strings"

	"clinic_crm_backend/internal/allocation/service"
	"clinic_crm_backend/internal/allocation/transport"
	"clinic_crm_backend/platform/httpkit"
	"clinic_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Enqueuer hands a redistribution run to the background scheduler.
type Enqueuer interface {
	EnqueueLeadRedistribution(ctx context.Context) error
}

type Handler struct {
	svc      *service.Service
	val      *validator.Validator
	enqueuer Enqueuer
}

func New(svc *service.Service, val *validator.Validator, enqueuer Enqueuer) *Handler {
	return &Handler{svc: svc, val: val, enqueuer: enqueuer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/run", h.Run)
	rg.GET("/summary", h.Summary)
}

// Run executes an allocation action and returns the summary. With
// ?async=true a full redistribution is enqueued on the scheduler instead.
func (h *Handler) Run(c *gin.Context) {
	var req transport.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	if strings.EqualFold(c.Query("async"), "true") && h.enqueuer != nil {
		if err := h.enqueuer.EnqueueLeadRedistribution(c.Request.Context()); httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, gin.H{"success": true, "enqueued": true, "task": "leads.redistribute"})
		return
	}

	summary, err := h.svc.Run(c.Request.Context(), req.Action)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.RunResponse{Success: true, Summary: summary})
}

// Summary reports current per-team counts and value without touching
// any assignment.
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.svc.CurrentSummary(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.RunResponse{Success: true, Summary: summary})
}
