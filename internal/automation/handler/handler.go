package handler

import (
	"clinic_crm_backend/internal/automation/service"
	"clinic_crm_backend/internal/automation/transport"
	"clinic_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stage-change", h.StageChange)
	rg.GET("/history/:leadId", h.History)
}

// StageChange runs the automation pass for one stage transition.
func (h *Handler) StageChange(c *gin.Context) {
	var req transport.StageChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	in := service.TransitionInput{
		LeadID:     uuid.MustParse(req.LeadID),
		NewStageID: uuid.MustParse(req.NewStageID),
	}
	if req.OldStageID != nil {
		id := uuid.MustParse(*req.OldStageID)
		in.OldStageID = &id
	}
	if req.PerformedBy != nil {
		id := uuid.MustParse(*req.PerformedBy)
		in.PerformedBy = &id
	}

	result, err := h.svc.HandleTransition(c.Request.Context(), in)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.StageChangeResponse{Success: true, Result: result})
}

// History returns the recent automation runs for a lead.
func (h *Handler) History(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, 400, "invalid lead id", err.Error())
		return
	}

	history, err := h.svc.History(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.HistoryResponse{Success: true, History: history})
}
