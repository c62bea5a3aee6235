package handler

import (
	"clinic_crm_backend/internal/gamification/service"
	"clinic_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/teams", h.Scoreboard)
}

// Scoreboard returns each team with its summed point total.
func (h *Handler) Scoreboard(c *gin.Context) {
	scores, err := h.svc.Scoreboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"teams": scores})
}
