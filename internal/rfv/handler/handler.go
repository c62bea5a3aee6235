package handler

import (
	"context"
	"strconv"
	"strings"

	"clinic_crm_backend/internal/rfv/repository"
	"clinic_crm_backend/internal/rfv/service"
	"clinic_crm_backend/internal/rfv/transport"
	"clinic_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Enqueuer hands a recalculation run to the background scheduler.
type Enqueuer interface {
	EnqueueRFVRecalculate(ctx context.Context) error
}

type Handler struct {
	svc      *service.Service
	repo     *repository.Repository
	enqueuer Enqueuer
}

func New(svc *service.Service, repo *repository.Repository, enqueuer Enqueuer) *Handler {
	return &Handler{svc: svc, repo: repo, enqueuer: enqueuer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recalculate", h.Recalculate)
	rg.GET("/profiles", h.ListProfiles)
}

// Recalculate triggers a full RFV recomputation. With ?async=true the
// run is enqueued on the scheduler instead of executed inline.
func (h *Handler) Recalculate(c *gin.Context) {
	if strings.EqualFold(c.Query("async"), "true") && h.enqueuer != nil {
		if err := h.enqueuer.EnqueueRFVRecalculate(c.Request.Context()); httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, transport.EnqueuedResponse{Success: true, Enqueued: true, Task: "rfv.recalculate"})
		return
	}

	stats, err := h.svc.Recalculate(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.RecalculateResponse{Success: true, Stats: stats})
}

// ListProfiles is the dashboard read surface over classified profiles.
func (h *Handler) ListProfiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	segment := strings.TrimSpace(c.Query("segment"))

	items, total, err := h.repo.ListProfiles(c.Request.Context(), segment, limit, (page-1)*limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"items": items,
		"total": total,
		"page":  page,
	})
}
