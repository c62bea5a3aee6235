// Package rfv provides the Recency-Frequency-Value segmentation bounded
// context: aggregation of transactional history, score classification,
// and profile persistence.
package rfv

import (
	"clinic_crm_backend/internal/events"
	apphttp "clinic_crm_backend/internal/http"
	"clinic_crm_backend/internal/rfv/handler"
	"clinic_crm_backend/internal/rfv/repository"
	"clinic_crm_backend/internal/rfv/service"
	"clinic_crm_backend/platform/config"
	"clinic_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the RFV bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the RFV module with all its dependencies.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.RFVConfig, log *logger.Logger, enqueuer handler.Enqueuer) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log.WithComponent("rfv"), service.Options{
		PageSize:  cfg.GetRFVPageSize(),
		ChunkSize: cfg.GetRFVUpsertChunkSize(),
	})
	h := handler.New(svc, repo, enqueuer)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "rfv"
}

// Service returns the recalculation service for external use (scheduler).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts RFV routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/rfv"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
