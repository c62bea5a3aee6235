// Package allocation provides the lead allocator bounded context:
// importing scored customers as leads and distributing all leads evenly
// and randomly across the two competing teams.
package allocation

import (
	"clinic_crm_backend/internal/allocation/handler"
	"clinic_crm_backend/internal/allocation/repository"
	"clinic_crm_backend/internal/allocation/service"
	"clinic_crm_backend/internal/events"
	apphttp "clinic_crm_backend/internal/http"
	"clinic_crm_backend/platform/logger"
	"clinic_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the allocation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the allocation module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger, enqueuer handler.Enqueuer) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log.WithComponent("allocation"))
	h := handler.New(svc, val, enqueuer)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "allocation"
}

// Service returns the allocator service for external use (scheduler).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts allocation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/allocation"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
