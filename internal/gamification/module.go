// Package gamification provides the team point-ledger bounded context.
// Cards are append-only awards deduplicated by (team, reason).
package gamification

import (
	apphttp "clinic_crm_backend/internal/http"

	"clinic_crm_backend/internal/gamification/handler"
	"clinic_crm_backend/internal/gamification/repository"
	"clinic_crm_backend/internal/gamification/service"
	"clinic_crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the gamification bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the gamification module.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log.WithComponent("gamification"))
	h := handler.New(svc)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "gamification"
}

// Service returns the ledger service for external use (automation engine).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts gamification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/gamification"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
