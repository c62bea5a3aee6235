// Package notification provides the notification sink bounded context:
// the persisted table automation side effects land in, plus an optional
// SMTP dispatch channel.
package notification

import (
	"clinic_crm_backend/internal/notification/email"
	"clinic_crm_backend/internal/notification/handler"
	"clinic_crm_backend/internal/notification/inapp"
	"clinic_crm_backend/platform/config"
	"clinic_crm_backend/platform/logger"

	apphttp "clinic_crm_backend/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *handler.HTTPHandler
	service *inapp.Service
}

// NewModule creates and initializes the notification module. When email
// is enabled, notifications are also dispatched over SMTP.
func NewModule(pool *pgxpool.Pool, cfg config.EmailConfig, log *logger.Logger, recipient func(userID string) (string, bool)) *Module {
	repo := inapp.NewRepository(pool)
	svc := inapp.NewService(repo, log.WithComponent("notification"))

	if cfg.GetEmailEnabled() && recipient != nil {
		svc.SetDispatcher(email.NewDispatcher(cfg, recipient))
	}

	return &Module{
		handler: handler.NewHTTPHandler(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Service returns the sink service for external use (automation engine).
func (m *Module) Service() *inapp.Service {
	return m.service
}

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/notifications"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
