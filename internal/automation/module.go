// Package automation provides the stage automation bounded context:
// the rule-driven engine reacting to pipeline stage transitions.
package automation

import (
	"context"

	"clinic_crm_backend/internal/automation/capability"
	"clinic_crm_backend/internal/automation/handler"
	"clinic_crm_backend/internal/automation/repository"
	"clinic_crm_backend/internal/automation/rules"
	"clinic_crm_backend/internal/automation/service"
	"clinic_crm_backend/internal/events"
	apphttp "clinic_crm_backend/internal/http"
	"clinic_crm_backend/internal/notification/inapp"
	"clinic_crm_backend/platform/config"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the automation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the automation module. The ledger is
// the gamification point service; notifications go through the in-app
// notification service.
func NewModule(pool *pgxpool.Pool, bus events.Bus, cfg config.AutomationConfig, log *logger.Logger, ledger service.Ledger, notifications *inapp.Service) (*Module, error) {
	set, err := rules.Load(cfg.GetStageRulesPath())
	if err != nil {
		return nil, err
	}

	componentLog := log.WithComponent("automation")
	repo := repository.New(pool)

	svc := service.New(
		repo,
		set,
		ledger,
		capability.NewLogQualifier(componentLog),
		capability.NewLedgerAwarder(ledger, componentLog),
		capability.NewLogRecommender(componentLog),
		&inappNotifier{svc: notifications},
		bus,
		componentLog,
	)

	return &Module{
		handler: handler.New(svc),
		service: svc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "automation"
}

// Service returns the automation engine for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts automation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/automation"))
}

// inappNotifier adapts the in-app notification service to the engine's
// Notifier port.
type inappNotifier struct {
	svc *inapp.Service
}

func (n *inappNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message, category string, metadata map[string]any) error {
	return n.svc.Send(ctx, inapp.SendParams{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Category: category,
		Metadata: metadata,
	})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
var _ service.Notifier = (*inappNotifier)(nil)
