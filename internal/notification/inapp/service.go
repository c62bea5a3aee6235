package inapp

import (
	"context"

	"clinic_crm_backend/platform/apperr"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// Dispatcher pushes a notification through an external channel (SMTP
// today). Dispatch failures are logged and swallowed: the persisted row
// is the source of truth, the channel is best-effort.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

type Service struct {
	repo       *Repository
	dispatcher Dispatcher
	log        *logger.Logger
}

func NewService(repo *Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// SetDispatcher injects the optional external channel.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

type SendParams struct {
	UserID   uuid.UUID
	Title    string
	Message  string
	Category string // "info", "success", "warning", "error"
	Metadata map[string]any
}

// Send persists the notification and pushes it through the external
// channel when one is configured.
func (s *Service) Send(ctx context.Context, p SendParams) error {
	if s == nil || s.repo == nil {
		return apperr.Internal("notification service not configured")
	}

	if p.Category == "" {
		p.Category = "info"
	}

	notif, err := s.repo.Create(ctx, CreateParams{
		UserID:   p.UserID,
		Title:    p.Title,
		Message:  p.Message,
		Category: p.Category,
		Metadata: p.Metadata,
	})
	if err != nil {
		if s.log != nil {
			s.log.Error("failed to persist notification", "error", err, "userId", p.UserID)
		}
		return err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, notif); err != nil && s.log != nil {
			s.log.CapabilityError("notification.dispatch", err)
		}
	}

	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, pageSize, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
