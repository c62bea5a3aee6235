package service

import (
	"context"

	"clinic_crm_backend/internal/automation/repository"

	"github.com/google/uuid"
)

// Store is the slice of the persistence layer the engine depends on.
type Store interface {
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetStage(ctx context.Context, id uuid.UUID) (repository.Stage, error)
	UpdateLead(ctx context.Context, id uuid.UUID, patch repository.LeadPatch) error
	InsertHistory(ctx context.Context, e repository.HistoryEntry) error
	ListHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.HistoryEntry, error)
}

// Ledger appends guarded point cards. Awarded is false when the
// (team, reason) milestone already has a card, which is benign.
type Ledger interface {
	Award(ctx context.Context, teamID uuid.UUID, points int, reason, awardedBy string) (bool, error)
}

// Qualifier triggers qualification scoring for a lead. Fire and forget:
// failures are logged by the engine, never propagated.
type Qualifier interface {
	Qualify(ctx context.Context, leadID uuid.UUID) error
}

// AwardParams carries everything the point award capability needs. The
// reason is already formatted with the lead name and doubles as the
// ledger deduplication key.
type AwardParams struct {
	TeamID   *uuid.UUID
	ActorID  *uuid.UUID
	LeadID   uuid.UUID
	LeadName string
	Reason   string
	Points   int
}

// Awarder invokes the gamification point award capability.
type Awarder interface {
	AwardPoints(ctx context.Context, p AwardParams) error
}

// Recommender triggers procedure recommendation for a lead.
type Recommender interface {
	RecommendProcedures(ctx context.Context, leadID uuid.UUID) error
}

// Notifier persists a notification and pushes it through whatever
// external channel is configured.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, category string, metadata map[string]any) error
}
