// Package service exposes the team point ledger to the automation
// engine and the scoreboard read surface.
package service

import (
	"context"

	"clinic_crm_backend/internal/gamification/repository"
	"clinic_crm_backend/platform/apperr"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Award appends a point card for the team. Returns awarded=false when the
// (team, reason) milestone already has a card; that outcome is benign,
// not an error.
func (s *Service) Award(ctx context.Context, teamID uuid.UUID, points int, reason, awardedBy string) (bool, error) {
	if teamID == uuid.Nil {
		return false, apperr.Validation("teamId is required").WithOp("gamification.award")
	}
	if reason == "" {
		return false, apperr.Validation("reason is required").WithOp("gamification.award")
	}

	awarded, err := s.repo.InsertCard(ctx, teamID, points, reason, awardedBy)
	if err != nil {
		return false, err
	}

	if !awarded {
		s.log.Debug("duplicate point award skipped", "teamId", teamID, "reason", reason)
	}
	return awarded, nil
}

// Scoreboard returns every team with its point total.
func (s *Service) Scoreboard(ctx context.Context) ([]repository.TeamScore, error) {
	return s.repo.TeamScores(ctx)
}
