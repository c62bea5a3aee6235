// Package service implements the stage automation engine: given a
// lead's pipeline stage transition it evaluates the rule table and
// applies tag additions, temperature changes, outcome timestamps,
// referral point awards, notifications and downstream capability
// invocations. Capability and notification failures are logged and
// skipped; only missing input (lead, stage) fails the run.
package service

import (
	"context"
	"fmt"
	"time"

	"clinic_crm_backend/internal/automation/repository"
	"clinic_crm_backend/internal/automation/rules"
	"clinic_crm_backend/internal/events"
	"clinic_crm_backend/platform/apperr"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
)

const historyLimit = 50

// TransitionInput is the engine's trigger payload.
type TransitionInput struct {
	LeadID      uuid.UUID
	OldStageID  *uuid.UUID
	NewStageID  uuid.UUID
	PerformedBy *uuid.UUID
}

// Result summarizes a processed transition.
type Result struct {
	OldStageName      string   `json:"oldStageName,omitempty"`
	NewStageName      string   `json:"newStageName"`
	Actions           []string `json:"actions"`
	TagsAdded         []string `json:"tagsAdded"`
	NotificationsSent int      `json:"notificationsSent"`
}

type Service struct {
	store       Store
	rules       *rules.Set
	ledger      Ledger
	qualifier   Qualifier
	awarder     Awarder
	recommender Recommender
	notifier    Notifier
	bus         events.Bus
	log         *logger.Logger

	now func() time.Time
}

func New(store Store, set *rules.Set, ledger Ledger, qualifier Qualifier, awarder Awarder, recommender Recommender, notifier Notifier, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:       store,
		rules:       set,
		ledger:      ledger,
		qualifier:   qualifier,
		awarder:     awarder,
		recommender: recommender,
		notifier:    notifier,
		bus:         bus,
		log:         log,
		now:         time.Now,
	}
}

// HandleTransition runs the full automation pass for one stage change.
func (s *Service) HandleTransition(ctx context.Context, in TransitionInput) (Result, error) {
	const op = "automation.handle_transition"

	if in.LeadID == uuid.Nil {
		return Result{}, apperr.Validation("leadId is required").WithOp(op)
	}
	if in.NewStageID == uuid.Nil {
		return Result{}, apperr.Validation("newStageId is required").WithOp(op)
	}

	lead, err := s.store.GetLead(ctx, in.LeadID)
	if err != nil {
		return Result{}, err
	}
	newStage, err := s.store.GetStage(ctx, in.NewStageID)
	if err != nil {
		return Result{}, err
	}

	var oldStageName string
	if in.OldStageID != nil {
		oldStage, err := s.store.GetStage(ctx, *in.OldStageID)
		if err != nil {
			// The old stage only feeds the audit trail.
			s.log.Warn("old stage not resolved", "stageId", *in.OldStageID, "error", err)
		} else {
			oldStageName = oldStage.Name
		}
	}

	res := Result{
		OldStageName: oldStageName,
		NewStageName: newStage.Name,
		Actions:      []string{},
		TagsAdded:    []string{},
	}

	actor := ""
	if in.PerformedBy != nil {
		actor = in.PerformedBy.String()
	}

	s.scoreReferral(ctx, lead, newStage.Name, actor, &res)

	patch := s.applyStageRules(ctx, lead, newStage, in.PerformedBy, &res)
	patch.StageID = &newStage.ID

	if err := s.store.UpdateLead(ctx, lead.ID, patch); err != nil {
		return res, err
	}

	entry := repository.HistoryEntry{
		LeadID:            lead.ID,
		NewStage:          newStage.Name,
		Actions:           res.Actions,
		TagsAdded:         res.TagsAdded,
		NotificationsSent: res.NotificationsSent,
		PerformedBy:       in.PerformedBy,
	}
	if oldStageName != "" {
		entry.OldStage = &oldStageName
	}
	if err := s.store.InsertHistory(ctx, entry); err != nil {
		s.log.Error("failed to record stage history", "leadId", lead.ID, "error", err)
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent:         events.NewBaseEvent(),
		LeadID:            lead.ID,
		LeadName:          lead.Name,
		TeamID:            lead.TeamID,
		OldStageName:      oldStageName,
		NewStageName:      newStage.Name,
		Actions:           res.Actions,
		TagsAdded:         res.TagsAdded,
		NotificationsSent: res.NotificationsSent,
		PerformedBy:       in.PerformedBy,
	})

	s.log.Info("stage transition processed",
		"leadId", lead.ID,
		"oldStage", oldStageName,
		"newStage", newStage.Name,
		"actions", len(res.Actions),
		"tagsAdded", len(res.TagsAdded),
		"notifications", res.NotificationsSent,
	)

	return res, nil
}

// scoreReferral awards the referral milestones when a referred lead with
// a team reaches a consultation or surgery stage. The reason string
// doubles as the ledger deduplication key, so re-processing the same
// transition cannot double-award.
func (s *Service) scoreReferral(ctx context.Context, lead repository.Lead, stageName, actor string, res *Result) {
	if lead.Source == nil || !s.rules.IsReferralSource(*lead.Source) || lead.TeamID == nil {
		return
	}

	for _, milestone := range []rules.ReferralAward{s.rules.Referral.Consultation, s.rules.Referral.Surgery} {
		if !rules.MatchesKeywords(stageName, milestone.Keywords) {
			continue
		}

		reason := fmt.Sprintf(milestone.Reason, lead.Name)
		awarded, err := s.ledger.Award(ctx, *lead.TeamID, milestone.Points, reason, actor)
		if err != nil {
			s.log.CapabilityError("referral.award", err)
			continue
		}
		if awarded {
			res.Actions = append(res.Actions, fmt.Sprintf("+%d pontos para a equipe (%s)", milestone.Points, reason))
		}
	}
}

// applyStageRules evaluates the rule table in order and collects the
// resulting lead patch. Each capability fires at most once per
// transition; individual failures never abort the remaining rules.
func (s *Service) applyStageRules(ctx context.Context, lead repository.Lead, stage repository.Stage, performedBy *uuid.UUID, res *Result) repository.LeadPatch {
	var patch repository.LeadPatch

	tagSet := make(map[string]struct{}, len(lead.Tags))
	for _, t := range lead.Tags {
		tagSet[t] = struct{}{}
	}
	tags := append([]string(nil), lead.Tags...)

	invoked := make(map[rules.Capability]bool, 3)
	now := s.now().UTC()

	for _, rule := range s.rules.MatchingStages(stage.Name) {
		for _, tag := range rule.Tags {
			if _, ok := tagSet[tag]; ok {
				continue
			}
			tagSet[tag] = struct{}{}
			tags = append(tags, tag)
			res.TagsAdded = append(res.TagsAdded, tag)
			res.Actions = append(res.Actions, fmt.Sprintf("tag adicionada: %s", tag))
		}

		if rule.Temperature != "" && rule.Temperature != lead.Temperature {
			temp := rule.Temperature
			patch.Temperature = &temp
			res.Actions = append(res.Actions, fmt.Sprintf("temperatura: %s", temp))
		}

		switch rule.Outcome {
		case rules.OutcomeWon:
			if lead.WonAt == nil && patch.WonAt == nil {
				patch.WonAt = &now
				res.Actions = append(res.Actions, "lead marcado como ganho")
			}
		case rules.OutcomeLost:
			if lead.LostAt == nil && patch.LostAt == nil {
				patch.LostAt = &now
				res.Actions = append(res.Actions, "lead marcado como perdido")
			}
		}

		if rule.Capability != rules.CapabilityNone && !invoked[rule.Capability] {
			invoked[rule.Capability] = true
			s.invokeCapability(ctx, rule, lead, performedBy, res)
		}

		if rule.Notification != nil {
			s.sendNotification(ctx, rule.Notification, lead, stage, res)
		}
	}

	if len(res.TagsAdded) > 0 {
		patch.Tags = tags
	}

	return patch
}

func (s *Service) invokeCapability(ctx context.Context, rule *rules.StageRule, lead repository.Lead, performedBy *uuid.UUID, res *Result) {
	switch rule.Capability {
	case rules.CapabilityQualify:
		if err := s.qualifier.Qualify(ctx, lead.ID); err != nil {
			s.log.CapabilityError("qualify", err)
			return
		}
		res.Actions = append(res.Actions, "qualificação do lead disparada")

	case rules.CapabilityAward:
		err := s.awarder.AwardPoints(ctx, AwardParams{
			TeamID:   lead.TeamID,
			ActorID:  performedBy,
			LeadID:   lead.ID,
			LeadName: lead.Name,
			Reason:   fmt.Sprintf(rule.Reason, lead.Name),
			Points:   rule.Points,
		})
		if err != nil {
			s.log.CapabilityError("award_points", err)
			return
		}
		res.Actions = append(res.Actions, fmt.Sprintf("+%d pontos de gamificação", rule.Points))

	case rules.CapabilityRecommend:
		if err := s.recommender.RecommendProcedures(ctx, lead.ID); err != nil {
			s.log.CapabilityError("recommend_procedures", err)
			return
		}
		res.Actions = append(res.Actions, "recomendação de procedimentos disparada")
	}
}

func (s *Service) sendNotification(ctx context.Context, n *rules.Notification, lead repository.Lead, stage repository.Stage, res *Result) {
	recipient := lead.OwnerID
	if recipient == nil {
		s.log.Debug("notification skipped, lead has no owner", "leadId", lead.ID)
		return
	}

	message := fmt.Sprintf(n.Message, lead.Name)
	metadata := map[string]any{
		"leadId":    lead.ID.String(),
		"stageName": stage.Name,
	}
	if err := s.notifier.Notify(ctx, *recipient, n.Title, message, n.Category, metadata); err != nil {
		s.log.CapabilityError("notification.send", err)
		return
	}

	res.NotificationsSent++
	res.Actions = append(res.Actions, fmt.Sprintf("notificação enviada: %s", n.Title))
}

// History returns the most recent automation runs for a lead.
func (s *Service) History(ctx context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error) {
	if leadID == uuid.Nil {
		return nil, apperr.Validation("leadId is required").WithOp("automation.history")
	}
	return s.store.ListHistory(ctx, leadID, historyLimit)
}
