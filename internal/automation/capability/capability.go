// Package capability adapts the engine's downstream capability ports to
// what this deployment actually runs. Qualification scoring and
// procedure recommendation are external systems reached over their own
// integrations; here they are log-only stubs that keep the invocation
// visible until those integrations land.
package capability

import (
	"context"

	"clinic_crm_backend/internal/automation/service"
	"clinic_crm_backend/platform/apperr"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
)

// LedgerAwarder backs the point award capability with the team point
// ledger. The reason string is the deduplication key, so a repeated
// transition lands on the unique constraint and becomes a no-op.
type LedgerAwarder struct {
	ledger service.Ledger
	log    *logger.Logger
}

func NewLedgerAwarder(ledger service.Ledger, log *logger.Logger) *LedgerAwarder {
	return &LedgerAwarder{ledger: ledger, log: log}
}

func (a *LedgerAwarder) AwardPoints(ctx context.Context, p service.AwardParams) error {
	if p.TeamID == nil {
		return apperr.Validation("lead has no team to award")
	}

	actor := ""
	if p.ActorID != nil {
		actor = p.ActorID.String()
	}

	awarded, err := a.ledger.Award(ctx, *p.TeamID, p.Points, p.Reason, actor)
	if err != nil {
		return err
	}
	if !awarded {
		a.log.Debug("point award already granted", "leadId", p.LeadID, "reason", p.Reason)
	}
	return nil
}

// LogQualifier records qualification requests until the scoring
// integration is wired.
type LogQualifier struct {
	log *logger.Logger
}

func NewLogQualifier(log *logger.Logger) *LogQualifier {
	return &LogQualifier{log: log}
}

func (q *LogQualifier) Qualify(ctx context.Context, leadID uuid.UUID) error {
	q.log.Info("qualification requested", "leadId", leadID)
	return nil
}

// LogRecommender records recommendation requests until the
// recommendation integration is wired.
type LogRecommender struct {
	log *logger.Logger
}

func NewLogRecommender(log *logger.Logger) *LogRecommender {
	return &LogRecommender{log: log}
}

func (r *LogRecommender) RecommendProcedures(ctx context.Context, leadID uuid.UUID) error {
	r.log.Info("procedure recommendation requested", "leadId", leadID)
	return nil
}

var (
	_ service.Awarder     = (*LedgerAwarder)(nil)
	_ service.Qualifier   = (*LogQualifier)(nil)
	_ service.Recommender = (*LogRecommender)(nil)
)
