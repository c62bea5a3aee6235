package repository

import (
	"context"
	"errors"
	"time"

	"clinic_crm_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opGetLead       = "automation.repository.get_lead"
	opGetStage      = "automation.repository.get_stage"
	opUpdateLead    = "automation.repository.update_lead"
	opInsertHistory = "automation.repository.insert_history"
	opListHistory   = "automation.repository.list_history"
)

// Lead is the slice of the lead row the automation engine works on.
type Lead struct {
	ID          uuid.UUID
	Name        string
	TeamID      *uuid.UUID
	OwnerID     *uuid.UUID
	Source      *string
	Tags        []string
	Temperature string
	WonAt       *time.Time
	LostAt      *time.Time
	StageID     uuid.UUID
}

// Stage is a pipeline stage with its pipeline resolved.
type Stage struct {
	ID           uuid.UUID
	Name         string
	PipelineID   uuid.UUID
	PipelineName string
}

// LeadPatch carries the mutated lead fields back to the store. Nil
// fields are left untouched.
type LeadPatch struct {
	Tags        []string
	Temperature *string
	WonAt       *time.Time
	LostAt      *time.Time
	StageID     *uuid.UUID
}

// HistoryEntry is one audit row summarizing a processed transition.
type HistoryEntry struct {
	ID                uuid.UUID  `json:"id"`
	LeadID            uuid.UUID  `json:"leadId"`
	OldStage          *string    `json:"oldStage,omitempty"`
	NewStage          string     `json:"newStage"`
	Actions           []string   `json:"actions"`
	TagsAdded         []string   `json:"tagsAdded"`
	NotificationsSent int        `json:"notificationsSent"`
	PerformedBy       *uuid.UUID `json:"performedBy,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetLead loads the lead or returns a NotFound domain error.
func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, team_id, owner_id, source, tags, temperature, won_at, lost_at, stage_id
		FROM leads
		WHERE id = $1
	`, id).Scan(
		&lead.ID, &lead.Name, &lead.TeamID, &lead.OwnerID, &lead.Source,
		&lead.Tags, &lead.Temperature, &lead.WonAt, &lead.LostAt, &lead.StageID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound("lead not found").WithOp(opGetLead)
	}
	if err != nil {
		return Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(opGetLead)
	}

	return lead, nil
}

// GetStage loads a stage with its pipeline or returns a NotFound domain error.
func (r *Repository) GetStage(ctx context.Context, id uuid.UUID) (Stage, error) {
	var stage Stage
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.name, p.id, p.name
		FROM pipeline_stages s
		JOIN pipelines p ON p.id = s.pipeline_id
		WHERE s.id = $1
	`, id).Scan(&stage.ID, &stage.Name, &stage.PipelineID, &stage.PipelineName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stage{}, apperr.NotFound("stage not found").WithOp(opGetStage)
	}
	if err != nil {
		return Stage{}, apperr.Wrap(apperr.KindInternal, "failed to load stage", err).WithOp(opGetStage)
	}

	return stage, nil
}

// UpdateLead persists the patch. Only non-nil fields are written.
func (r *Repository) UpdateLead(ctx context.Context, id uuid.UUID, patch LeadPatch) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			tags = COALESCE($2, tags),
			temperature = COALESCE($3, temperature),
			won_at = COALESCE($4, won_at),
			lost_at = COALESCE($5, lost_at),
			stage_id = COALESCE($6, stage_id),
			updated_at = now()
		WHERE id = $1
	`, id, patch.Tags, patch.Temperature, patch.WonAt, patch.LostAt, patch.StageID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to update lead", err).WithOp(opUpdateLead)
	}

	return nil
}

// InsertHistory appends the audit entry for a processed transition.
func (r *Repository) InsertHistory(ctx context.Context, e HistoryEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_stage_history (lead_id, old_stage, new_stage, actions, tags_added, notifications_sent, performed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.LeadID, e.OldStage, e.NewStage, e.Actions, e.TagsAdded, e.NotificationsSent, e.PerformedBy)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to insert stage history", err).WithOp(opInsertHistory)
	}

	return nil
}

// ListHistory returns the most recent transitions of a lead.
func (r *Repository) ListHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, old_stage, new_stage, actions, tags_added, notifications_sent, performed_by, created_at
		FROM lead_stage_history
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list stage history", err).WithOp(opListHistory)
	}
	defer rows.Close()

	items := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.OldStage, &e.NewStage, &e.Actions, &e.TagsAdded, &e.NotificationsSent, &e.PerformedBy, &e.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan stage history", err).WithOp(opListHistory)
		}
		items = append(items, e)
	}

	return items, rows.Err()
}
