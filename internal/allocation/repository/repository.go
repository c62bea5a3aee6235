package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewLead is an importable customer identity not yet tracked as a lead.
type NewLead struct {
	Name            string
	Email           *string
	Phone           *string
	NationalID      string
	MedicalRecordNo *string
	ProfileID       uuid.UUID
}

// TeamStat is the per-team slice of the allocation summary.
type TeamStat struct {
	TeamID     uuid.UUID
	Name       string
	LeadCount  int
	TotalValue int64
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTeamIDs returns the team ids ordered by slug.
func (r *Repository) ListTeamIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM teams ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, 2)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// DefaultIntake resolves the pipeline and first stage new imports land in.
func (r *Repository) DefaultIntake(ctx context.Context) (pipelineID, stageID uuid.UUID, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT p.id, s.id
		FROM pipelines p
		JOIN pipeline_stages s ON s.pipeline_id = p.id
		WHERE p.slug = 'default'
		ORDER BY s.position ASC
		LIMIT 1
	`).Scan(&pipelineID, &stageID)
	return pipelineID, stageID, err
}

// ListUntrackedProfiles returns customer profiles that carry a stable
// national id but have no lead yet. The match is on the stable
// identifier, not the fuzzy name key the aggregator uses.
func (r *Repository) ListUntrackedProfiles(ctx context.Context, limit int) ([]NewLead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cp.name, cp.email, cp.phone, cp.national_id, cp.medical_record_no, cp.id
		FROM customer_profiles cp
		LEFT JOIN leads l ON l.national_id = cp.national_id
		WHERE cp.national_id IS NOT NULL AND l.id IS NULL
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]NewLead, 0, limit)
	for rows.Next() {
		var n NewLead
		if err := rows.Scan(&n.Name, &n.Email, &n.Phone, &n.NationalID, &n.MedicalRecordNo, &n.ProfileID); err != nil {
			return nil, err
		}
		items = append(items, n)
	}

	return items, rows.Err()
}

// InsertLeads inserts one batch of imported leads into the default
// pipeline/stage.
func (r *Repository) InsertLeads(ctx context.Context, leads []NewLead, pipelineID, stageID uuid.UUID) error {
	if len(leads) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range leads {
		batch.Queue(`
			INSERT INTO leads (name, email, phone, national_id, medical_record_no, pipeline_id, stage_id, profile_id, source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'rfv_import')
		`, n.Name, n.Email, n.Phone, n.NationalID, n.MedicalRecordNo, pipelineID, stageID, n.ProfileID)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert lead %q: %w", leads[i].Name, err)
		}
	}

	return nil
}

// LinkMissingProfiles attaches the RFV profile reference to every lead
// that lacks one, matching on the stable national id. Returns the
// number of leads linked.
func (r *Repository) LinkMissingProfiles(ctx context.Context) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads l
		SET profile_id = cp.id, updated_at = now()
		FROM customer_profiles cp
		WHERE l.profile_id IS NULL
		  AND l.national_id IS NOT NULL
		  AND cp.national_id = l.national_id
	`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListLeadIDsPage returns one page of all lead ids in stable order. The
// store caps rows per query, so the caller loops until a short page.
func (r *Repository) ListLeadIDsPage(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM leads ORDER BY id LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, limit)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// AssignTeam sets the team for one chunk of leads.
func (r *Repository) AssignTeam(ctx context.Context, leadIDs []uuid.UUID, teamID uuid.UUID) error {
	if len(leadIDs) == 0 {
		return nil
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET team_id = $1, updated_at = now() WHERE id = ANY($2)
	`, teamID, leadIDs)
	return err
}

// TeamStats returns per-team lead counts and total profile value using a
// SQL aggregate over the linked profiles.
func (r *Repository) TeamStats(ctx context.Context) ([]TeamStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.name, COUNT(l.id), COALESCE(SUM(cp.total_value_cents), 0)
		FROM teams t
		LEFT JOIN leads l ON l.team_id = t.id
		LEFT JOIN customer_profiles cp ON cp.id = l.profile_id
		GROUP BY t.id, t.name
		ORDER BY t.slug
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]TeamStat, 0, 2)
	for rows.Next() {
		var s TeamStat
		if err := rows.Scan(&s.TeamID, &s.Name, &s.LeadCount, &s.TotalValue); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// TeamProfileValues returns the linked profile values for one team's
// leads, for summing client-side when the SQL aggregate is unavailable.
func (r *Repository) TeamProfileValues(ctx context.Context, teamID uuid.UUID) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(cp.total_value_cents, 0)
		FROM leads l
		LEFT JOIN customer_profiles cp ON cp.id = l.profile_id
		WHERE l.team_id = $1
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make([]int64, 0)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}
