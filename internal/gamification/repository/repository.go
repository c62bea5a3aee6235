package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Team is one of the two competing sales teams.
type Team struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

// Card is an append-only point award tied to a team and a reason string.
type Card struct {
	ID        uuid.UUID `json:"id"`
	TeamID    uuid.UUID `json:"teamId"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	AwardedBy string    `json:"awardedBy"`
	AwardedOn time.Time `json:"awardedOn"`
}

// TeamScore is the scoreboard read model: a team with its point total.
type TeamScore struct {
	Team
	TotalPoints int `json:"totalPoints"`
	CardCount   int `json:"cardCount"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTeams returns all teams ordered by slug.
func (r *Repository) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, slug, name FROM teams ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]Team, 0, 2)
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

// InsertCard appends a point card. The (team_id, reason) pair is unique;
// a conflict means the milestone was already awarded and is reported as
// awarded=false with a nil error. The race between two concurrent
// transitions for the same milestone resolves at the constraint, not in
// application code.
func (r *Repository) InsertCard(ctx context.Context, teamID uuid.UUID, points int, reason, awardedBy string) (bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO point_cards (team_id, points, reason, awarded_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT uq_point_cards_team_reason DO NOTHING
		RETURNING id
	`, teamID, points, reason, awardedBy).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TeamScores returns every team with its summed point total.
func (r *Repository) TeamScores(ctx context.Context) ([]TeamScore, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.slug, t.name, COALESCE(SUM(pc.points), 0), COUNT(pc.id)
		FROM teams t
		LEFT JOIN point_cards pc ON pc.team_id = t.id
		GROUP BY t.id, t.slug, t.name
		ORDER BY t.slug
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]TeamScore, 0, 2)
	for rows.Next() {
		var s TeamScore
		if err := rows.Scan(&s.ID, &s.Slug, &s.Name, &s.TotalPoints, &s.CardCount); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}

	return scores, rows.Err()
}
