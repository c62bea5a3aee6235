package repository

import (
	"context"
	"fmt"
	"time"

	"clinic_crm_backend/internal/rfv/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads transaction records and writes customer profiles.
// The backing store caps rows per query, so reads are paginated and the
// caller loops until a short page.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTransactionPage returns one page of transaction records of the
// given kind, ordered by insertion so pagination is stable.
func (r *Repository) ListTransactionPage(ctx context.Context, kind domain.RecordKind, limit, offset int) ([]domain.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, customer_name, email, phone, national_id, medical_record_no, occurred_on, amount_cents
		FROM transaction_records
		WHERE kind = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, string(kind), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.Record, 0, limit)
	for rows.Next() {
		var rec domain.Record
		var recKind string
		if err := rows.Scan(&recKind, &rec.CustomerName, &rec.Email, &rec.Phone, &rec.NationalID, &rec.MedicalRecordNo, &rec.OccurredOn, &rec.AmountCents); err != nil {
			return nil, err
		}
		rec.Kind = domain.RecordKind(recKind)
		records = append(records, rec)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return records, nil
}

// UpsertProfiles writes one chunk of classified profiles, keyed by the
// customer name. Scores of an existing row are overwritten atomically
// per customer; contact fields only fill columns that are still NULL.
func (r *Repository) UpsertProfiles(ctx context.Context, profiles []domain.Profile, now time.Time) error {
	if len(profiles) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range profiles {
		batch.Queue(`
			INSERT INTO customer_profiles (
				name, email, phone, national_id, medical_record_no,
				first_activity_at, last_activity_at, purchase_count, total_value_cents, avg_ticket_cents,
				recency_score, frequency_score, value_score, segment, days_since_last_activity, recalculated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (name) DO UPDATE SET
				email = COALESCE(customer_profiles.email, EXCLUDED.email),
				phone = COALESCE(customer_profiles.phone, EXCLUDED.phone),
				national_id = COALESCE(customer_profiles.national_id, EXCLUDED.national_id),
				medical_record_no = COALESCE(customer_profiles.medical_record_no, EXCLUDED.medical_record_no),
				first_activity_at = EXCLUDED.first_activity_at,
				last_activity_at = EXCLUDED.last_activity_at,
				purchase_count = EXCLUDED.purchase_count,
				total_value_cents = EXCLUDED.total_value_cents,
				avg_ticket_cents = EXCLUDED.avg_ticket_cents,
				recency_score = EXCLUDED.recency_score,
				frequency_score = EXCLUDED.frequency_score,
				value_score = EXCLUDED.value_score,
				segment = EXCLUDED.segment,
				days_since_last_activity = EXCLUDED.days_since_last_activity,
				recalculated_at = EXCLUDED.recalculated_at
		`,
			p.Name, p.Contact.Email, p.Contact.Phone, p.Contact.NationalID, p.Contact.MedicalRecordNo,
			p.FirstActivity, p.LastActivity, p.PurchaseCount, p.TotalValueCents, p.AvgTicketCents,
			p.RecencyScore, p.FrequencyScore, p.ValueScore, p.Segment, p.DaysSinceLastActivity, now,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert profile %q: %w", profiles[i].Name, err)
		}
	}

	return nil
}

// StoredProfile is a customer profile row for the read surface.
type StoredProfile struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Email                 *string    `json:"email,omitempty"`
	Phone                 *string    `json:"phone,omitempty"`
	NationalID            *string    `json:"nationalId,omitempty"`
	PurchaseCount         int        `json:"purchaseCount"`
	TotalValueCents       int64      `json:"totalValueCents"`
	AvgTicketCents        int64      `json:"avgTicketCents"`
	RecencyScore          int        `json:"recencyScore"`
	FrequencyScore        int        `json:"frequencyScore"`
	ValueScore            int        `json:"valueScore"`
	Segment               string     `json:"segment"`
	DaysSinceLastActivity int        `json:"daysSinceLastActivity"`
	LastActivityAt        *time.Time `json:"lastActivityAt,omitempty"`
	RecalculatedAt        time.Time  `json:"recalculatedAt"`
}

// ListProfiles returns one page of profiles, optionally filtered by segment.
func (r *Repository) ListProfiles(ctx context.Context, segment string, limit, offset int) ([]StoredProfile, int, error) {
	where := ""
	args := []any{limit, offset}
	var total int
	if segment != "" {
		where = "WHERE segment = $3"
		args = append(args, segment)
		if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customer_profiles WHERE segment = $1", segment).Scan(&total); err != nil {
			return nil, 0, err
		}
	} else {
		if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customer_profiles").Scan(&total); err != nil {
			return nil, 0, err
		}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, national_id, purchase_count, total_value_cents, avg_ticket_cents,
			recency_score, frequency_score, value_score, segment, days_since_last_activity,
			last_activity_at, recalculated_at
		FROM customer_profiles
		`+where+`
		ORDER BY total_value_cents DESC, name ASC
		LIMIT $1 OFFSET $2
	`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]StoredProfile, 0, limit)
	for rows.Next() {
		var p StoredProfile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.NationalID, &p.PurchaseCount, &p.TotalValueCents, &p.AvgTicketCents,
			&p.RecencyScore, &p.FrequencyScore, &p.ValueScore, &p.Segment, &p.DaysSinceLastActivity,
			&p.LastActivityAt, &p.RecalculatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return items, total, nil
}
