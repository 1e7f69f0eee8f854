package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores provider profiles in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("providers: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const profileColumns = `
	doctor_id, specialty, bio, years_experience, fee_cents, languages,
	location, rating, rating_count, created_at, updated_at
`

func (r *PostgresRepository) Upsert(ctx context.Context, profile *Profile) error {
	query := `
		INSERT INTO provider_profiles (
			doctor_id, specialty, bio, years_experience, fee_cents,
			languages, location
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (doctor_id) DO UPDATE SET
			specialty = EXCLUDED.specialty,
			bio = EXCLUDED.bio,
			years_experience = EXCLUDED.years_experience,
			fee_cents = EXCLUDED.fee_cents,
			languages = EXCLUDED.languages,
			location = EXCLUDED.location,
			updated_at = now()
		RETURNING rating, rating_count, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		profile.DoctorID,
		profile.Specialty,
		profile.Bio,
		profile.YearsExperience,
		profile.FeeCents,
		profile.Languages,
		profile.Location,
	).Scan(&profile.Rating, &profile.RatingCount, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		return fmt.Errorf("providers: upsert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByDoctorID(ctx context.Context, doctorID string) (*Profile, error) {
	query := `SELECT` + profileColumns + `FROM provider_profiles WHERE doctor_id = $1`
	row := r.pool.QueryRow(ctx, query, doctorID)

	var p Profile
	if err := row.Scan(
		&p.DoctorID,
		&p.Specialty,
		&p.Bio,
		&p.YearsExperience,
		&p.FeeCents,
		&p.Languages,
		&p.Location,
		&p.Rating,
		&p.RatingCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("providers: select failed: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) Search(ctx context.Context, filter SearchFilter) ([]*Profile, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Specialty != "" {
		add("lower(specialty) = lower($%d)", filter.Specialty)
	}
	if filter.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", filter.Location)
	}
	if filter.Language != "" {
		add("$%d ILIKE ANY(languages)", filter.Language)
	}

	query := `SELECT` + profileColumns + `FROM provider_profiles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY doctor_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("providers: search failed: %w", err)
	}
	defer rows.Close()

	var out []*Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(
			&p.DoctorID,
			&p.Specialty,
			&p.Bio,
			&p.YearsExperience,
			&p.FeeCents,
			&p.Languages,
			&p.Location,
			&p.Rating,
			&p.RatingCount,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("providers: scan failed: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("providers: rows failed: %w", err)
	}
	return out, nil
}
