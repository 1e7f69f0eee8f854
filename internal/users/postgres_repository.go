package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores users in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("users: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, u *User) (*User, error) {
	if !u.Role.Valid() {
		return nil, ErrInvalidRole
	}

	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, name, email, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, id, u.Name, u.Email, u.Phone, u.Role).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("users: insert: %w", err)
	}

	out := *u
	out.ID = id
	out.CreatedAt = createdAt
	return &out, nil
}

// GetByID fetches a user by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, name, email, phone, role, created_at
		FROM users
		WHERE id = $1
	`
	var u User
	err := r.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: select: %w", err)
	}
	return &u, nil
}

// ListByRole returns all users with the given role.
func (r *PostgresRepository) ListByRole(ctx context.Context, role Role) ([]*User, error) {
	query := `
		SELECT id, name, email, phone, role, created_at
		FROM users
		WHERE role = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("users: list by role: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
