package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores notifications in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("notifications: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const notificationColumns = `
	id, user_id, kind, title, message, appointment_id, priority, read,
	scheduled_for, sent_at, metadata, created_at
`

func (r *PostgresRepository) Create(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("notifications: encode metadata: %w", err)
	}

	query := `
		INSERT INTO notifications (
			id, user_id, kind, title, message, appointment_id, priority,
			scheduled_for, sent_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		n.ID,
		n.UserID,
		n.Kind,
		n.Title,
		n.Message,
		n.AppointmentID,
		n.Priority,
		n.ScheduledFor,
		n.SentAt,
		meta,
	).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("notifications: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*Notification, error) {
	query := `
		SELECT` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		  AND (scheduled_for IS NULL OR sent_at IS NOT NULL)
	`
	args := []any{userID}
	if unreadOnly {
		query += " AND read = false"
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("notifications: list failed: %w", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	query := `SELECT` + notificationColumns + `FROM notifications WHERE id = $1`
	n, err := scanNotification(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("notifications: select failed: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notifications: mark read failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = true
		WHERE user_id = $1 AND read = false
		  AND (scheduled_for IS NULL OR sent_at IS NOT NULL)
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("notifications: mark all read failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRepository) ListDue(ctx context.Context, now time.Time) ([]*Notification, error) {
	query := `
		SELECT` + notificationColumns + `
		FROM notifications
		WHERE scheduled_for IS NOT NULL AND sent_at IS NULL
		  AND scheduled_for <= $1
		ORDER BY scheduled_for
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("notifications: list due failed: %w", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *PostgresRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("notifications: mark sent failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *PostgresRepository) CancelPending(ctx context.Context, appointmentID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE appointment_id = $1 AND scheduled_for IS NOT NULL AND sent_at IS NULL
	`, appointmentID)
	if err != nil {
		return 0, fmt.Errorf("notifications: cancel pending failed: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var (
		n    Notification
		meta []byte
	)
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Kind,
		&n.Title,
		&n.Message,
		&n.AppointmentID,
		&n.Priority,
		&n.Read,
		&n.ScheduledFor,
		&n.SentAt,
		&meta,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &n.Metadata); err != nil {
			return nil, fmt.Errorf("notifications: decode metadata: %w", err)
		}
	}
	return &n, nil
}

func collectNotifications(rows pgx.Rows) ([]*Notification, error) {
	var out []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notifications: scan failed: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifications: rows failed: %w", err)
	}
	return out, nil
}
