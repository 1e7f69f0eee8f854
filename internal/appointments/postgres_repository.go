package appointments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/medibook-platform/internal/timeslot"
)

type pgDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database. Slots
// are persisted as start_min/end_min integers (minutes since midnight) so
// the overlap check is plain integer comparison in SQL.
type PostgresRepository struct {
	pool pgDB
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithDB(db pgDB) *PostgresRepository {
	if db == nil {
		panic("appointments: db required")
	}
	return &PostgresRepository{pool: db}
}

const apptColumns = `
	id, patient_id, doctor_id, date, start_min, end_min, duration_minutes,
	type, status, reason, notes, special_requirements, price_cents,
	payment_status, location, meeting_link, created_at, updated_at
`

// CreateIfFree inserts the appointment unless a blocking appointment
// overlaps it. The conflict check and the insert run in one transaction
// that locks the doctor's existing rows for the date, so concurrent
// requests for the same slot serialize and the loser gets ErrSlotTaken.
func (r *PostgresRepository) CreateIfFree(ctx context.Context, appt *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var conflicts int
	lockQuery := `
		SELECT count(*)
		FROM (
			SELECT id FROM appointments
			WHERE doctor_id = $1 AND date = $2
			  AND status IN ('pending', 'confirmed')
			  AND start_min < $4 AND $3 < end_min
			FOR UPDATE
		) held
	`
	if err := tx.QueryRow(ctx, lockQuery,
		appt.DoctorID,
		appt.Date,
		int(appt.Slot.Start),
		int(appt.Slot.End),
	).Scan(&conflicts); err != nil {
		return fmt.Errorf("appointments: conflict check failed: %w", err)
	}
	if conflicts > 0 {
		return ErrSlotTaken
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	reqs, err := json.Marshal(appt.SpecialRequirements)
	if err != nil {
		return fmt.Errorf("appointments: encode requirements: %w", err)
	}

	insert := `
		INSERT INTO appointments (
			id, patient_id, doctor_id, date, start_min, end_min,
			duration_minutes, type, status, reason, notes,
			special_requirements, price_cents, payment_status,
			location, meeting_link
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, insert,
		appt.ID,
		appt.PatientID,
		appt.DoctorID,
		appt.Date,
		int(appt.Slot.Start),
		int(appt.Slot.End),
		appt.DurationMinutes,
		appt.Type,
		appt.Status,
		appt.Reason,
		appt.Notes,
		reqs,
		appt.PriceCents,
		appt.PaymentStatus,
		appt.Location,
		appt.MeetingLink,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return fmt.Errorf("appointments: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT` + apptColumns + `FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return appt, nil
}

func (r *PostgresRepository) ListForDoctorDay(ctx context.Context, doctorID string, date time.Time) ([]*Appointment, error) {
	query := `
		SELECT` + apptColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND date = $2
		  AND status IN ('pending', 'confirmed')
		ORDER BY start_min
	`
	rows, err := r.pool.Query(ctx, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: day query failed: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, notes string) (*Appointment, error) {
	query := `
		UPDATE appointments
		SET status = $2, notes = COALESCE(NULLIF($3, ''), notes), updated_at = now()
		WHERE id = $1
		RETURNING` + apptColumns
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, id, status, notes))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: status update failed: %w", err)
	}
	return appt, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Appointment, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.PatientID != "" {
		add("patient_id = $%d", filter.PatientID)
	}
	if filter.DoctorID != "" {
		add("doctor_id = $%d", filter.DoctorID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}

	query := `SELECT` + apptColumns + `FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, start_min"
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
		return nil, fmt.Errorf("appointments: list query failed: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt     Appointment
		startMin int
		endMin   int
		reqs     []byte
	)
	if err := row.Scan(
		&appt.ID,
		&appt.PatientID,
		&appt.DoctorID,
		&appt.Date,
		&startMin,
		&endMin,
		&appt.DurationMinutes,
		&appt.Type,
		&appt.Status,
		&appt.Reason,
		&appt.Notes,
		&reqs,
		&appt.PriceCents,
		&appt.PaymentStatus,
		&appt.Location,
		&appt.MeetingLink,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		return nil, err
	}
	appt.Slot = timeslot.Interval{Start: timeslot.TimeOfDay(startMin), End: timeslot.TimeOfDay(endMin)}
	if len(reqs) > 0 {
		if err := json.Unmarshal(reqs, &appt.SpecialRequirements); err != nil {
			return nil, fmt.Errorf("appointments: decode requirements: %w", err)
		}
	}
	return &appt, nil
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows failed: %w", err)
	}
	return out, nil
}
