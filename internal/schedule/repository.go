package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ReminderWindow names one of the two reminder thresholds.
type ReminderWindow string

const (
	Reminder24h ReminderWindow = "24h"
	Reminder2h  ReminderWindow = "2h"
)

// Repository is the persistence contract the scheduler depends on. The flow
// engine tests swap in a fake; production uses PgRepository.
type Repository interface {
	BookExclusive(ctx context.Context, appt Appointment, maxPerDay int) (Appointment, error)
	ListForDay(ctx context.Context, agentID string, from, to time.Time) ([]Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (Appointment, error)
	NextForContact(ctx context.Context, contactID string, after time.Time) (Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) error
	Complete(ctx context.Context, id uuid.UUID) error
	DueReminders(ctx context.Context, now time.Time) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, window ReminderWindow) error
}

// DB is the subset of pgxpool.Pool the repository uses; pgxmock implements it
// for tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgRepository persists appointments in PostgreSQL.
type PgRepository struct {
	db DB
}

// NewPgRepository creates a repository backed by a pgx pool (or mock).
func NewPgRepository(db DB) *PgRepository {
	if db == nil {
		panic("schedule: db required")
	}
	return &PgRepository{db: db}
}

var _ Repository = (*PgRepository)(nil)

const apptColumns = `id, contact_id, agent_id, property_id, kind, scheduled_at,
	duration_minutes, status, visitor_count, reminder_24h_sent, reminder_2h_sent,
	cancelled_at, cancel_reason, created_at`

// BookExclusive inserts a confirmed appointment inside a transaction that
// locks the agent's day and re-checks overlap and the per-day cap. The
// schema's exclusion constraint on (agent_id, timerange) is the hard backstop
// for anything this check misses; its violation also maps to
// ErrSlotUnavailable.
func (r *PgRepository) BookExclusive(ctx context.Context, appt Appointment, maxPerDay int) (Appointment, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: begin booking tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	dayStart := time.Date(appt.ScheduledAt.Year(), appt.ScheduledAt.Month(), appt.ScheduledAt.Day(),
		0, 0, 0, 0, appt.ScheduledAt.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := tx.Query(ctx, `
		SELECT scheduled_at, duration_minutes FROM appointments
		WHERE agent_id = $1 AND status <> 'cancelled'
		  AND scheduled_at >= $2 AND scheduled_at < $3
		FOR UPDATE
	`, appt.AgentID, dayStart, dayEnd)
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: lock day rows: %w", err)
	}

	var count int
	conflict := false
	for rows.Next() {
		var scheduledAt time.Time
		var duration int
		if err := rows.Scan(&scheduledAt, &duration); err != nil {
			rows.Close()
			return Appointment{}, fmt.Errorf("schedule: scan day row: %w", err)
		}
		count++
		end := scheduledAt.Add(time.Duration(duration) * time.Minute)
		if appt.ScheduledAt.Before(end) && appt.EndsAt().After(scheduledAt) {
			conflict = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Appointment{}, fmt.Errorf("schedule: read day rows: %w", err)
	}

	if conflict || (maxPerDay > 0 && count >= maxPerDay) {
		return Appointment{}, ErrSlotUnavailable
	}

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.Status = StatusConfirmed
	appt.CreatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (
			id, contact_id, agent_id, property_id, kind, scheduled_at,
			duration_minutes, status, visitor_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, appt.ID, appt.ContactID, appt.AgentID, appt.PropertyID, string(appt.Kind),
		appt.ScheduledAt, appt.DurationMinutes, string(appt.Status), appt.VisitorCount, appt.CreatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return Appointment{}, ErrSlotUnavailable
		}
		return Appointment{}, fmt.Errorf("schedule: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			return Appointment{}, ErrSlotUnavailable
		}
		return Appointment{}, fmt.Errorf("schedule: commit booking: %w", err)
	}
	return appt, nil
}

// isExclusionViolation matches unique (23505) and exclusion (23P01)
// constraint errors.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return false
}

// ListForDay returns the agent's non-cancelled appointments in [from, to).
func (r *PgRepository) ListForDay(ctx context.Context, agentID string, from, to time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE agent_id = $1 AND status <> 'cancelled'
		  AND scheduled_at >= $2 AND scheduled_at < $3
		ORDER BY scheduled_at ASC
	`, apptColumns), agentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("schedule: list day: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// Get loads one appointment.
func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM appointments WHERE id = $1`, apptColumns), id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: get appointment: %w", err)
	}
	return appt, nil
}

// NextForContact returns the contact's earliest confirmed appointment after
// the given time, or ErrNotFound.
func (r *PgRepository) NextForContact(ctx context.Context, contactID string, after time.Time) (Appointment, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE contact_id = $1 AND status = 'confirmed' AND scheduled_at > $2
		ORDER BY scheduled_at ASC
		LIMIT 1
	`, apptColumns), contactID, after)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("schedule: next for contact: %w", err)
	}
	return appt, nil
}

// Cancel marks the appointment cancelled and stamps the cancellation time.
// Cancelling an already-cancelled appointment is a no-op success.
func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET
			status = 'cancelled',
			cancelled_at = $2,
			cancel_reason = $3
		WHERE id = $1 AND status <> 'cancelled'
	`, id, time.Now().UTC(), reason)
	if err != nil {
		return fmt.Errorf("schedule: cancel appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either already cancelled (idempotent success) or missing.
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("schedule: check appointment exists: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Complete marks a confirmed appointment completed.
func (r *PgRepository) Complete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments SET status = 'completed'
		WHERE id = $1 AND status = 'confirmed'
	`, id)
	if err != nil {
		return fmt.Errorf("schedule: complete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DueReminders selects confirmed future appointments with an unsent reminder
// whose threshold has been crossed (inclusive).
func (r *PgRepository) DueReminders(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE status = 'confirmed' AND scheduled_at > $1
		  AND (
			(scheduled_at <= $2 AND NOT reminder_24h_sent)
			OR (scheduled_at <= $3 AND NOT reminder_2h_sent)
		  )
		ORDER BY scheduled_at ASC
	`, apptColumns), now, now.Add(24*time.Hour), now.Add(2*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("schedule: due reminders: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// MarkReminderSent flips one reminder flag. Idempotent.
func (r *PgRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, window ReminderWindow) error {
	column := "reminder_24h_sent"
	if window == Reminder2h {
		column = "reminder_2h_sent"
	}
	_, err := r.db.Exec(ctx, fmt.Sprintf(
		`UPDATE appointments SET %s = TRUE WHERE id = $1`, column), id)
	if err != nil {
		return fmt.Errorf("schedule: mark reminder sent: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (Appointment, error) {
	var a Appointment
	var kind, status string
	var cancelledAt *time.Time
	var cancelReason *string
	err := row.Scan(
		&a.ID, &a.ContactID, &a.AgentID, &a.PropertyID, &kind, &a.ScheduledAt,
		&a.DurationMinutes, &status, &a.VisitorCount, &a.Reminder24hSent,
		&a.Reminder2hSent, &cancelledAt, &cancelReason, &a.CreatedAt,
	)
	if err != nil {
		return Appointment{}, err
	}
	a.Kind = AppointmentKind(kind)
	a.Status = AppointmentStatus(status)
	a.CancelledAt = cancelledAt
	if cancelReason != nil {
		a.CancelReason = *cancelReason
	}
	return a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	var appointments []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan appointment: %w", err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: read appointments: %w", err)
	}
	return appointments, nil
}
