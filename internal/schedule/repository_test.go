package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PgRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPgRepository(mock), mock
}

func TestBookExclusiveInsertsWhenDayIsClear(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT scheduled_at, duration_minutes FROM appointments`).
		WithArgs("agent-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"scheduled_at", "duration_minutes"}))
	mock.ExpectExec(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), "c1", "agent-1", "p1", "site_visit",
			start, 60, "confirmed", 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	appt, err := repo.BookExclusive(context.Background(), Appointment{
		ContactID:       "c1",
		AgentID:         "agent-1",
		PropertyID:      "p1",
		Kind:            KindSiteVisit,
		ScheduledAt:     start,
		DurationMinutes: 60,
		VisitorCount:    2,
	}, 6)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, appt.ID)
	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookExclusiveDetectsOverlapUnderLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	// A held row from 10:00-11:00 overlaps the requested 10:30 start.
	mock.ExpectQuery(`SELECT scheduled_at, duration_minutes FROM appointments`).
		WithArgs("agent-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"scheduled_at", "duration_minutes"}).
			AddRow(start.Add(-30*time.Minute), 60))
	mock.ExpectRollback()

	_, err := repo.BookExclusive(context.Background(), Appointment{
		AgentID: "agent-1", Kind: KindSiteVisit,
		ScheduledAt: start, DurationMinutes: 60,
	}, 6)

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookExclusiveEnforcesDailyCap(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 9, 2, 18, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"scheduled_at", "duration_minutes"})
	for i := 0; i < 2; i++ {
		rows.AddRow(start.Add(time.Duration(-3-i)*time.Hour), 60)
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT scheduled_at, duration_minutes FROM appointments`).
		WithArgs("agent-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := repo.BookExclusive(context.Background(), Appointment{
		AgentID: "agent-1", Kind: KindSiteVisit,
		ScheduledAt: start, DurationMinutes: 60,
	}, 2)

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookExclusiveMapsExclusionViolation(t *testing.T) {
	repo, mock := newMockRepo(t)
	start := time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT scheduled_at, duration_minutes FROM appointments`).
		WithArgs("agent-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"scheduled_at", "duration_minutes"}))
	// The schema's exclusion constraint catches what the lock missed.
	mock.ExpectExec(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), "", "agent-1", "", "site_visit",
			start, 60, "confirmed", 0, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23P01"})
	mock.ExpectRollback()

	_, err := repo.BookExclusive(context.Background(), Appointment{
		AgentID: "agent-1", Kind: KindSiteVisit,
		ScheduledAt: start, DurationMinutes: 60,
	}, 6)

	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelIsIdempotent(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	// Zero rows updated but the row exists: already cancelled, still success.
	mock.ExpectExec(`UPDATE appointments SET`).
		WithArgs(id, pgxmock.AnyArg(), "changed plans").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	require.NoError(t, repo.Cancel(context.Background(), id, "changed plans"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelMissingAppointment(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE appointments SET`).
		WithArgs(id, pgxmock.AnyArg(), "whatever").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.Cancel(context.Background(), id, "whatever")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReminderSentPicksColumn(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE appointments SET reminder_2h_sent = TRUE`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkReminderSent(context.Background(), id, Reminder2h))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForDayScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	at := time.Date(2026, 9, 2, 10, 30, 0, 0, time.UTC)
	created := at.Add(-48 * time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs("agent-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "contact_id", "agent_id", "property_id", "kind", "scheduled_at",
			"duration_minutes", "status", "visitor_count", "reminder_24h_sent",
			"reminder_2h_sent", "cancelled_at", "cancel_reason", "created_at",
		}).AddRow(id, "c1", "agent-1", "p1", "site_visit", at,
			60, "confirmed", 2, false, false, (*time.Time)(nil), (*string)(nil), created))

	appts, err := repo.ListForDay(context.Background(), "agent-1",
		at.Truncate(24*time.Hour), at.Truncate(24*time.Hour).AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, id, appts[0].ID)
	assert.Equal(t, KindSiteVisit, appts[0].Kind)
	assert.Equal(t, StatusConfirmed, appts[0].Status)
	assert.True(t, appts[0].Active())
}

func TestDueRemindersQueryWindows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs(now, now.Add(24*time.Hour), now.Add(2*time.Hour)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "contact_id", "agent_id", "property_id", "kind", "scheduled_at",
			"duration_minutes", "status", "visitor_count", "reminder_24h_sent",
			"reminder_2h_sent", "cancelled_at", "cancel_reason", "created_at",
		}))

	appts, err := repo.DueReminders(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, appts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextForContact(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	at := now.AddDate(0, 0, 1)

	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs("c1", now).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "contact_id", "agent_id", "property_id", "kind", "scheduled_at",
			"duration_minutes", "status", "visitor_count", "reminder_24h_sent",
			"reminder_2h_sent", "cancelled_at", "cancel_reason", "created_at",
		}).AddRow(id, "c1", "agent-1", "p1", "site_visit", at,
			60, "confirmed", 2, false, false, (*time.Time)(nil), (*string)(nil), now))

	appt, err := repo.NextForContact(context.Background(), "c1", now)
	require.NoError(t, err)
	assert.Equal(t, id, appt.ID)

	// No confirmed booking maps to ErrNotFound.
	mock.ExpectQuery(`SELECT (.+) FROM appointments`).
		WithArgs("c2", now).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "contact_id", "agent_id", "property_id", "kind", "scheduled_at",
			"duration_minutes", "status", "visitor_count", "reminder_24h_sent",
			"reminder_2h_sent", "cancelled_at", "cancel_reason", "created_at",
		}))

	_, err = repo.NextForContact(context.Background(), "c2", now)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
