package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

func seedAppointment(t *testing.T, repo *memRepo, at time.Time) Appointment {
	t.Helper()
	appt, err := repo.BookExclusive(context.Background(), Appointment{
		ContactID:       "c1",
		AgentID:         "agent-1",
		Kind:            KindSiteVisit,
		ScheduledAt:     at,
		DurationMinutes: 60,
	}, 0)
	require.NoError(t, err)
	return appt
}

func newTestSweeper(repo *memRepo, rec *messaging.Recorder, now time.Time) *ReminderSweeper {
	s := NewReminderSweeper(repo, rec, logging.Default(), nil, time.Minute)
	s.now = func() time.Time { return now }
	return s
}

func TestSweepSends24hReminderOnce(t *testing.T) {
	repo := newMemRepo()
	rec := &messaging.Recorder{}
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	appt := seedAppointment(t, repo, now.Add(20*time.Hour))

	sweeper := newTestSweeper(repo, rec, now)
	require.NoError(t, sweeper.Sweep(context.Background()))

	require.Len(t, rec.Sent, 1)
	assert.Contains(t, rec.Sent[0].Outbound.Body, "scheduled for")

	saved, err := repo.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, saved.Reminder24hSent)
	assert.False(t, saved.Reminder2hSent)

	// A second sweep fires nothing.
	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.Len(t, rec.Sent, 1)
}

func TestSweepFiresBothWindowsIndependently(t *testing.T) {
	repo := newMemRepo()
	rec := &messaging.Recorder{}
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	appt := seedAppointment(t, repo, now.Add(90*time.Minute))

	// Inside both thresholds with neither sent: both fire in one pass.
	sweeper := newTestSweeper(repo, rec, now)
	require.NoError(t, sweeper.Sweep(context.Background()))

	assert.Len(t, rec.Sent, 2)
	saved, err := repo.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, saved.Reminder24hSent)
	assert.True(t, saved.Reminder2hSent)
}

func TestSweepRetriesAfterSendFailure(t *testing.T) {
	repo := newMemRepo()
	rec := &messaging.Recorder{FailNext: assert.AnError}
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	appt := seedAppointment(t, repo, now.Add(20*time.Hour))

	sweeper := newTestSweeper(repo, rec, now)
	require.NoError(t, sweeper.Sweep(context.Background()))

	// The failed send leaves the flag unset so the next pass retries.
	saved, err := repo.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.False(t, saved.Reminder24hSent)

	require.NoError(t, sweeper.Sweep(context.Background()))
	saved, err = repo.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, saved.Reminder24hSent)
}

func TestSweepIgnoresCancelledAndPast(t *testing.T) {
	repo := newMemRepo()
	rec := &messaging.Recorder{}
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	cancelled := seedAppointment(t, repo, now.Add(3*time.Hour))
	require.NoError(t, repo.Cancel(context.Background(), cancelled.ID, "test"))

	past := Appointment{
		ID: uuid.New(), ContactID: "c2", AgentID: "agent-1",
		ScheduledAt: now.Add(-time.Hour), DurationMinutes: 60, Status: StatusConfirmed,
	}
	repo.appts[past.ID] = past

	sweeper := newTestSweeper(repo, rec, now)
	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.Empty(t, rec.Sent)
}
