package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
	"github.com/NiveshSarthi/RealNex-sub001/internal/observability/metrics"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

// ReminderSweeper periodically scans for confirmed future appointments whose
// 24h or 2h reminder threshold has been crossed and dispatches one reminder
// per unsent window. The sweep is stateless: at-least-once delivery with the
// sent flag as the idempotency guard.
type ReminderSweeper struct {
	repo      Repository
	messenger messaging.Messenger
	logger    *logging.Logger
	metrics   *metrics.EngineMetrics
	interval  time.Duration
	now       func() time.Time
}

// NewReminderSweeper constructs a sweeper. interval <= 0 defaults to 5m.
func NewReminderSweeper(repo Repository, messenger messaging.Messenger, logger *logging.Logger, m *metrics.EngineMetrics, interval time.Duration) *ReminderSweeper {
	if repo == nil {
		panic("schedule: repository required")
	}
	if messenger == nil {
		panic("schedule: messenger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReminderSweeper{
		repo:      repo,
		messenger: messenger,
		logger:    logger,
		metrics:   m,
		interval:  interval,
		now:       time.Now,
	}
}

// Run sweeps on a ticker until ctx is cancelled.
func (s *ReminderSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error("reminder sweep failed", "error", err)
			}
		}
	}
}

// Sweep runs one pass. Each appointment can fire a 24h reminder and,
// independently, a 2h reminder — never the same window twice.
func (s *ReminderSweeper) Sweep(ctx context.Context) error {
	now := s.now()
	due, err := s.repo.DueReminders(ctx, now)
	if err != nil {
		return err
	}

	for _, appt := range due {
		until := appt.ScheduledAt.Sub(now)
		if !appt.Reminder24hSent && until <= 24*time.Hour {
			s.send(ctx, appt, Reminder24h)
		}
		if !appt.Reminder2hSent && until <= 2*time.Hour {
			s.send(ctx, appt, Reminder2h)
		}
	}
	return nil
}

func (s *ReminderSweeper) send(ctx context.Context, appt Appointment, window ReminderWindow) {
	body := reminderBody(appt, window)
	if err := s.messenger.SendText(ctx, appt.ContactID, body); err != nil {
		// Leave the flag unset; the next sweep retries.
		s.logger.Error("reminder send failed",
			"appointment_id", appt.ID, "window", window, "error", err)
		return
	}
	if err := s.repo.MarkReminderSent(ctx, appt.ID, window); err != nil {
		s.logger.Error("reminder flag update failed",
			"appointment_id", appt.ID, "window", window, "error", err)
		return
	}
	s.metrics.ObserveReminder(string(window))
	s.logger.Info("reminder sent", "appointment_id", appt.ID, "window", window)
}

func reminderBody(appt Appointment, window ReminderWindow) string {
	when := appt.ScheduledAt.Format("Mon, 2 Jan at 3:04 PM")
	if window == Reminder2h {
		return fmt.Sprintf("Reminder: your site visit is in 2 hours, at %s. Reply CANCEL if you can't make it.", appt.ScheduledAt.Format("3:04 PM"))
	}
	return fmt.Sprintf("Reminder: your site visit is scheduled for %s. Reply CANCEL if you need to change it.", when)
}
