package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/NiveshSarthi/RealNex-sub001/internal/observability/metrics"
	"github.com/NiveshSarthi/RealNex-sub001/pkg/logging"
)

var schedulerTracer = otel.Tracer("realnex.internal.schedule")

// BookingRequest is the input to Scheduler.Book. ScheduledAt must match a
// currently available slot; duration always comes from the type config, never
// from the client.
type BookingRequest struct {
	ContactID    string
	AgentID      string
	PropertyID   string
	Kind         AppointmentKind
	ScheduledAt  time.Time
	VisitorCount int
}

// Scheduler computes availability and manages bookings.
type Scheduler struct {
	repo    Repository
	hours   WeeklyHours
	types   map[AppointmentKind]AppointmentType
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
	now     func() time.Time
}

// SchedulerOption customizes the scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithMetrics attaches booking metrics.
func WithMetrics(m *metrics.EngineMetrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithHours overrides the weekly schedule.
func WithHours(hours WeeklyHours) SchedulerOption {
	return func(s *Scheduler) { s.hours = hours }
}

// NewScheduler constructs a scheduler over the repository.
func NewScheduler(repo Repository, logger *logging.Logger, opts ...SchedulerOption) *Scheduler {
	if repo == nil {
		panic("schedule: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Scheduler{
		repo:   repo,
		hours:  DefaultWeeklyHours,
		types:  DefaultTypes,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hours exposes the weekly schedule (shared with the business-hours gate).
func (s *Scheduler) Hours() WeeklyHours {
	return s.hours
}

// TypeFor returns the configuration for a kind, falling back to site visit.
func (s *Scheduler) TypeFor(kind AppointmentKind) AppointmentType {
	if t, ok := s.types[kind]; ok {
		return t
	}
	return s.types[KindSiteVisit]
}

// AvailableSlots returns the open windows for the date, chronological,
// excluding anything overlapping an active appointment for the agent. Closed
// days, past dates, and dates beyond the advance-booking window yield an
// empty list.
func (s *Scheduler) AvailableSlots(ctx context.Context, date time.Time, kind AppointmentKind, agentID string) ([]TimeSlot, error) {
	return s.availableSlots(ctx, date, kind, agentID, uuid.Nil)
}

// availableSlots is AvailableSlots with one appointment left out of the
// overlap check, so a reschedule can land inside its own current window.
func (s *Scheduler) availableSlots(ctx context.Context, date time.Time, kind AppointmentKind, agentID string, exclude uuid.UUID) ([]TimeSlot, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.available_slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("realnex.kind", string(kind)),
		attribute.String("realnex.agent_id", agentID),
	)

	apptType := s.TypeFor(kind)
	now := s.now().In(date.Location())

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, date.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if day.Before(today) {
		return nil, nil
	}
	if apptType.AdvanceBookingDays > 0 && day.After(today.AddDate(0, 0, apptType.AdvanceBookingDays)) {
		return nil, nil
	}

	hours := s.hours.For(day.Weekday())
	if hours.Closed() {
		return nil, nil
	}

	slots := GenerateSlots(day, hours, apptType)
	if day.Equal(today) {
		slots = FilterUpcoming(slots, now)
	}

	existing, err := s.repo.ListForDay(ctx, agentID, day, day.AddDate(0, 0, 1))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("schedule: load existing appointments: %w", err)
	}
	if exclude != uuid.Nil {
		kept := existing[:0]
		for _, appt := range existing {
			if appt.ID != exclude {
				kept = append(kept, appt)
			}
		}
		existing = kept
	}

	return FilterAvailable(slots, existing), nil
}

// Book re-validates that the requested start matches a currently available
// slot, then persists under the repository's exclusive-day transaction. The
// double check closes the stale-offer race: slots shown minutes ago may be
// gone by confirmation time.
func (s *Scheduler) Book(ctx context.Context, req BookingRequest) (Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("realnex.contact_id", req.ContactID),
		attribute.String("realnex.kind", string(req.Kind)),
	)

	apptType := s.TypeFor(req.Kind)

	available, err := s.AvailableSlots(ctx, req.ScheduledAt, req.Kind, req.AgentID)
	if err != nil {
		return Appointment{}, err
	}
	matched := false
	for _, slot := range available {
		if slot.Start.Equal(req.ScheduledAt) {
			matched = true
			break
		}
	}
	if !matched {
		s.metrics.ObserveBooking("slot_unavailable")
		return Appointment{}, ErrSlotUnavailable
	}

	appt, err := s.repo.BookExclusive(ctx, Appointment{
		ContactID:       req.ContactID,
		AgentID:         req.AgentID,
		PropertyID:      req.PropertyID,
		Kind:            req.Kind,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: apptType.DurationMinutes,
		VisitorCount:    req.VisitorCount,
	}, apptType.MaxPerDay)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotUnavailable) {
			s.metrics.ObserveBooking("slot_unavailable")
		} else {
			s.metrics.ObserveBooking("error")
		}
		return Appointment{}, err
	}

	s.metrics.ObserveBooking("confirmed")
	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"contact_id", appt.ContactID,
		"scheduled_at", appt.ScheduledAt,
		"kind", appt.Kind,
	)
	return appt, nil
}

// Cancel cancels an appointment. Idempotent for already-cancelled ones.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	ctx, span := schedulerTracer.Start(ctx, "schedule.cancel")
	defer span.End()

	if err := s.repo.Cancel(ctx, id, reason); err != nil {
		span.RecordError(err)
		return err
	}
	s.metrics.ObserveBooking("cancelled")
	s.logger.Info("appointment cancelled", "appointment_id", id, "reason", reason)
	return nil
}

// CancelUpcoming cancels the contact's next confirmed appointment and returns
// it, or ErrNotFound when the contact has nothing booked.
func (s *Scheduler) CancelUpcoming(ctx context.Context, contactID, reason string) (Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.cancel_upcoming")
	defer span.End()
	span.SetAttributes(attribute.String("realnex.contact_id", contactID))

	appt, err := s.repo.NextForContact(ctx, contactID, s.now())
	if err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}
	if err := s.Cancel(ctx, appt.ID, reason); err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

// Reschedule moves an appointment to a new start. The new slot is validated
// first, with the old appointment ignored (moving inside your own window is
// allowed); the original booking is only cancelled once the new start is
// known to be good, so a rejected reschedule leaves it untouched.
func (s *Scheduler) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (Appointment, error) {
	ctx, span := schedulerTracer.Start(ctx, "schedule.reschedule")
	defer span.End()

	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if old.Status != StatusConfirmed {
		return Appointment{}, fmt.Errorf("schedule: cannot reschedule %s appointment: %w", old.Status, ErrNotFound)
	}

	available, err := s.availableSlots(ctx, newStart, old.Kind, old.AgentID, old.ID)
	if err != nil {
		return Appointment{}, err
	}
	matched := false
	for _, slot := range available {
		if slot.Start.Equal(newStart) {
			matched = true
			break
		}
	}
	if !matched {
		s.metrics.ObserveBooking("slot_unavailable")
		return Appointment{}, ErrSlotUnavailable
	}

	if err := s.repo.Cancel(ctx, id, "rescheduled"); err != nil {
		return Appointment{}, err
	}

	appt, err := s.Book(ctx, BookingRequest{
		ContactID:    old.ContactID,
		AgentID:      old.AgentID,
		PropertyID:   old.PropertyID,
		Kind:         old.Kind,
		ScheduledAt:  newStart,
		VisitorCount: old.VisitorCount,
	})
	if err != nil {
		span.RecordError(err)
		// Lost a race between the pre-check and the booking transaction;
		// put the original appointment back so the contact keeps a slot.
		restored, rbErr := s.repo.BookExclusive(ctx, Appointment{
			ContactID:       old.ContactID,
			AgentID:         old.AgentID,
			PropertyID:      old.PropertyID,
			Kind:            old.Kind,
			ScheduledAt:     old.ScheduledAt,
			DurationMinutes: old.DurationMinutes,
			VisitorCount:    old.VisitorCount,
		}, 0)
		if rbErr != nil {
			s.logger.Error("restoring appointment after failed reschedule",
				"appointment_id", id, "error", rbErr)
		} else {
			s.logger.Info("reschedule failed, original restored",
				"old_id", id, "restored_id", restored.ID)
		}
		return Appointment{}, err
	}

	s.logger.Info("appointment rescheduled", "old_id", id, "new_id", appt.ID, "scheduled_at", newStart)
	return appt, nil
}
