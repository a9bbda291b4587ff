// Package schedule computes bookable site-visit windows and owns appointment
// persistence: booking with a re-validate-on-write guard, idempotent
// cancellation, reminder sweeps, and daily route ordering.
package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced to the flow engine.
var (
	// ErrSlotUnavailable means the requested window no longer matches an open
	// slot: a stale offer, a concurrent booking, or a full day.
	ErrSlotUnavailable = errors.New("schedule: slot unavailable")
	// ErrNotFound means no appointment exists with the given ID.
	ErrNotFound = errors.New("schedule: appointment not found")
)

// AppointmentKind names a bookable appointment type.
type AppointmentKind string

const (
	KindSiteVisit    AppointmentKind = "site_visit"
	KindConsultation AppointmentKind = "consultation"
	KindVirtualTour  AppointmentKind = "virtual_tour"
)

// AppointmentType is the static configuration for a kind. Immutable at
// runtime.
type AppointmentType struct {
	Kind               AppointmentKind
	DurationMinutes    int
	BufferMinutes      int
	MaxPerDay          int
	AdvanceBookingDays int
}

// DefaultTypes is the production appointment-type table.
var DefaultTypes = map[AppointmentKind]AppointmentType{
	KindSiteVisit: {
		Kind:               KindSiteVisit,
		DurationMinutes:    60,
		BufferMinutes:      30,
		MaxPerDay:          6,
		AdvanceBookingDays: 14,
	},
	KindConsultation: {
		Kind:               KindConsultation,
		DurationMinutes:    30,
		BufferMinutes:      15,
		MaxPerDay:          10,
		AdvanceBookingDays: 14,
	},
	KindVirtualTour: {
		Kind:               KindVirtualTour,
		DurationMinutes:    30,
		BufferMinutes:      0,
		MaxPerDay:          12,
		AdvanceBookingDays: 30,
	},
}

// TimeSlot is a bookable window. Value type; equality is by (start, end).
type TimeSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Equal reports slot identity by boundaries.
func (s TimeSlot) Equal(other TimeSlot) bool {
	return s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

// Overlaps applies the half-open interval test against [start, end).
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// AppointmentStatus is the lifecycle state of a booking.
type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Appointment is a confirmed (or since cancelled/completed) booking.
type Appointment struct {
	ID              uuid.UUID
	ContactID       string
	AgentID         string
	PropertyID      string
	Kind            AppointmentKind
	ScheduledAt     time.Time
	DurationMinutes int
	Status          AppointmentStatus
	VisitorCount    int
	Reminder24hSent bool
	Reminder2hSent  bool
	CancelledAt     *time.Time
	CancelReason    string
	CreatedAt       time.Time
}

// EndsAt returns the exclusive end instant of the appointment window.
func (a Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Active reports whether the appointment still blocks its slot.
func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}
