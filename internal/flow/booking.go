package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NiveshSarthi/RealNex-sub001/internal/conversation"
	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
	"github.com/NiveshSarthi/RealNex-sub001/internal/schedule"
)

// Booking wizard steps, in order.
const (
	stepPropertySelection = "property_selection"
	stepDateSelection     = "date_selection"
	stepTimeSelection     = "time_selection"
	stepVisitorCount      = "visitor_count"
	stepConfirmation      = "confirmation"
)

func (e *Engine) startBooking(c *conversation.Context) []messaging.Outbound {
	c.ResetFlow()
	c.Flow = conversation.FlowBooking
	c.Step = stepPropertySelection
	e.metrics.ObserveFlowStarted("booking")
	return []messaging.Outbound{propertyList(e.properties)}
}

// handleBookingStep advances the booking wizard by one turn. Every invalid
// input re-prompts the current step; state never skips forward.
func (e *Engine) handleBookingStep(ctx context.Context, c *conversation.Context, text string, now time.Time) []messaging.Outbound {
	switch c.Step {
	case stepPropertySelection:
		return e.selectProperty(c, text)
	case stepDateSelection:
		return e.selectDate(ctx, c, text, now)
	case stepTimeSelection:
		return e.selectTime(c, text)
	case stepVisitorCount:
		return e.selectVisitorCount(c, text)
	case stepConfirmation:
		return e.confirmBooking(ctx, c, text)
	}
	// Unknown step in stored state; recover by resetting.
	c.ResetFlow()
	return []messaging.Outbound{whatNextMenu()}
}

func (e *Engine) selectProperty(c *conversation.Context, text string) []messaging.Outbound {
	prop, ok := e.matchProperty(text)
	if !ok {
		c.FailedAttempts++
		return []messaging.Outbound{
			messaging.Text("I couldn't find that property."),
			propertyList(e.properties),
		}
	}
	c.PropertyID = prop.ID
	c.Step = stepDateSelection
	c.FailedAttempts = 0
	return []messaging.Outbound{messaging.Text(fmt.Sprintf(
		"Great choice! When would you like to visit %s? You can say *today*, *tomorrow*, a weekday, or a date like 14-09.",
		prop.Name,
	))}
}

func (e *Engine) selectDate(ctx context.Context, c *conversation.Context, text string, now time.Time) []messaging.Outbound {
	date, ok := ResolveDatePhrase(now, text)
	if !ok {
		c.FailedAttempts++
		return []messaging.Outbound{messaging.Text(
			"Sorry, I didn't catch the date. Try *tomorrow*, a weekday like *saturday*, or a date like 14-09.",
		)}
	}

	slots, err := e.scheduler.AvailableSlots(ctx, date, schedule.KindSiteVisit, e.agentID)
	if err != nil {
		e.logger.Error("fetching availability", "contact_id", c.ContactID, "date", date.Format("2006-01-02"), "error", err)
		return []messaging.Outbound{messaging.Text(
			"I'm having trouble checking availability right now. Please try that date again in a moment.",
		)}
	}
	if len(slots) == 0 {
		c.FailedAttempts = 0
		return []messaging.Outbound{messaging.Text(fmt.Sprintf(
			"We don't have any open times on %s. Could you pick another date?",
			date.Format("Mon, 2 Jan"),
		))}
	}
	if len(slots) > maxOfferedSlots {
		slots = slots[:maxOfferedSlots]
	}

	c.VisitDate = date.Format("2006-01-02")
	c.OfferedSlots = slots
	c.Step = stepTimeSelection
	c.FailedAttempts = 0
	return []messaging.Outbound{slotList(date, slots)}
}

func (e *Engine) selectTime(c *conversation.Context, text string) []messaging.Outbound {
	slot, ok := pickSlot(c.OfferedSlots, text)
	if !ok {
		c.FailedAttempts++
		return []messaging.Outbound{messaging.Text(
			"That time isn't in the list. Reply with one of the numbers, or a time like 11 AM.",
		)}
	}
	c.SelectedSlot = &slot
	c.Step = stepVisitorCount
	c.FailedAttempts = 0
	return []messaging.Outbound{messaging.Text("How many people will be visiting? (1-10)")}
}

func (e *Engine) selectVisitorCount(c *conversation.Context, text string) []messaging.Outbound {
	n, ok := ParseNumber(text)
	count := int(n)
	if !ok || float64(count) != n || count < 1 || count > 10 {
		c.FailedAttempts++
		return []messaging.Outbound{messaging.Text("Please send a number between 1 and 10.")}
	}
	c.VisitorCount = count
	c.Step = stepConfirmation
	c.FailedAttempts = 0

	prop, _ := e.propertyByID(c.PropertyID)
	return []messaging.Outbound{messaging.Buttons(fmt.Sprintf(
		"Please confirm your site visit:\n\n"+
			"Property: %s, %s\n"+
			"When: %s\n"+
			"Visitors: %d",
		prop.Name, prop.Locality,
		c.SelectedSlot.Start.Format("Mon, 2 Jan at 3:04 PM"),
		count,
	),
		messaging.Button{ID: "confirm", Title: "Confirm"},
		messaging.Button{ID: "change", Title: "Change time"},
		messaging.Button{ID: "abort", Title: "Cancel"},
	)}
}

// confirmBooking is the terminal wizard step: an affirmative books, a change
// request returns to date selection, and anything else cancels the
// in-progress booking and clears the flow.
func (e *Engine) confirmBooking(ctx context.Context, c *conversation.Context, text string) []messaging.Outbound {
	switch {
	case hasAnyWord(text, "confirm", "yes", "ok", "okay", "sure", "done"):
		return e.placeBooking(ctx, c)

	case hasAnyWord(text, "change", "modify", "different", "another"):
		c.Step = stepDateSelection
		c.VisitDate = ""
		c.OfferedSlots = nil
		c.SelectedSlot = nil
		return []messaging.Outbound{messaging.Text(
			"Sure, let's pick again. Which date works for you?",
		)}
	}

	c.ResetFlow()
	return []messaging.Outbound{messaging.Text(bookingAbortedMessage), whatNextMenu()}
}

func (e *Engine) placeBooking(ctx context.Context, c *conversation.Context) []messaging.Outbound {
	if c.SelectedSlot == nil {
		c.ResetFlow()
		return []messaging.Outbound{messaging.Text(persistenceFailureMessage)}
	}

	appt, err := e.scheduler.Book(ctx, schedule.BookingRequest{
		ContactID:    c.ContactID,
		AgentID:      e.agentID,
		PropertyID:   c.PropertyID,
		Kind:         schedule.KindSiteVisit,
		ScheduledAt:  c.SelectedSlot.Start,
		VisitorCount: c.VisitorCount,
	})
	if err != nil {
		if errors.Is(err, schedule.ErrSlotUnavailable) {
			c.Step = stepDateSelection
			c.OfferedSlots = nil
			c.SelectedSlot = nil
			return []messaging.Outbound{messaging.Text(
				"Oh no, that time was just taken. Could you pick another date or time?",
			)}
		}
		e.logger.Error("placing booking", "contact_id", c.ContactID, "error", err)
		c.ResetFlow()
		return []messaging.Outbound{messaging.Text(persistenceFailureMessage)}
	}

	prop, _ := e.propertyByID(c.PropertyID)
	summary := bookingSummary(appt, prop)
	c.ResetFlow()
	e.metrics.ObserveFlowCompleted("booking")
	e.logger.Info("site visit booked",
		"contact_id", c.ContactID,
		"appointment_id", appt.ID.String(),
		"scheduled_at", appt.ScheduledAt,
	)
	return []messaging.Outbound{summary, whatNextMenu()}
}

// cancelVisit cancels the contact's next confirmed appointment on request.
func (e *Engine) cancelVisit(ctx context.Context, c *conversation.Context) []messaging.Outbound {
	appt, err := e.scheduler.CancelUpcoming(ctx, c.ContactID, "cancelled by contact")
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			return []messaging.Outbound{messaging.Text(noUpcomingVisitMessage)}
		}
		e.logger.Error("cancelling visit", "contact_id", c.ContactID, "error", err)
		return []messaging.Outbound{messaging.Text(persistenceFailureMessage)}
	}
	e.logger.Info("visit cancelled by contact",
		"contact_id", c.ContactID,
		"appointment_id", appt.ID.String(),
	)
	return []messaging.Outbound{visitCancelledMessage(appt), whatNextMenu()}
}

// matchProperty resolves free text to a catalog entry by list position, ID,
// or name/locality substring.
func (e *Engine) matchProperty(text string) (Property, bool) {
	if n, ok := ParseOrdinal(text, len(e.properties)); ok {
		return e.properties[n-1], true
	}
	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, p := range e.properties {
		if normalized == p.ID ||
			strings.Contains(normalized, strings.ToLower(p.Name)) ||
			(len(normalized) >= 4 && strings.Contains(strings.ToLower(p.Name), normalized)) ||
			strings.Contains(normalized, strings.ToLower(p.Locality)) {
			return p, true
		}
	}
	return Property{}, false
}

func (e *Engine) propertyByID(id string) (Property, bool) {
	for _, p := range e.properties {
		if p.ID == id {
			return p, true
		}
	}
	return Property{}, false
}

// pickSlot resolves a reply against the offered slots, by ordinal first,
// then by clock time against each slot's start.
func pickSlot(slots []schedule.TimeSlot, text string) (schedule.TimeSlot, bool) {
	if n, ok := ParseOrdinal(text, len(slots)); ok {
		return slots[n-1], true
	}
	if hour, minute, ok := ParseClockTime(text); ok {
		for _, s := range slots {
			if s.Start.Hour() == hour && s.Start.Minute() == minute {
				return s, true
			}
		}
	}
	return schedule.TimeSlot{}, false
}

// hasAnyWord matches whole words only, so "ok" does not fire inside "book".
func hasAnyWord(text string, words ...string) bool {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
