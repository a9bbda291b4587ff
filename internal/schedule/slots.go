package schedule

import "time"

// GenerateSlots builds the raw slot grid for a day: fixed windows of the
// type's duration, advancing by duration+buffer, starting at opening time and
// stopping once a window would run past closing. The final slot may abut the
// close exactly; the trailing buffer is not required to fit.
func GenerateSlots(day time.Time, hours DayHours, apptType AppointmentType) []TimeSlot {
	if hours.Closed() || apptType.DurationMinutes <= 0 {
		return nil
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	step := apptType.DurationMinutes + apptType.BufferMinutes

	var slots []TimeSlot
	for offset := hours.OpenMinutes; offset+apptType.DurationMinutes <= hours.CloseMinutes; offset += step {
		start := dayStart.Add(time.Duration(offset) * time.Minute)
		slots = append(slots, TimeSlot{
			Start:           start,
			End:             start.Add(time.Duration(apptType.DurationMinutes) * time.Minute),
			DurationMinutes: apptType.DurationMinutes,
		})
	}
	return slots
}

// FilterAvailable drops slots overlapping any active appointment, using the
// half-open test: two intervals collide when start < otherEnd && end > otherStart.
func FilterAvailable(slots []TimeSlot, existing []Appointment) []TimeSlot {
	if len(existing) == 0 {
		return slots
	}

	available := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		blocked := false
		for _, appt := range existing {
			if !appt.Active() {
				continue
			}
			if slot.Overlaps(appt.ScheduledAt, appt.EndsAt()) {
				blocked = true
				break
			}
		}
		if !blocked {
			available = append(available, slot)
		}
	}
	return available
}

// FilterUpcoming drops slots that start at or before now. Used for same-day
// availability so the bot never offers a window already underway.
func FilterUpcoming(slots []TimeSlot, now time.Time) []TimeSlot {
	upcoming := make([]TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Start.After(now) {
			upcoming = append(upcoming, slot)
		}
	}
	return upcoming
}
