package schedule

import "time"

// DayHours is one day's working window in integer minutes from midnight.
// Integer-minute offsets keep slot arithmetic immune to DST edges.
type DayHours struct {
	OpenMinutes  int
	CloseMinutes int
}

// Closed reports whether the day has no working window.
func (d DayHours) Closed() bool {
	return d.CloseMinutes <= d.OpenMinutes
}

// WeeklyHours is a fixed weekly schedule.
type WeeklyHours map[time.Weekday]DayHours

// DefaultWeeklyHours: Mon-Fri 09:00-19:00, Sat 09:00-17:00, Sunday closed.
var DefaultWeeklyHours = WeeklyHours{
	time.Monday:    {OpenMinutes: 9 * 60, CloseMinutes: 19 * 60},
	time.Tuesday:   {OpenMinutes: 9 * 60, CloseMinutes: 19 * 60},
	time.Wednesday: {OpenMinutes: 9 * 60, CloseMinutes: 19 * 60},
	time.Thursday:  {OpenMinutes: 9 * 60, CloseMinutes: 19 * 60},
	time.Friday:    {OpenMinutes: 9 * 60, CloseMinutes: 19 * 60},
	time.Saturday:  {OpenMinutes: 9 * 60, CloseMinutes: 17 * 60},
}

// For returns the working window for the weekday, or a closed window when the
// day is not in the schedule.
func (w WeeklyHours) For(day time.Weekday) DayHours {
	return w[day]
}

// Open reports whether t falls inside the working window for its weekday.
func (w WeeklyHours) Open(t time.Time) bool {
	hours := w.For(t.Weekday())
	if hours.Closed() {
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= hours.OpenMinutes && minutes < hours.CloseMinutes
}
