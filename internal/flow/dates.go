package flow

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// weekdayNames maps phrase tokens to weekdays for "next monday" style input.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?\b`)

// ResolveDatePhrase turns a natural date phrase into a calendar date relative
// to now. Pure: (now, phrase) → date. Supported: today, tomorrow, day after,
// weekend (upcoming Saturday), weekday names (next occurrence, today counts),
// and dd/mm or dd-mm numerics. Returns false when nothing parses.
func ResolveDatePhrase(now time.Time, phrase string) (time.Time, bool) {
	normalized := strings.ToLower(strings.TrimSpace(phrase))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(normalized, "day after"):
		return today.AddDate(0, 0, 2), true
	case strings.Contains(normalized, "today"):
		return today, true
	case strings.Contains(normalized, "tomorrow"):
		return today.AddDate(0, 0, 1), true
	case strings.Contains(normalized, "weekend"):
		return nextWeekday(today, time.Saturday), true
	}

	for name, weekday := range weekdayNames {
		if strings.Contains(normalized, name) {
			return nextWeekday(today, weekday), true
		}
	}

	if m := numericDateRe.FindStringSubmatch(normalized); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		// Reject impossible dates like 31/02 that time.Date normalizes away.
		if date.Day() != day || date.Month() != time.Month(month) {
			return time.Time{}, false
		}
		// A past dd/mm without a year means the next occurrence.
		if m[3] == "" && date.Before(today) {
			date = date.AddDate(1, 0, 0)
		}
		return date, true
	}

	return time.Time{}, false
}

// nextWeekday returns the next occurrence of weekday on or after today.
func nextWeekday(today time.Time, weekday time.Weekday) time.Time {
	delta := (int(weekday) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, delta)
}
