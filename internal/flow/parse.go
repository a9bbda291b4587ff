package flow

import (
	"regexp"
	"strconv"
	"strings"
)

var numberTokenRe = regexp.MustCompile(`(\d+(?:[.,]\d+)*(?:\.\d+)?)\s*(lakhs?|lacs?|crores?|cr|l|k)?`)

// ParseNumber extracts the first numeric token from free text, tolerating
// comma grouping, a currency/percent prefix or suffix, and Indian magnitude
// suffixes (75L, 1.2cr, 50k).
func ParseNumber(text string) (float64, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	m := numberTokenRe.FindStringSubmatch(normalized)
	if m == nil {
		return 0, false
	}

	raw := strings.ReplaceAll(m[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	switch m[2] {
	case "k":
		value *= 1_000
	case "l", "lakh", "lakhs", "lac", "lacs":
		value *= 100_000
	case "cr", "crore", "crores":
		value *= 10_000_000
	}
	return value, true
}

var clockRe = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?\b`)

// ParseClockTime parses a 12-hour clock expression ("3pm", "3:30 PM",
// "11 am") or a bare 24-hour "15:00" into (hour, minute). A bare hour with no
// am/pm marker in [1,7] is read as afternoon, matching how people text visit
// times ("come at 4").
func ParseClockTime(text string) (hour, minute int, ok bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	m := clockRe.FindStringSubmatch(normalized)
	if m == nil {
		return 0, 0, false
	}

	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}

	marker := strings.ReplaceAll(m[3], ".", "")
	switch marker {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		if m[2] == "" && hour >= 1 && hour <= 7 {
			hour += 12
		}
	}
	if hour > 23 {
		return 0, 0, false
	}
	return hour, minute, true
}

// ParseOrdinal reads a 1-based option index ("2", "option 2", "slot 2").
func ParseOrdinal(text string, max int) (int, bool) {
	normalized := strings.TrimSpace(strings.ToLower(text))
	normalized = strings.TrimPrefix(normalized, "option")
	normalized = strings.TrimPrefix(normalized, "slot")
	normalized = strings.TrimSpace(normalized)

	n, err := strconv.Atoi(normalized)
	if err != nil || n < 1 || n > max {
		return 0, false
	}
	return n, true
}
