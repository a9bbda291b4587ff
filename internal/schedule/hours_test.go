package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeeklyHoursOpen(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"weekday morning", time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC), true},
		{"weekday last minute", time.Date(2026, 9, 2, 18, 59, 0, 0, time.UTC), true},
		{"weekday at close", time.Date(2026, 9, 2, 19, 0, 0, 0, time.UTC), false},
		{"weekday before open", time.Date(2026, 9, 2, 8, 59, 0, 0, time.UTC), false},
		{"saturday afternoon", time.Date(2026, 9, 5, 16, 30, 0, 0, time.UTC), true},
		{"saturday evening", time.Date(2026, 9, 5, 17, 30, 0, 0, time.UTC), false},
		{"sunday", time.Date(2026, 9, 6, 11, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultWeeklyHours.Open(tt.at))
		})
	}
}

func TestDayHoursClosed(t *testing.T) {
	assert.True(t, DayHours{}.Closed())
	assert.True(t, DayHours{OpenMinutes: 600, CloseMinutes: 600}.Closed())
	assert.False(t, DayHours{OpenMinutes: 540, CloseMinutes: 1140}.Closed())
}

func TestForMissingDayIsClosed(t *testing.T) {
	assert.True(t, DefaultWeeklyHours.For(time.Sunday).Closed())
}
