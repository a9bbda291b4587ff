package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"9500000", 9_500_000},
		{"95,00,000", 9_500_000},
		{"95L", 9_500_000},
		{"95 lakhs", 9_500_000},
		{"1.2cr", 12_000_000},
		{"2 crores", 20_000_000},
		{"50k", 50_000},
		{"8.5", 8.5},
		{"around 20 percent", 20},
		{"Rs 75 lacs", 75_00_000},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseNumber(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumberNoDigits(t *testing.T) {
	for _, text := range []string{"", "no idea", "a lot"} {
		_, ok := ParseNumber(text)
		assert.False(t, ok, "text %q should not parse", text)
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		text       string
		wantHour   int
		wantMinute int
	}{
		{"11 am", 11, 0},
		{"3pm", 15, 0},
		{"3:30 PM", 15, 30},
		{"12 pm", 12, 0},
		{"12 am", 0, 0},
		{"15:00", 15, 0},
		{"10:30", 10, 30},
		// Bare small hours read as afternoon.
		{"4", 16, 0},
		{"come at 5", 17, 0},
		// Bare 11 stays morning.
		{"11", 11, 0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			hour, minute, ok := ParseClockTime(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.wantHour, hour)
			assert.Equal(t, tt.wantMinute, minute)
		})
	}
}

func TestParseClockTimeRejectsInvalid(t *testing.T) {
	for _, text := range []string{"no time", "25:00", "10:75"} {
		_, _, ok := ParseClockTime(text)
		assert.False(t, ok, "text %q should not parse", text)
	}
}

func TestParseOrdinal(t *testing.T) {
	n, ok := ParseOrdinal("2", 6)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = ParseOrdinal("option 3", 6)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = ParseOrdinal("7", 6)
	assert.False(t, ok)

	_, ok = ParseOrdinal("first", 6)
	assert.False(t, ok)
}
