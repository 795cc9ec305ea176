package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, DefaultID, p.ID)
	assert.Equal(t, 24, p.CancellationCutoffHours)
	assert.Equal(t, 12, p.RescheduleCutoffHours)
	assert.Equal(t, "09:00", p.OfficeHoursStart)
	assert.Equal(t, "17:00", p.OfficeHoursEnd)
}

func TestCanCancel_CutoffBoundary(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	cutoff := start.Add(-24 * time.Hour)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before cutoff", cutoff.Add(-48 * time.Hour), true},
		{"exactly at cutoff", cutoff, true},
		{"one second past cutoff", cutoff.Add(time.Second), false},
		{"one second before cutoff", cutoff.Add(-time.Second), true},
		{"after appointment start", start.Add(time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanCancel(tc.now, start, 24))
		})
	}
}

func TestCanReschedule_UsesItsOwnCutoff(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)

	// 13 hours out: fine for a 12-hour cutoff, too late for 24.
	now := start.Add(-13 * time.Hour)
	assert.True(t, CanReschedule(now, start, 12))
	assert.False(t, CanReschedule(now, start, 24))
}

func TestZeroCutoffAllowsUntilStart(t *testing.T) {
	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)

	assert.True(t, CanCancel(start, start, 0))
	assert.False(t, CanCancel(start.Add(time.Minute), start, 0))
}
