package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-scheduler/internal/availability"
)

const DefaultGranularityMinutes = 30

// WindowResolver supplies the resolved open window for a provider-day.
type WindowResolver interface {
	DayWindow(ctx context.Context, providerID uuid.UUID, date time.Time) (availability.DayWindow, error)
}

// SlotGenerator enumerates bookable start instants. Output is
// deterministic for a given appointment state: ascending, fixed
// granularity, never in the past.
type SlotGenerator struct {
	windows WindowResolver
	repo    Repository
	now     func() time.Time
}

func NewSlotGenerator(windows WindowResolver, repo Repository) *SlotGenerator {
	return &SlotGenerator{windows: windows, repo: repo, now: time.Now}
}

// GenerateSlots walks the provider's open window for date in granularity
// steps and returns every start t where [t, t+duration) fits the window,
// overlaps no non-cancelled appointment and no blocked sub-range, and ends
// strictly after now.
func (g *SlotGenerator) GenerateSlots(ctx context.Context, providerID uuid.UUID, date time.Time, durationMin, granularityMin int) ([]time.Time, error) {
	if durationMin <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidInput, durationMin)
	}
	if granularityMin <= 0 {
		granularityMin = DefaultGranularityMinutes
	}

	win, err := g.windows.DayWindow(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("resolve day window: %w", err)
	}
	if !win.Open {
		return nil, nil
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	booked, err := g.repo.ListActiveForProviderBetween(ctx, providerID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load provider day: %w", err)
	}

	duration := time.Duration(durationMin) * time.Minute
	step := time.Duration(granularityMin) * time.Minute
	now := g.now()

	var slots []time.Time
	for t := win.Start; !t.Add(duration).After(win.End); t = t.Add(step) {
		end := t.Add(duration)

		if !end.After(now) {
			continue
		}
		if overlapsAny(t, end, booked) {
			continue
		}
		if overlapsBlocked(t, end, win.Blocked) {
			continue
		}

		slots = append(slots, t)
	}

	return slots, nil
}

func overlapsAny(start, end time.Time, booked []Appointment) bool {
	for i := range booked {
		if Overlaps(start, end, booked[i].StartTime, booked[i].EndTime) {
			return true
		}
	}
	return false
}

func overlapsBlocked(start, end time.Time, blocked []availability.TimeRange) bool {
	for _, b := range blocked {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}
