package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/clinic-scheduler/internal/audit"
	"github.com/clinichub/clinic-scheduler/internal/availability"
	"github.com/clinichub/clinic-scheduler/internal/policy"
)

type fakeWindows struct {
	win availability.DayWindow
	err error
}

func (f fakeWindows) DayWindow(context.Context, uuid.UUID, time.Time) (availability.DayWindow, error) {
	return f.win, f.err
}

func workday(date time.Time) availability.DayWindow {
	return availability.DayWindow{
		Open:  true,
		Start: time.Date(date.Year(), date.Month(), date.Day(), 9, 0, 0, 0, time.UTC),
		End:   time.Date(date.Year(), date.Month(), date.Day(), 17, 0, 0, 0, time.UTC),
	}
}

type slotFixture struct {
	gen        *SlotGenerator
	repo       *memRepo
	providerID uuid.UUID
	date       time.Time
}

func newSlotFixture(t *testing.T, win availability.DayWindow) *slotFixture {
	t.Helper()
	providerID := uuid.New()
	repo := newMemRepo(providerID)
	gen := NewSlotGenerator(fakeWindows{win: win}, repo)
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	// Fixed clock well before the day so past-slot suppression stays out
	// of the way unless a test moves it.
	gen.now = func() time.Time { return date.AddDate(0, 0, -1) }

	return &slotFixture{gen: gen, repo: repo, providerID: providerID, date: date}
}

func (f *slotFixture) bookSlot(t *testing.T, hour, min int) {
	t.Helper()
	start := time.Date(f.date.Year(), f.date.Month(), f.date.Day(), hour, min, 0, 0, time.UTC)
	_, err := f.repo.CreateScheduled(context.Background(), Appointment{
		PatientID:  uuid.New(),
		ProviderID: f.providerID,
		Title:      "Booked",
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
	})
	require.NoError(t, err)
}

func TestGenerateSlots_FullWorkday(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))

	slots, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)

	// 09:00 through 16:30 inclusive: a slot may end exactly at closing.
	require.Len(t, slots, 16)
	assert.Equal(t, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC), slots[0])
	assert.Equal(t, time.Date(2026, 9, 7, 16, 30, 0, 0, time.UTC), slots[15])

	for i := 1; i < len(slots); i++ {
		assert.Equal(t, 30*time.Minute, slots[i].Sub(slots[i-1]), "slots must be evenly spaced and ascending")
	}
}

func TestGenerateSlots_ExcludesBookedInterval(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))
	f.bookSlot(t, 10, 0)

	slots, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)

	require.Len(t, slots, 15)
	assert.NotContains(t, slots, time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC))
	assert.Contains(t, slots, time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC))
	assert.Contains(t, slots, time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC))
}

func TestGenerateSlots_LongerDurationStraddlesBooking(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))
	f.bookSlot(t, 10, 0)

	slots, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 60, 30)
	require.NoError(t, err)

	// A 60-minute visit starting 09:30 or 10:00 would overlap 10:00-10:30.
	assert.NotContains(t, slots, time.Date(2026, 9, 7, 9, 30, 0, 0, time.UTC))
	assert.NotContains(t, slots, time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC))
	assert.Contains(t, slots, time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC))
	assert.Contains(t, slots, time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC))
	// Last start that still ends by 17:00.
	assert.Equal(t, time.Date(2026, 9, 7, 16, 0, 0, 0, time.UTC), slots[len(slots)-1])
}

func TestGenerateSlots_SuppressesPastSlots(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))
	f.gen.now = func() time.Time { return time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC) }

	slots, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)

	// The 11:30 slot ends exactly at noon and is already unbookable; the
	// first offered start is 12:00.
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC), slots[0])
	assert.Len(t, slots, 10)
}

func TestGenerateSlots_SkipsBlockedSubrange(t *testing.T) {
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	win := workday(date)
	win.Blocked = []availability.TimeRange{{
		Start: time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 7, 13, 0, 0, 0, time.UTC),
	}}
	f := newSlotFixture(t, win)

	slots, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)

	assert.NotContains(t, slots, time.Date(2026, 9, 7, 12, 0, 0, 0, time.UTC))
	assert.NotContains(t, slots, time.Date(2026, 9, 7, 12, 30, 0, 0, time.UTC))
	// 11:30 ends as the block begins; half-open intervals do not collide.
	assert.Contains(t, slots, time.Date(2026, 9, 7, 11, 30, 0, 0, time.UTC))
	assert.Contains(t, slots, time.Date(2026, 9, 7, 13, 0, 0, 0, time.UTC))
	assert.Len(t, slots, 14)
}

func TestGenerateSlots_ClosedDay(t *testing.T) {
	f := newSlotFixture(t, availability.DayWindow{Open: false})

	slots, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlots_InvalidDuration(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))

	_, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 0, 30)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.gen.GenerateSlots(context.Background(), f.providerID, f.date, -15, 30)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateSlots_DefaultGranularity(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))

	withDefault, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 0)
	require.NoError(t, err)
	explicit, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, DefaultGranularityMinutes)
	require.NoError(t, err)

	assert.Equal(t, explicit, withDefault)
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))
	f.bookSlot(t, 14, 30)

	first, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)
	second, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateSlots_BookingRemovesSlot(t *testing.T) {
	f := newSlotFixture(t, workday(time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)))
	svc := NewService(f.repo, &passLocker{}, fixedPolicies{p: policy.Default()}, audit.Discard{}, nil, zerolog.Nop())
	svc.now = f.gen.now

	before, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)
	require.Contains(t, before, time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC))

	patient := Actor{ID: uuid.New(), Role: RolePatient}
	_, err = svc.Book(context.Background(), patient, BookRequest{
		ProviderID: f.providerID,
		Title:      "Checkup",
		StartTime:  time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
		EndTime:    time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	after, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 30, 30)
	require.NoError(t, err)
	assert.NotContains(t, after, time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC))
	assert.Len(t, after, len(before)-1)
}

func TestGenerateSlots_DurationLongerThanWindow(t *testing.T) {
	win := availability.DayWindow{
		Open:  true,
		Start: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
	}
	f := newSlotFixture(t, win)

	slots, err := f.gen.GenerateSlots(context.Background(), f.providerID, f.date, 90, 30)
	require.NoError(t, err)
	assert.Empty(t, slots)
}
