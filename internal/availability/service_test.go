package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/clinic-scheduler/internal/audit"
)

// fakeRepo keeps rules and exceptions in memory, keyed the way the
// Postgres schema constrains them.
type fakeRepo struct {
	rules      map[string]Rule // providerID|dayOfWeek
	exceptions []Exception
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rules: make(map[string]Rule)}
}

func ruleKey(providerID uuid.UUID, day int) string {
	return providerID.String() + "|" + string(rune('0'+day))
}

func (f *fakeRepo) GetRule(_ context.Context, providerID uuid.UUID, dayOfWeek int) (*Rule, error) {
	r, ok := f.rules[ruleKey(providerID, dayOfWeek)]
	if !ok {
		return nil, ErrRuleNotFound
	}
	return &r, nil
}

func (f *fakeRepo) ListRules(_ context.Context, providerID uuid.UUID) ([]Rule, error) {
	var out []Rule
	for _, r := range f.rules {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpsertRule(_ context.Context, in Rule) (*Rule, error) {
	in.ID = uuid.New()
	f.rules[ruleKey(in.ProviderID, in.DayOfWeek)] = in
	return &in, nil
}

func (f *fakeRepo) ListExceptions(_ context.Context, providerID uuid.UUID, from, to time.Time) ([]Exception, error) {
	var out []Exception
	for _, ex := range f.exceptions {
		if ex.ProviderID == providerID && !ex.Date.Before(from) && ex.Date.Before(to) {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateException(_ context.Context, in Exception) (*Exception, error) {
	in.ID = uuid.New()
	f.exceptions = append(f.exceptions, in)
	return &in, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, audit.Discard{}, zerolog.Nop())
}

func TestSetRule_Valid(t *testing.T) {
	svc := newTestService(newFakeRepo())
	providerID := uuid.New()

	rule, err := svc.SetRule(context.Background(), providerID, Rule{
		ProviderID:  providerID,
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "17:00",
		IsAvailable: true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rule.ID)
	assert.Equal(t, "09:00", rule.StartTime)
}

func TestSetRule_Invalid(t *testing.T) {
	svc := newTestService(newFakeRepo())
	providerID := uuid.New()

	cases := []struct {
		name string
		rule Rule
	}{
		{"day out of range", Rule{ProviderID: providerID, DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00", IsAvailable: true}},
		{"negative day", Rule{ProviderID: providerID, DayOfWeek: -1, StartTime: "09:00", EndTime: "17:00", IsAvailable: true}},
		{"bad start clock", Rule{ProviderID: providerID, DayOfWeek: 1, StartTime: "nine", EndTime: "17:00", IsAvailable: true}},
		{"start not before end", Rule{ProviderID: providerID, DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00", IsAvailable: true}},
		{"equal start and end", Rule{ProviderID: providerID, DayOfWeek: 1, StartTime: "09:00", EndTime: "09:00", IsAvailable: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SetRule(context.Background(), providerID, tc.rule)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestSetRule_UnavailableDayAllowsAnyOrder(t *testing.T) {
	svc := newTestService(newFakeRepo())
	providerID := uuid.New()

	// Closing a day only needs parseable clocks; the ordering check is
	// skipped because the window is never used.
	_, err := svc.SetRule(context.Background(), providerID, Rule{
		ProviderID:  providerID,
		DayOfWeek:   0,
		StartTime:   "00:00",
		EndTime:     "00:00",
		IsAvailable: false,
	})
	assert.NoError(t, err)
}

func TestAddException_Validation(t *testing.T) {
	svc := newTestService(newFakeRepo())
	providerID := uuid.New()
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	_, err := svc.AddException(context.Background(), providerID, Exception{
		ProviderID: providerID,
		Date:       date,
		StartTime:  strPtr("12:00"),
		IsBlocked:  true,
	})
	assert.ErrorIs(t, err, ErrInvalidRule, "lone start time")

	_, err = svc.AddException(context.Background(), providerID, Exception{
		ProviderID: providerID,
		Date:       date,
		IsBlocked:  false,
	})
	assert.ErrorIs(t, err, ErrInvalidRule, "open exception without a range")

	ex, err := svc.AddException(context.Background(), providerID, Exception{
		ProviderID: providerID,
		Date:       date,
		IsBlocked:  true,
		Reason:     strPtr("holiday"),
	})
	require.NoError(t, err)
	assert.True(t, ex.IsBlocked)
}

func TestDayWindow_ComposesRuleAndExceptions(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	providerID := uuid.New()
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	_, err := svc.SetRule(context.Background(), providerID, Rule{
		ProviderID:  providerID,
		DayOfWeek:   1,
		StartTime:   "09:00",
		EndTime:     "17:00",
		IsAvailable: true,
	})
	require.NoError(t, err)

	_, err = svc.AddException(context.Background(), providerID, Exception{
		ProviderID: providerID,
		Date:       monday,
		StartTime:  strPtr("12:00"),
		EndTime:    strPtr("13:00"),
		IsBlocked:  true,
	})
	require.NoError(t, err)

	win, err := svc.DayWindow(context.Background(), providerID, monday)
	require.NoError(t, err)
	assert.True(t, win.Open)
	require.Len(t, win.Blocked, 1)

	// A weekday with no rule resolves closed without an error.
	sunday := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	win, err = svc.DayWindow(context.Background(), providerID, sunday)
	require.NoError(t, err)
	assert.False(t, win.Open)
}

func TestListExceptions_RejectsInvertedRange(t *testing.T) {
	svc := newTestService(newFakeRepo())
	from := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.ListExceptions(context.Background(), uuid.New(), from, from.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrInvalidRule)
}
