package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRuleNotFound = errors.New("availability rule not found")
	ErrInvalidRule  = errors.New("invalid availability rule")
)

// Rule is a provider's recurring open window for one weekday.
// At most one rule exists per (provider, day_of_week); writes upsert.
type Rule struct {
	ID          uuid.UUID
	ProviderID  uuid.UUID
	DayOfWeek   int    // 0 = Sunday .. 6 = Saturday
	StartTime   string // "HH:MM"
	EndTime     string // "HH:MM"
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Exception is a one-off override of the weekly rule for a single date.
// isBlocked with no time range closes the whole day; isBlocked with a time
// range blocks only that sub-range; a non-blocked range replaces the
// weekly window for that date.
type Exception struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Date       time.Time // midnight of the affected day
	StartTime  *string   // "HH:MM"
	EndTime    *string   // "HH:MM"
	Reason     *string
	IsBlocked  bool
	CreatedAt  time.Time
}

// TimeRange is a half-open [Start, End) interval within a day.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// DayWindow is the resolved bookable window for one provider-day.
// Blocked holds sub-ranges carved out of the window by blocking exceptions.
type DayWindow struct {
	Open    bool
	Start   time.Time
	End     time.Time
	Blocked []TimeRange
}

// ParseClock parses "HH:MM" in 24-hour format.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad time %q", ErrInvalidRule, s)
	}
	return t.Hour(), t.Minute(), nil
}

// at anchors an "HH:MM" clock value on the given calendar date.
func at(date time.Time, clock string) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}

// ResolveDayWindow computes the open window for a date from the weekly rule
// and any exceptions recorded for that exact date. rule may be nil (no
// weekly configuration for that weekday).
func ResolveDayWindow(rule *Rule, exceptions []Exception, date time.Time) (DayWindow, error) {
	var win DayWindow

	if rule != nil && rule.IsAvailable {
		start, err := at(date, rule.StartTime)
		if err != nil {
			return DayWindow{}, err
		}
		end, err := at(date, rule.EndTime)
		if err != nil {
			return DayWindow{}, err
		}
		if !start.Before(end) {
			return DayWindow{}, fmt.Errorf("%w: start %s not before end %s", ErrInvalidRule, rule.StartTime, rule.EndTime)
		}
		win = DayWindow{Open: true, Start: start, End: end}
	}

	for _, ex := range exceptions {
		if !sameDay(ex.Date, date) {
			continue
		}

		switch {
		case ex.IsBlocked && ex.StartTime == nil && ex.EndTime == nil:
			// Whole-day block wins over everything.
			return DayWindow{Open: false}, nil

		case ex.IsBlocked && ex.StartTime != nil && ex.EndTime != nil:
			start, err := at(date, *ex.StartTime)
			if err != nil {
				return DayWindow{}, err
			}
			end, err := at(date, *ex.EndTime)
			if err != nil {
				return DayWindow{}, err
			}
			win.Blocked = append(win.Blocked, TimeRange{Start: start, End: end})

		case !ex.IsBlocked && ex.StartTime != nil && ex.EndTime != nil:
			start, err := at(date, *ex.StartTime)
			if err != nil {
				return DayWindow{}, err
			}
			end, err := at(date, *ex.EndTime)
			if err != nil {
				return DayWindow{}, err
			}
			if !start.Before(end) {
				return DayWindow{}, fmt.Errorf("%w: exception start %s not before end %s", ErrInvalidRule, *ex.StartTime, *ex.EndTime)
			}
			win.Open = true
			win.Start = start
			win.End = end
		}
	}

	return win, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
