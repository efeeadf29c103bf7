package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ticvision/ticvision/internal/models"
)

// DateLayout is the storage format of Event.Date
const DateLayout = "2006-01-02"

// Range is a symbolic time-range selector
type Range string

const (
	RangeAll          Range = "all"
	RangeToday        Range = "today"
	RangeLastWeek     Range = "lastWeek"
	RangeLastMonth    Range = "lastMonth"
	RangeLast3Months  Range = "last3Months"
	RangeLast6Months  Range = "last6Months"
	RangeLastYear     Range = "lastYear"
	RangeSpecificDate Range = "specificDate"
)

// Ranges lists every selector in display order
var Ranges = []Range{
	RangeAll,
	RangeToday,
	RangeLastWeek,
	RangeLastMonth,
	RangeLast3Months,
	RangeLast6Months,
	RangeLastYear,
	RangeSpecificDate,
}

// ErrInvalidRange is returned by ParseRange for unknown selectors
var ErrInvalidRange = errors.New("invalid time range")

const day = 24 * time.Hour

var rangeAliases = map[string]Range{
	"":             RangeAll,
	"all":          RangeAll,
	"today":        RangeToday,
	"day":          RangeToday,
	"lastweek":     RangeLastWeek,
	"week":         RangeLastWeek,
	"lastmonth":    RangeLastMonth,
	"month":        RangeLastMonth,
	"last3months":  RangeLast3Months,
	"last6months":  RangeLast6Months,
	"lastyear":     RangeLastYear,
	"year":         RangeLastYear,
	"specificdate": RangeSpecificDate,
	"date":         RangeSpecificDate,
}

// ParseRange resolves a selector or one of its aliases (day, week, month, year).
// An empty string selects RangeAll.
func ParseRange(s string) (Range, error) {
	r, ok := rangeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return r, nil
}

// GroupsByTimeOfDay reports whether rows for this range are bucketed by time of day
func (r Range) GroupsByTimeOfDay() bool {
	return r == RangeToday
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Match reports whether an event date satisfies the range relative to now.
// specific is only consulted for RangeSpecificDate. Malformed dates never match.
//
// lastWeek, last3Months and last6Months are rolling windows measured from the
// event's midnight; lastMonth and lastYear compare calendar fields.
func (r Range) Match(date, specific string, now time.Time) bool {
	if r == RangeAll {
		return true
	}

	loc := now.Location()
	t, ok := ParseDate(date, loc)
	if !ok {
		return false
	}

	switch r {
	case RangeToday:
		return sameDay(t, now)
	case RangeLastWeek:
		return now.Sub(t) <= 7*day
	case RangeLastMonth:
		return t.Year() == now.Year() && t.Month() == now.Month()
	case RangeLast3Months:
		return now.Sub(t) <= 90*day
	case RangeLast6Months:
		return now.Sub(t) <= 180*day
	case RangeLastYear:
		return t.Year() == now.Year()
	case RangeSpecificDate:
		want, ok := ParseDate(specific, loc)
		if !ok {
			return false
		}
		return sameDay(t, want)
	default:
		return false
	}
}

// FilterByRange returns the events that satisfy the range, preserving input order
func FilterByRange(events []models.Event, r Range, specific string, now time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if r.Match(e.Date, specific, now) {
			out = append(out, e)
		}
	}
	return out
}
