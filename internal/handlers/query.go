package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/validation"
)

// Clock supplies "now" in the zone used for today, calendar month and calendar year ranges
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

// NewClock returns a wall clock in loc, UTC when loc is nil
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) now() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

var errMissingDate = errors.New("date is required for the specificDate range")

// parseQuery reads range, date, category (repeatable), mode and sort parameters
func parseQuery(r *http.Request) (analytics.Query, error) {
	values := r.URL.Query()

	rng, err := analytics.ParseRange(values.Get("range"))
	if err != nil {
		return analytics.Query{}, err
	}
	mode, err := analytics.ParseMode(values.Get("mode"))
	if err != nil {
		return analytics.Query{}, err
	}

	q := analytics.Query{
		Range:        rng,
		SpecificDate: values.Get("date"),
		Categories:   values["category"],
		Mode:         mode,
		Sort:         analytics.ParseSortDirection(values.Get("sort")),
	}

	if q.Range == analytics.RangeSpecificDate {
		if q.SpecificDate == "" {
			return analytics.Query{}, errMissingDate
		}
		if err := validation.ValidateEventDate(q.SpecificDate); err != nil {
			return analytics.Query{}, err
		}
	}

	return q, nil
}

// parseSize reads width and height; missing or malformed values fall back to chart defaults
func parseSize(r *http.Request) (int, int) {
	width, _ := strconv.Atoi(r.URL.Query().Get("width"))
	height, _ := strconv.Atoi(r.URL.Query().Get("height"))
	return width, height
}

func queryErrorMessage(err error) string {
	switch {
	case errors.Is(err, analytics.ErrInvalidRange):
		return fmt.Sprintf("%v (use one of all, today, lastWeek, lastMonth, last3Months, last6Months, lastYear, specificDate)", err)
	case errors.Is(err, analytics.ErrInvalidMode):
		return fmt.Sprintf("%v (use avg, total or count)", err)
	default:
		return err.Error()
	}
}
