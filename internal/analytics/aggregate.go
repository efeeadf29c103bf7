package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/ticvision/ticvision/internal/models"
)

// Cell accumulates the intensities logged for one category in one bucket
type Cell struct {
	Sum   int `json:"sum"`
	Count int `json:"count"`
}

// Average returns Sum/Count. Cells only exist once an event contributed, so Count is at least 1.
func (c Cell) Average() float64 {
	if c.Count == 0 {
		return 0
	}
	return float64(c.Sum) / float64(c.Count)
}

// Row is one time bucket with per-category totals
type Row struct {
	Key   string          `json:"key"`
	Cells map[string]Cell `json:"cells"`
}

// Value projects the category's cell under mode. ok is false when the category has no events in the bucket.
func (r Row) Value(category string, mode Mode) (float64, bool) {
	c, ok := r.Cells[category]
	if !ok {
		return 0, false
	}
	return mode.Project(c), true
}

// reference date used to order clock times
var referenceDate = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

var timeOfDayLabels = map[string]time.Duration{
	models.TimeOfDayMorning:   8 * time.Hour,
	models.TimeOfDayAfternoon: 14 * time.Hour,
	models.TimeOfDayEvening:   19 * time.Hour,
	models.TimeOfDayNight:     23 * time.Hour,
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04PM",
	"3:04 PM",
	"3PM",
	"3 PM",
}

// ParseTimeOfDay resolves a time-of-day label or clock string on the fixed reference date
func ParseTimeOfDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if offset, ok := timeOfDayLabels[strings.ToLower(s)]; ok {
		return referenceDate.Add(offset), true
	}
	upper := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, upper)
		if err == nil {
			return referenceDate.Add(time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second), true
		}
	}
	return time.Time{}, false
}

// Aggregate buckets events by date, or by time of day when byTimeOfDay is set,
// and sums intensities per category. Rows are sorted ascending by bucket.
// Events with an empty bucket key or category are skipped.
func Aggregate(events []models.Event, byTimeOfDay bool) []Row {
	index := make(map[string]int)
	var rows []Row

	for _, e := range events {
		key := strings.TrimSpace(e.Date)
		if byTimeOfDay {
			key = strings.TrimSpace(e.TimeOfDay)
		}
		category := NormalizeCategory(e.Category)
		if key == "" || category == "" {
			continue
		}

		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, Row{Key: key, Cells: make(map[string]Cell)})
		}

		cell := rows[i].Cells[category]
		cell.Sum += e.Intensity
		cell.Count++
		rows[i].Cells[category] = cell
	}

	if byTimeOfDay {
		sortRows(rows, ParseTimeOfDay)
	} else {
		sortRows(rows, func(s string) (time.Time, bool) { return ParseDate(s, time.UTC) })
	}
	return rows
}

// sortRows orders parseable keys chronologically, then unparseable keys lexically
func sortRows(rows []Row, parse func(string) (time.Time, bool)) {
	type sortKey struct {
		t  time.Time
		ok bool
	}
	keys := make(map[string]sortKey, len(rows))
	for _, r := range rows {
		t, ok := parse(r.Key)
		keys[r.Key] = sortKey{t: t, ok: ok}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := keys[rows[i].Key], keys[rows[j].Key]
		switch {
		case a.ok && b.ok:
			if !a.t.Equal(b.t) {
				return a.t.Before(b.t)
			}
			return rows[i].Key < rows[j].Key
		case a.ok != b.ok:
			return a.ok
		default:
			return rows[i].Key < rows[j].Key
		}
	})
}

// Categories returns the distinct categories present in rows, sorted by name
func Categories(rows []Row) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		for name := range r.Cells {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
