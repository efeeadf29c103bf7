package analytics

import (
	"sort"
	"time"

	"github.com/ticvision/ticvision/internal/models"
)

// SortDirection orders tabular output
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection treats anything other than "desc" as ascending
func ParseSortDirection(s string) SortDirection {
	if s == string(SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// Query is the filter and view state applied to a user's events
type Query struct {
	Range        Range         `json:"range"`
	SpecificDate string        `json:"date,omitempty"`
	Categories   []string      `json:"categories,omitempty"`
	Mode         Mode          `json:"mode"`
	Sort         SortDirection `json:"sort"`
}

// Result is the output of Run
type Result struct {
	Query  Query    `json:"query"`
	Rows   []Row    `json:"rows"`
	Table  Table    `json:"table"`
	Series []Series `json:"series"`
}

// Filter applies the range and category filters
func Filter(events []models.Event, q Query, now time.Time) []models.Event {
	return FilterByCategory(FilterByRange(events, q.Range, q.SpecificDate, now), q.Categories)
}

// Run executes filter, aggregation, projection and color assignment.
// Result.Table is ascending; tabular callers use Table.Reversed when q.Sort is SortDesc.
func Run(events []models.Event, summaries []models.CategorySummary, q Query, now time.Time) Result {
	if q.Range == "" {
		q.Range = RangeAll
	}
	if q.Mode == "" {
		q.Mode = ModeAvg
	}

	byTimeOfDay := q.Range.GroupsByTimeOfDay()
	rows := Aggregate(Filter(events, q, now), byTimeOfDay)
	categories := Categories(rows)

	return Result{
		Query:  q,
		Rows:   rows,
		Table:  Project(rows, categories, q.Mode, byTimeOfDay),
		Series: AssignColors(categories, summaries),
	}
}

// SortEvents orders events by date then time of day. Unparseable dates sort
// last in either direction and keep their relative order.
func SortEvents(events []models.Event, dir SortDirection) {
	less := func(a, b models.Event) bool {
		ad, aok := ParseDate(a.Date, time.UTC)
		bd, bok := ParseDate(b.Date, time.UTC)
		if !aok || !bok {
			return aok && !bok
		}
		if dir == SortDesc {
			a, b, ad, bd = b, a, bd, ad
		}
		if !ad.Equal(bd) {
			return ad.Before(bd)
		}
		at, _ := ParseTimeOfDay(a.TimeOfDay)
		bt, _ := ParseTimeOfDay(b.TimeOfDay)
		if !at.Equal(bt) {
			return at.Before(bt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return less(events[i], events[j])
	})
}
