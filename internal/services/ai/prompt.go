package ai

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/models"
)

// maxRecentInPrompt bounds how many individual events are quoted in the prompt
const maxRecentInPrompt = 15

// SystemPrompt frames the assistant for every suggestion request
const SystemPrompt = "You are a supportive assistant helping a person who tracks their tics and symptoms. " +
	"You are not a doctor and never diagnose. Offer practical, gentle coping ideas grounded in the patterns you are shown. " +
	"Answer in GitHub-flavored markdown with short headings and bullet lists."

type categoryStat struct {
	name    string
	count   int
	avg     float64
	recent  int
	topTime string
}

// BuildSuggestionPrompt summarizes the request's events, which are the user's
// latest window rather than full history, as an avg/count table plus the last
// week's activity and a few recent descriptions.
func BuildSuggestionPrompt(req *SuggestionRequest) string {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	stats := categoryStats(req.Events, now)

	var b strings.Builder
	fmt.Fprintf(&b, "The user has logged %d events in total. Today is %s.\n", req.EventCount, now.Format(analytics.DateLayout))

	if len(stats) == 0 {
		b.WriteString("\nNo events are available for analysis yet. Offer general guidance on keeping a consistent tracking habit.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nPer-category summary of the latest %d events:\n", len(req.Events))
	b.WriteString("| category | events | average intensity (1-10) | events in last 7 days | most common time of day |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "| %s | %d | %s | %d | %s |\n",
			s.name, s.count, analytics.FormatValue(s.avg), s.recent, orDash(s.topTime))
	}

	recent := append([]models.Event(nil), req.Events...)
	analytics.SortEvents(recent, analytics.SortDesc)
	if len(recent) > maxRecentInPrompt {
		recent = recent[:maxRecentInPrompt]
	}
	b.WriteString("\nMost recent events:\n")
	for _, e := range recent {
		fmt.Fprintf(&b, "- %s %s: %s, intensity %d", e.Date, e.TimeOfDay, e.Category, e.Intensity)
		if e.Description != nil && strings.TrimSpace(*e.Description) != "" {
			fmt.Fprintf(&b, " (%q)", TruncateString(strings.TrimSpace(*e.Description), 160))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nPlease provide:\n")
	b.WriteString("1. A short observation about trends (which categories are rising, when they tend to happen).\n")
	b.WriteString("2. Three to five concrete coping strategies tailored to those patterns.\n")
	b.WriteString("3. A reminder to consult a healthcare professional for medical advice.\n")
	return b.String()
}

func categoryStats(events []models.Event, now time.Time) []categoryStat {
	rows := analytics.Aggregate(events, false)
	totals := make(map[string]analytics.Cell)
	for _, r := range rows {
		for name, c := range r.Cells {
			t := totals[name]
			t.Sum += c.Sum
			t.Count += c.Count
			totals[name] = t
		}
	}

	recent := make(map[string]int)
	for _, e := range analytics.FilterByRange(events, analytics.RangeLastWeek, "", now) {
		recent[e.Category]++
	}

	times := make(map[string]map[string]int)
	for _, e := range events {
		if e.Category == "" || e.TimeOfDay == "" {
			continue
		}
		if times[e.Category] == nil {
			times[e.Category] = make(map[string]int)
		}
		times[e.Category][e.TimeOfDay]++
	}

	stats := make([]categoryStat, 0, len(totals))
	for name, c := range totals {
		stats = append(stats, categoryStat{
			name:    name,
			count:   c.Count,
			avg:     c.Average(),
			recent:  recent[name],
			topTime: mostFrequent(times[name]),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].name < stats[j].name
	})
	return stats
}

func mostFrequent(counts map[string]int) string {
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
