package analytics

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ticvision/ticvision/internal/models"
)

// NormalizeCategory trims, collapses inner whitespace and title-cases a category label.
// It is applied when events are written and when filters are matched.
func NormalizeCategory(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}

// FilterByCategory keeps events whose category is in allowed.
// An empty allowed set means no restriction. Events without a category never match.
func FilterByCategory(events []models.Event, allowed []string) []models.Event {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		if n := NormalizeCategory(name); n != "" {
			set[n] = struct{}{}
		}
	}

	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		name := NormalizeCategory(e.Category)
		if name == "" {
			continue
		}
		if len(set) > 0 {
			if _, ok := set[name]; !ok {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}
