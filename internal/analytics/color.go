package analytics

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/ticvision/ticvision/internal/models"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Series pairs a category with its display color
type Series struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ValidColor reports whether s is a #rrggbb color
func ValidColor(s string) bool {
	return hexColorPattern.MatchString(s)
}

// HashColor derives a stable #rrggbb color from a category name.
// Names that normalize to the same label get the same color.
func HashColor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(NormalizeCategory(name))))
	sum := h.Sum32()

	hue := float64(sum % 360)
	saturation := 0.55 + float64((sum>>9)%20)/100
	lightness := 0.42 + float64((sum>>17)%14)/100

	r, g, b := hslToRGB(hue, saturation, lightness)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return uint8(math.Round((r + m) * 255)), uint8(math.Round((g + m) * 255)), uint8(math.Round((b + m) * 255))
}

// AssignColors resolves a color for every category, preferring the color
// persisted on the matching summary and falling back to HashColor.
func AssignColors(categories []string, summaries []models.CategorySummary) []Series {
	persisted := make(map[string]string, len(summaries))
	for _, s := range summaries {
		if ValidColor(s.Color) {
			persisted[NormalizeCategory(s.Name)] = s.Color
		}
	}

	out := make([]Series, 0, len(categories))
	for _, name := range categories {
		color, ok := persisted[NormalizeCategory(name)]
		if !ok {
			color = HashColor(name)
		}
		out = append(out, Series{Name: name, Color: color})
	}
	return out
}
