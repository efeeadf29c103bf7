package analytics

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the metric shown per bucket and category
type Mode string

const (
	ModeAvg   Mode = "avg"
	ModeTotal Mode = "total"
	ModeCount Mode = "count"
)

// Modes is the order Next walks through
var Modes = []Mode{ModeAvg, ModeTotal, ModeCount}

// ErrInvalidMode is returned by ParseMode for unknown modes
var ErrInvalidMode = errors.New("invalid mode")

// ParseMode accepts avg/average, total/sum and count. An empty string selects ModeAvg.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "avg", "average":
		return ModeAvg, nil
	case "total", "sum":
		return ModeTotal, nil
	case "count":
		return ModeCount, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) index() int {
	for i, c := range Modes {
		if c == m {
			return i
		}
	}
	return 0
}

// Next returns the following mode, wrapping from count to avg
func (m Mode) Next() Mode {
	return Modes[(m.index()+1)%len(Modes)]
}

// Prev returns the preceding mode, wrapping from avg to count
func (m Mode) Prev() Mode {
	return Modes[(m.index()+len(Modes)-1)%len(Modes)]
}

// Label is the human readable name used in chart titles and legends
func (m Mode) Label() string {
	switch m {
	case ModeTotal:
		return "Total intensity"
	case ModeCount:
		return "Event count"
	default:
		return "Average intensity"
	}
}

// Project converts a cell into the scalar for this mode
func (m Mode) Project(c Cell) float64 {
	switch m {
	case ModeTotal:
		return float64(c.Sum)
	case ModeCount:
		return float64(c.Count)
	default:
		return c.Average()
	}
}
