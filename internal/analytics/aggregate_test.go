package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticvision/ticvision/internal/models"
)

func scenarioEvents() []models.Event {
	return []models.Event{
		{Date: "2024-01-01", TimeOfDay: "morning", Category: "Eye", Intensity: 4},
		{Date: "2024-01-01", TimeOfDay: "evening", Category: "Eye", Intensity: 8},
		{Date: "2024-01-02", TimeOfDay: "morning", Category: "Arm", Intensity: 5},
	}
}

func TestAggregate_Scenario(t *testing.T) {
	t.Parallel()

	rows := Aggregate(scenarioEvents(), false)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-01-01", rows[0].Key)
	assert.Equal(t, Cell{Sum: 12, Count: 2}, rows[0].Cells["Eye"])
	_, hasArm := rows[0].Cells["Arm"]
	assert.False(t, hasArm, "absent category must not produce an entry")

	assert.Equal(t, "2024-01-02", rows[1].Key)
	assert.Equal(t, Cell{Sum: 5, Count: 1}, rows[1].Cells["Arm"])
}

func TestAggregate_RowInvariants(t *testing.T) {
	t.Parallel()

	events := append(scenarioEvents(),
		models.Event{Date: "2024-01-03", TimeOfDay: "night", Category: "neck", Intensity: 7},
		models.Event{Date: "2024-01-03", TimeOfDay: "night", Category: "Neck", Intensity: 2},
		models.Event{Date: "", TimeOfDay: "night", Category: "Neck", Intensity: 9},
		models.Event{Date: "2024-01-03", TimeOfDay: "night", Category: "  ", Intensity: 9},
	)

	rows := Aggregate(events, false)
	for _, r := range rows {
		assert.NotEmpty(t, r.Key)
		for _, c := range r.Cells {
			assert.GreaterOrEqual(t, c.Count, 1)
			assert.InDelta(t, float64(c.Sum)/float64(c.Count), c.Average(), 1e-9)
		}
	}
	require.Len(t, rows, 3)
	assert.Equal(t, Cell{Sum: 9, Count: 2}, rows[2].Cells["Neck"])
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Aggregate(nil, false))
	assert.Empty(t, Aggregate([]models.Event{}, true))
}

func TestAggregate_Idempotent(t *testing.T) {
	t.Parallel()

	events := scenarioEvents()
	assert.Equal(t, Aggregate(events, false), Aggregate(events, false))
}

func TestAggregate_DateOrdering(t *testing.T) {
	t.Parallel()

	events := []models.Event{
		{Date: "2024-02-10", Category: "Eye", Intensity: 1},
		{Date: "bad", Category: "Eye", Intensity: 1},
		{Date: "2023-12-31", Category: "Eye", Intensity: 1},
		{Date: "2024-01-05", Category: "Eye", Intensity: 1},
	}

	rows := Aggregate(events, false)
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"2023-12-31", "2024-01-05", "2024-02-10", "bad"}, keys)
}

func TestAggregate_TimeOfDayOrdering(t *testing.T) {
	t.Parallel()

	events := []models.Event{
		{Date: "2024-01-01", TimeOfDay: "night", Category: "Eye", Intensity: 1},
		{Date: "2024-01-01", TimeOfDay: "14:30", Category: "Eye", Intensity: 1},
		{Date: "2024-01-01", TimeOfDay: "morning", Category: "Eye", Intensity: 1},
		{Date: "2024-01-01", TimeOfDay: "9:15", Category: "Eye", Intensity: 1},
		{Date: "2024-01-01", TimeOfDay: "7:05 PM", Category: "Eye", Intensity: 1},
		{Date: "2024-01-01", TimeOfDay: "whenever", Category: "Eye", Intensity: 1},
	}

	rows := Aggregate(events, true)
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"morning", "9:15", "14:30", "7:05 PM", "night", "whenever"}, keys)
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"morning", 8, 0, true},
		{"Afternoon", 14, 0, true},
		{"evening", 19, 0, true},
		{"night", 23, 0, true},
		{"06:45", 6, 45, true},
		{"6:45", 6, 45, true},
		{"6:45pm", 18, 45, true},
		{"11 AM", 11, 0, true},
		{"", 0, 0, false},
		{"soon", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseTimeOfDay(tt.in)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, 1970, got.Year())
			assert.Equal(t, tt.hour, got.Hour())
			assert.Equal(t, tt.minute, got.Minute())
		})
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	rows := Aggregate(append(scenarioEvents(), models.Event{Date: "2024-01-02", Category: "Blink", Intensity: 2}), false)
	assert.Equal(t, []string{"Arm", "Blink", "Eye"}, Categories(rows))
}
