package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/chart"
	"github.com/ticvision/ticvision/internal/models"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func testEvents() []models.Event {
	return []models.Event{
		{Date: "2024-06-14", TimeOfDay: "09:00", Category: "Tic", Intensity: 4},
		{Date: "2024-06-14", TimeOfDay: "18:30", Category: "Tic", Intensity: 2},
		{Date: "2024-06-13", TimeOfDay: "07:15", Category: "Cough", Intensity: 3},
		{Date: "2023-01-01", TimeOfDay: "12:00", Category: "Tic", Intensity: 5},
	}
}

func staticSource(events []models.Event, err error) Source {
	return SourceFunc(func(ctx context.Context) ([]models.Event, []models.CategorySummary, error) {
		return events, []models.CategorySummary{{Name: "Tic", Color: "#ff0000"}}, err
	})
}

// newLoadedModel builds a model and feeds it the result of its Init command
func newLoadedModel(t *testing.T, source Source) Model {
	t.Helper()
	m := New(source, time.UTC)
	m.now = func() time.Time { return testNow }

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init should return a load command")
	}
	msg := cmd()
	if _, ok := msg.(dataMsg); !ok {
		t.Fatalf("load command returned %T, want dataMsg", msg)
	}
	return update(t, m, msg)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_Load(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))

	if m.Range() != analytics.RangeLastWeek {
		t.Errorf("initial range = %q, want lastWeek", m.Range())
	}
	if m.Mode() != analytics.ModeAvg {
		t.Errorf("initial mode = %q, want avg", m.Mode())
	}

	table := m.Result().Table
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[0].Key != "2024-06-13" || table.Rows[1].Key != "2024-06-14" {
		t.Errorf("row keys = %q, %q", table.Rows[0].Key, table.Rows[1].Key)
	}

	series := m.Result().Series
	if len(series) != 2 || series[1].Name != "Tic" || series[1].Color != "#ff0000" {
		t.Errorf("series = %+v", series)
	}

	view := m.View()
	for _, want := range []string{"lastWeek", "2024-06-14", "Tic", "Cough"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_LoadError(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(nil, errors.New("connection refused")))

	view := m.View()
	if !strings.Contains(view, "Failed to load events") || !strings.Contains(view, "connection refused") {
		t.Errorf("view should show the load error, got:\n%s", view)
	}
}

func TestModel_Placeholder(t *testing.T) {
	t.Parallel()

	m := New(staticSource(nil, nil), time.UTC)
	if !strings.Contains(m.View(), "Loading") {
		t.Error("view should show loading before data arrives")
	}

	m = newLoadedModel(t, staticSource(nil, nil))
	if !m.Result().Table.Empty() {
		t.Fatal("table should be empty")
	}
	if !strings.Contains(m.View(), chart.PlaceholderText) {
		t.Errorf("view should show %q", chart.PlaceholderText)
	}
}

func TestModel_ModeCycle(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))

	steps := []struct {
		key  tea.KeyMsg
		want analytics.Mode
	}{
		{runeKey('m'), analytics.ModeTotal},
		{tea.KeyMsg{Type: tea.KeyTab}, analytics.ModeCount},
		{runeKey('m'), analytics.ModeAvg},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, analytics.ModeCount},
		{runeKey('M'), analytics.ModeTotal},
	}
	for i, step := range steps {
		m = update(t, m, step.key)
		if m.Mode() != step.want {
			t.Fatalf("step %d: mode = %q, want %q", i, m.Mode(), step.want)
		}
		if m.Result().Table.Mode != step.want {
			t.Fatalf("step %d: table mode = %q, want %q", i, m.Result().Table.Mode, step.want)
		}
	}

	// total of Tic on 2024-06-14 is 4+2
	last := m.Result().Table.Rows[1]
	if last.Values[1] != 6 {
		t.Errorf("total = %v, want 6", last.Values[1])
	}
}

func TestModel_ChartBound(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))

	// avg is pinned to the intensity scale, not the largest average
	if got := m.chart.MaxValue(); got != 10 {
		t.Errorf("avg max = %v, want 10", got)
	}

	// largest total is 6, counts peak at 2
	steps := []struct {
		key  tea.KeyMsg
		mode analytics.Mode
		want float64
	}{
		{runeKey('m'), analytics.ModeTotal, 11},
		{runeKey('m'), analytics.ModeCount, 7},
	}
	for _, step := range steps {
		m = update(t, m, step.key)
		if m.Mode() != step.mode {
			t.Fatalf("mode = %q, want %q", m.Mode(), step.mode)
		}
		if got := m.chart.MaxValue(); got != step.want {
			t.Errorf("%s max = %v, want %v", step.mode, got, step.want)
		}
		if got := chart.YBound(m.Mode(), m.Result().Table.Max()); got != step.want {
			t.Errorf("%s y bound = %v, want %v", step.mode, got, step.want)
		}
	}

	// switching focus keeps the shared bound
	m = update(t, m, runeKey('c'))
	if got := m.chart.MaxValue(); got != 7 {
		t.Errorf("max after focus change = %v, want 7", got)
	}
}

func TestModel_RangeCycle(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.Range() != analytics.RangeLastMonth {
		t.Errorf("range = %q, want lastMonth", m.Range())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(t, m, runeKey('h'))
	if m.Range() != analytics.RangeToday {
		t.Errorf("range = %q, want today", m.Range())
	}
	if !m.Result().Table.Empty() {
		t.Error("no events fall on today")
	}

	m = update(t, m, runeKey('h'))
	if m.Range() != analytics.RangeAll {
		t.Errorf("range = %q, want all", m.Range())
	}
	if got := len(m.Result().Table.Rows); got != 3 {
		t.Errorf("all range rows = %d, want 3", got)
	}

	// specificDate is skipped when wrapping
	m = update(t, m, runeKey('h'))
	if m.Range() != analytics.RangeLastYear {
		t.Errorf("range = %q, want lastYear", m.Range())
	}
	m = update(t, m, runeKey('l'))
	if m.Range() != analytics.RangeAll {
		t.Errorf("range = %q, want all", m.Range())
	}
}

func TestModel_Focus(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))
	if m.focus != 0 {
		t.Fatalf("focus = %d, want 0", m.focus)
	}

	m = update(t, m, runeKey('c'))
	if m.focus != 1 {
		t.Errorf("focus = %d, want 1", m.focus)
	}
	m = update(t, m, runeKey('c'))
	if m.focus != 0 {
		t.Errorf("focus should wrap, got %d", m.focus)
	}

	// a range with fewer series resets an out of bounds focus
	m = update(t, m, runeKey('c'))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft}) // today
	if m.focus != 0 {
		t.Errorf("focus = %d after range change, want 0", m.focus)
	}
}

func TestModel_SortFlip(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))
	m = update(t, m, runeKey('s'))
	if m.sort != analytics.SortDesc {
		t.Fatalf("sort = %q, want desc", m.sort)
	}

	lines := strings.Split(m.table(), "\n")
	if len(lines) != 3 {
		t.Fatalf("table lines = %d, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[1], "2024-06-14") {
		t.Errorf("first row = %q, want newest first", lines[1])
	}
}

func TestModel_Resize(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))

	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"large", 120, 40, 114, 26},
		{"tiny", 10, 5, minChartWidth, minChartHeight},
	}
	for _, tt := range tests {
		m = update(t, m, tea.WindowSizeMsg{Width: tt.width, Height: tt.height})
		w, h := m.chartSize()
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("%s: chart size = %dx%d, want %dx%d", tt.name, w, h, tt.wantW, tt.wantH)
		}
		if m.help.Width != tt.width {
			t.Errorf("%s: help width = %d, want %d", tt.name, m.help.Width, tt.width)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()

	m := newLoadedModel(t, staticSource(testEvents(), nil))
	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_Reload(t *testing.T) {
	t.Parallel()

	calls := 0
	source := SourceFunc(func(ctx context.Context) ([]models.Event, []models.CategorySummary, error) {
		calls++
		return testEvents(), nil, nil
	})
	m := newLoadedModel(t, source)

	_, cmd := m.Update(runeKey('r'))
	if cmd == nil {
		t.Fatal("r should return a load command")
	}
	cmd()
	if calls != 2 {
		t.Errorf("source calls = %d, want 2", calls)
	}
}

func TestShortKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"2024-06-14": "06-14",
		"09:00":      "09:00",
		"Morning":    "Morning",
	}
	for in, want := range tests {
		if got := shortKey(in); got != want {
			t.Errorf("shortKey(%q) = %q, want %q", in, got, want)
		}
	}
}
