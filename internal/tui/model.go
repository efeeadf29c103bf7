// Package tui is a terminal chart viewer over the aggregation pipeline.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/chart"
	"github.com/ticvision/ticvision/internal/models"
)

// Source loads one user's events and category summaries
type Source interface {
	Load(ctx context.Context) ([]models.Event, []models.CategorySummary, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) ([]models.Event, []models.CategorySummary, error)

// Load calls f
func (f SourceFunc) Load(ctx context.Context) ([]models.Event, []models.CategorySummary, error) {
	return f(ctx)
}

const (
	minChartWidth  = 20
	minChartHeight = 6
	// rows of chrome around the chart: header, legend, table, help
	chromeHeight = 14
	tableRows    = 5
)

// browsableRanges excludes specificDate, which needs a date argument
var browsableRanges = func() []analytics.Range {
	out := make([]analytics.Range, 0, len(analytics.Ranges))
	for _, r := range analytics.Ranges {
		if r != analytics.RangeSpecificDate {
			out = append(out, r)
		}
	}
	return out
}()

type dataMsg struct {
	events    []models.Event
	summaries []models.CategorySummary
	err       error
}

// Model is the root Bubble Tea model
type Model struct {
	source Source
	now    func() time.Time
	loc    *time.Location

	width  int
	height int

	rangeIdx int
	mode     analytics.Mode
	sort     analytics.SortDirection
	focus    int

	events    []models.Event
	summaries []models.CategorySummary
	result    analytics.Result
	loaded    bool
	err       error

	chart    barchart.Model
	help     help.Model
	showHelp bool
}

// New creates a viewer starting on the lastWeek range in average mode
func New(source Source, loc *time.Location) Model {
	if loc == nil {
		loc = time.UTC
	}
	m := Model{
		source: source,
		now:    time.Now,
		loc:    loc,
		mode:   analytics.ModeAvg,
		sort:   analytics.SortAsc,
		width:  80,
		height: 24,
		help:   help.New(),
	}
	for i, r := range browsableRanges {
		if r == analytics.RangeLastWeek {
			m.rangeIdx = i
		}
	}
	m.rebuild()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		events, summaries, err := source.Load(ctx)
		return dataMsg{events: events, summaries: summaries, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.drawChart()
		return m, nil

	case dataMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err == nil {
			m.events = msg.events
			m.summaries = msg.summaries
		}
		m.rebuild()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil
		case key.Matches(msg, keys.Reload):
			return m, m.load()
		case key.Matches(msg, keys.NextRange):
			m.rangeIdx = (m.rangeIdx + 1) % len(browsableRanges)
		case key.Matches(msg, keys.PrevRange):
			m.rangeIdx = (m.rangeIdx - 1 + len(browsableRanges)) % len(browsableRanges)
		case key.Matches(msg, keys.NextMode):
			m.mode = m.mode.Next()
		case key.Matches(msg, keys.PrevMode):
			m.mode = m.mode.Prev()
		case key.Matches(msg, keys.Sort):
			if m.sort == analytics.SortAsc {
				m.sort = analytics.SortDesc
			} else {
				m.sort = analytics.SortAsc
			}
		case key.Matches(msg, keys.Focus):
			if n := len(m.result.Series); n > 0 {
				m.focus = (m.focus + 1) % n
			}
		default:
			return m, nil
		}
		m.rebuild()
		return m, nil
	}
	return m, nil
}

// Range is the selected time range
func (m Model) Range() analytics.Range {
	return browsableRanges[m.rangeIdx]
}

// Mode is the selected aggregation mode
func (m Model) Mode() analytics.Mode {
	return m.mode
}

// Result is the pipeline output currently displayed
func (m Model) Result() analytics.Result {
	return m.result
}

// rebuild reruns the pipeline for the current selectors and redraws
func (m *Model) rebuild() {
	m.result = analytics.Run(m.events, m.summaries, analytics.Query{
		Range: m.Range(),
		Mode:  m.mode,
		Sort:  m.sort,
	}, m.now().In(m.loc))
	if m.focus >= len(m.result.Series) {
		m.focus = 0
	}
	m.drawChart()
}

func (m Model) chartSize() (int, int) {
	return max(m.width-6, minChartWidth), max(m.height-chromeHeight, minChartHeight)
}

// drawChart plots the focused category, one bar per bucket. Only the buckets
// that fit at two columns each are shown, newest kept. The y scale uses the
// same bound as the rendered charts so every category shares it.
func (m *Model) drawChart() {
	w, h := m.chartSize()
	m.chart = barchart.New(w, h,
		barchart.WithNoAutoMaxValue(),
		barchart.WithMaxValue(chart.YBound(m.mode, m.result.Table.Max())))

	table := m.result.Table
	if table.Empty() || len(m.result.Series) == 0 {
		return
	}
	series := m.result.Series[m.focus]
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(series.Color))

	rows := table.Rows
	if limit := w / 2; len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	if m.sort == analytics.SortDesc {
		rows = analytics.Table{Header: table.Header, Rows: rows, Mode: table.Mode}.Reversed().Rows
	}

	bars := make([]barchart.BarData, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, barchart.BarData{
			Label: shortKey(r.Key),
			Values: []barchart.BarValue{{
				Name:  series.Name,
				Value: r.Values[m.focus],
				Style: style,
			}},
		})
	}
	m.chart.PushAll(bars)
	m.chart.Draw()
}

// shortKey drops the year from YYYY-MM-DD keys
func shortKey(k string) string {
	if len(k) == len("2006-01-02") && k[4] == '-' {
		return k[5:]
	}
	return k
}

func (m Model) View() string {
	w := max(m.width-2, minChartWidth)

	tabs := make([]string, 0, len(analytics.Modes))
	for _, mode := range analytics.Modes {
		if mode == m.mode {
			tabs = append(tabs, activeTabStyle.Render(mode.Label()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(mode.Label()))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("TicVision"), "  ",
		mutedStyle.Render("range: "+string(m.Range())), "  ",
		lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
	)

	var body string
	switch {
	case m.err != nil:
		body = errorStyle.Render("Failed to load events: " + m.err.Error())
	case !m.loaded:
		body = mutedStyle.Render("Loading…")
	case m.result.Table.Empty():
		body = mutedStyle.Render(chart.PlaceholderText)
	default:
		yBound := chart.YBound(m.mode, m.result.Table.Max())
		body = lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Render(fmt.Sprintf("%s of %s, y bound %g", m.mode.Label(), m.result.Series[m.focus].Name, yBound)),
			m.chart.View(),
			"",
			m.legend(),
			"",
			m.table(),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body)),
		m.help.View(keys),
	)
}

func (m Model) legend() string {
	items := make([]string, 0, len(m.result.Series))
	for i, s := range m.result.Series {
		name := s.Name
		if i == m.focus {
			name = titleStyle.Render(name)
		}
		items = append(items, swatch(s.Color)+" "+name)
	}
	return strings.Join(items, "  ")
}

// table prints the newest few rows of the dense table
func (m Model) table() string {
	t := m.result.Table
	rows := t.Rows
	if len(rows) > tableRows {
		rows = rows[len(rows)-tableRows:]
	}
	if m.sort == analytics.SortDesc {
		rows = analytics.Table{Rows: rows}.Reversed().Rows
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-12s", t.Header[0])
	for _, name := range t.Series() {
		fmt.Fprintf(&b, " %10s", truncate(name, 10))
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%-12s", r.Key)
		for _, v := range r.Values {
			fmt.Fprintf(&b, " %10.2f", v)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
