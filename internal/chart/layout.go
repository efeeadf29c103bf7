// Package chart lays out and renders the aggregated intensity table as a line chart.
package chart

import (
	"math"
	"time"

	"github.com/ticvision/ticvision/internal/analytics"
)

// Size limits for rendered charts
const (
	DefaultWidth  = 800
	DefaultHeight = 400
	MinWidth      = 200
	MinHeight     = 150
	MaxWidth      = 4000
	MaxHeight     = 4000
)

// PlaceholderText is drawn when the table has no rows
const PlaceholderText = "No data for this range"

const (
	marginLeft   = 48
	marginRight  = 16
	marginTop    = 36
	marginBottom = 40
	legendRow    = 18
	legendItem   = 130
	minTickGap   = 70
)

// Point is a position in pixels, origin top-left
type Point struct {
	X float64
	Y float64
}

// Rect is the plot area in pixels
type Rect struct {
	X, Y, W, H float64
}

// Tick is an axis label at a pixel position
type Tick struct {
	Pos   float64
	Label string
}

// Line is one category series
type Line struct {
	Name   string
	Color  string
	Points []Point
}

// LegendItem is one legend swatch and label
type LegendItem struct {
	Name  string
	Color string
	At    Point
}

// Layout is everything a renderer needs to draw a chart at a given size
type Layout struct {
	Width       int
	Height      int
	Title       string
	Plot        Rect
	YMax        float64
	XTicks      []Tick
	YTicks      []Tick
	Lines       []Line
	Legend      []LegendItem
	Placeholder string
}

// YBound returns the y-axis upper bound: 10 for averages (intensity is 1-10),
// otherwise the observed maximum plus 5, never below 5.
func YBound(mode analytics.Mode, observedMax float64) float64 {
	if mode == analytics.ModeAvg {
		return 10
	}
	return math.Max(observedMax+5, 5)
}

// ClampSize bounds a requested size, substituting defaults for non-positive values
func ClampSize(width, height int) (int, int) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	width = min(max(width, MinWidth), MaxWidth)
	height = min(max(height, MinHeight), MaxHeight)
	return width, height
}

// NewLayout computes scales, lines and legend for the table at width x height.
// A header-only table yields a layout with only the Placeholder set.
func NewLayout(table analytics.Table, series []analytics.Series, width, height int) Layout {
	width, height = ClampSize(width, height)
	l := Layout{
		Width:  width,
		Height: height,
		Title:  table.Mode.Label(),
	}

	if table.Empty() {
		l.Placeholder = PlaceholderText
		return l
	}

	colors := make(map[string]string, len(series))
	for _, s := range series {
		colors[s.Name] = s.Color
	}
	names := table.Series()

	legendRows := legendRowsFor(len(names), width)
	l.Plot = Rect{
		X: marginLeft,
		Y: marginTop,
		W: float64(width - marginLeft - marginRight),
		H: float64(height-marginTop-marginBottom) - float64(legendRows*legendRow),
	}
	if l.Plot.H < 20 {
		l.Plot.H = 20
	}

	l.YMax = YBound(table.Mode, table.Max())
	l.YTicks = yTicks(l.Plot, l.YMax)

	xs := xPositions(table, l.Plot)
	l.XTicks = xTicks(table, xs, l.Plot)

	for i, name := range names {
		color, ok := colors[name]
		if !ok {
			color = analytics.HashColor(name)
		}
		line := Line{Name: name, Color: color, Points: make([]Point, 0, len(table.Rows))}
		for r, row := range table.Rows {
			line.Points = append(line.Points, Point{X: xs[r], Y: l.yPos(row.Values[i])})
		}
		l.Lines = append(l.Lines, line)
	}

	perRow := max(1, width/legendItem)
	legendTop := float64(height - marginBottom/2 - legendRows*legendRow)
	for i, line := range l.Lines {
		l.Legend = append(l.Legend, LegendItem{
			Name:  line.Name,
			Color: line.Color,
			At: Point{
				X: marginLeft + float64((i%perRow)*legendItem),
				Y: legendTop + float64((i/perRow)*legendRow),
			},
		})
	}

	return l
}

func (l Layout) yPos(v float64) float64 {
	if l.YMax <= 0 {
		return l.Plot.Y + l.Plot.H
	}
	v = math.Min(math.Max(v, 0), l.YMax)
	return l.Plot.Y + l.Plot.H - v/l.YMax*l.Plot.H
}

func legendRowsFor(n, width int) int {
	perRow := max(1, width/legendItem)
	return (n + perRow - 1) / perRow
}

// xPositions uses a time scale when every key is a date and an ordinal scale otherwise
func xPositions(table analytics.Table, plot Rect) []float64 {
	n := len(table.Rows)
	xs := make([]float64, n)
	if n == 1 {
		xs[0] = plot.X + plot.W/2
		return xs
	}

	if len(table.Header) > 0 && table.Header[0] == analytics.HeaderDate {
		times := make([]time.Time, n)
		ok := true
		for i, r := range table.Rows {
			t, parsed := analytics.ParseDate(r.Key, time.UTC)
			if !parsed {
				ok = false
				break
			}
			times[i] = t
		}
		if ok {
			span := times[n-1].Sub(times[0]).Seconds()
			if span > 0 {
				for i, t := range times {
					xs[i] = plot.X + t.Sub(times[0]).Seconds()/span*plot.W
				}
				return xs
			}
		}
	}

	step := plot.W / float64(n-1)
	for i := range xs {
		xs[i] = plot.X + float64(i)*step
	}
	return xs
}

func xTicks(table analytics.Table, xs []float64, plot Rect) []Tick {
	n := len(xs)
	every := 1
	if limit := int(plot.W / minTickGap); limit > 0 && n > limit {
		every = int(math.Ceil(float64(n) / float64(limit)))
	}

	ticks := make([]Tick, 0, n/every+1)
	for i := 0; i < n; i += every {
		ticks = append(ticks, Tick{Pos: xs[i], Label: table.Rows[i].Key})
	}
	return ticks
}

func yTicks(plot Rect, yMax float64) []Tick {
	step := niceStep(yMax / 5)
	var ticks []Tick
	for v := 0.0; v <= yMax+step/1000; v += step {
		ticks = append(ticks, Tick{
			Pos:   plot.Y + plot.H - v/yMax*plot.H,
			Label: analytics.FormatValue(v),
		})
	}
	return ticks
}

// niceStep rounds a raw tick step up to 1, 2 or 5 times a power of ten
func niceStep(raw float64) float64 {
	if raw <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	f := raw / exp
	switch {
	case f <= 1:
		return exp
	case f <= 2:
		return 2 * exp
	case f <= 5:
		return 5 * exp
	default:
		return 10 * exp
	}
}
