package chart

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticvision/ticvision/internal/analytics"
)

func TestRenderSVG(t *testing.T) {
	t.Parallel()

	series := []analytics.Series{{Name: "Arm", Color: "#00ff00"}, {Name: "Eye & Lid", Color: "#0000ff"}}
	table := scenarioTable(analytics.ModeTotal)
	table.Header[2] = "Eye & Lid"

	var buf bytes.Buffer
	require.NoError(t, RenderSVG(&buf, NewLayout(table, series, 640, 320)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<svg "))
	assert.Contains(t, out, `width="640"`)
	assert.Equal(t, 2, strings.Count(out, "<polyline"))
	assert.Contains(t, out, "Eye &amp; Lid")
	assert.Contains(t, out, `stroke="#00ff00"`)
	assert.Contains(t, out, "Total intensity")
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestRenderSVG_Placeholder(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewLayout(analytics.Table{Header: []string{analytics.HeaderDate}}, nil, 0, 0)
	require.NoError(t, RenderSVG(&buf, l))

	assert.Contains(t, buf.String(), PlaceholderText)
	assert.NotContains(t, buf.String(), "<polyline")
}

func TestRenderPNG(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, NewLayout(scenarioTable(analytics.ModeCount), nil, 500, 300)))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestRasterize_DrawsSeriesColor(t *testing.T) {
	t.Parallel()

	series := []analytics.Series{{Name: "Arm", Color: "#ff0000"}, {Name: "Eye", Color: "#ff0000"}}
	l := NewLayout(scenarioTable(analytics.ModeTotal), series, 400, 300)
	img := Rasterize(l)

	p := l.Lines[0].Points[1]
	c := img.NRGBAAt(int(p.X), int(p.Y))
	assert.Equal(t, uint8(0xff), c.R)
	assert.Less(t, c.G, uint8(0x80))
}

// yearTable is a year of daily buckets for n categories
func yearTable(days, n int) analytics.Table {
	header := []string{analytics.HeaderDate}
	for c := 0; c < n; c++ {
		header = append(header, fmt.Sprintf("Category %d", c))
	}
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]analytics.TableRow, days)
	for d := range rows {
		values := make([]float64, n)
		for c := range values {
			values[c] = float64((d*7 + c*3) % 11)
		}
		rows[d] = analytics.TableRow{Key: start.AddDate(0, 0, d).Format("2006-01-02"), Values: values}
	}
	return analytics.Table{Header: header, Rows: rows, Mode: analytics.ModeTotal}
}

func TestRenderPNG_YearOfData(t *testing.T) {
	t.Parallel()

	l := NewLayout(yearTable(365, 8), nil, DefaultWidth, DefaultHeight)

	start := time.Now()
	require.NoError(t, RenderPNG(io.Discard, l))
	elapsed := time.Since(start)
	assert.Less(t, elapsed, 5*time.Second, "rendering 365 rows x 8 series took %s", elapsed)

	img := Rasterize(l)
	for _, line := range l.Lines[:2] {
		p := line.Points[len(line.Points)/2]
		c := img.NRGBAAt(int(p.X), int(p.Y))
		assert.False(t, c.R == 0xff && c.G == 0xff && c.B == 0xff, "series %s not drawn at %v", line.Name, p)
	}
}

func BenchmarkRenderPNG_YearOfData(b *testing.B) {
	l := NewLayout(yearTable(365, 8), nil, DefaultWidth, DefaultHeight)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := RenderPNG(io.Discard, l); err != nil {
			b.Fatal(err)
		}
	}
}

func TestRasterize_Placeholder(t *testing.T) {
	t.Parallel()

	img := Rasterize(NewLayout(analytics.Table{Header: []string{analytics.HeaderDate}}, nil, 300, 200))

	var dark int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).R < 0x80 {
				dark++
			}
		}
	}
	assert.Positive(t, dark, "placeholder text should be drawn")
}

func TestParseHex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint8(0x12), parseHex("#123456").R)
	assert.Equal(t, uint8(0x56), parseHex("#123456").B)
	assert.Equal(t, uint8(0x80), parseHex("bogus").G)
}
