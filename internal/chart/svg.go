package chart

import (
	"fmt"
	"html"
	"io"
	"strings"
)

const (
	fontFamily = "Helvetica, Arial, sans-serif"
	axisColor  = "#9ca3af"
	gridColor  = "#e5e7eb"
	textColor  = "#374151"
)

// RenderSVG writes the layout as a standalone SVG document
func RenderSVG(w io.Writer, l Layout) error {
	var b strings.Builder

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="%s">`+"\n",
		l.Width, l.Height, l.Width, l.Height, fontFamily)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#ffffff"/>`+"\n", l.Width, l.Height)

	if l.Placeholder != "" {
		fmt.Fprintf(&b, `<text class="placeholder" x="%d" y="%d" text-anchor="middle" fill="%s" font-size="14">%s</text>`+"\n",
			l.Width/2, l.Height/2, textColor, html.EscapeString(l.Placeholder))
		b.WriteString("</svg>\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, `<text x="%d" y="20" text-anchor="middle" fill="%s" font-size="14" font-weight="bold">%s</text>`+"\n",
		l.Width/2, textColor, html.EscapeString(l.Title))

	// grid and y axis labels
	for _, t := range l.YTicks {
		fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
			l.Plot.X, t.Pos, l.Plot.X+l.Plot.W, t.Pos, gridColor)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="end" dominant-baseline="middle" fill="%s" font-size="11">%s</text>`+"\n",
			l.Plot.X-6, t.Pos, textColor, html.EscapeString(t.Label))
	}

	bottom := l.Plot.Y + l.Plot.H
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
		l.Plot.X, bottom, l.Plot.X+l.Plot.W, bottom, axisColor)
	fmt.Fprintf(&b, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
		l.Plot.X, l.Plot.Y, l.Plot.X, bottom, axisColor)

	for _, t := range l.XTicks {
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" fill="%s" font-size="11">%s</text>`+"\n",
			t.Pos, bottom+16, textColor, html.EscapeString(t.Label))
	}

	for _, line := range l.Lines {
		points := make([]string, 0, len(line.Points))
		for _, p := range line.Points {
			points = append(points, fmt.Sprintf("%.1f,%.1f", p.X, p.Y))
		}
		fmt.Fprintf(&b, `<polyline data-series="%s" fill="none" stroke="%s" stroke-width="2" points="%s"/>`+"\n",
			html.EscapeString(line.Name), line.Color, strings.Join(points, " "))
		for _, p := range line.Points {
			fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`+"\n", p.X, p.Y, line.Color)
		}
	}

	for _, item := range l.Legend {
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="10" height="10" fill="%s"/>`+"\n", item.At.X, item.At.Y-9, item.Color)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" fill="%s" font-size="11">%s</text>`+"\n",
			item.At.X+14, item.At.Y, textColor, html.EscapeString(item.Name))
	}

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}
