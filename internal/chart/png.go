package chart

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Rasterize draws the layout onto a white canvas
func Rasterize(l Layout) *image.NRGBA {
	img := imaging.New(l.Width, l.Height, color.White)

	if l.Placeholder != "" {
		drawText(img, l.Placeholder, float64(l.Width)/2, float64(l.Height)/2, parseHex(textColor), alignCenter)
		return img
	}

	drawText(img, l.Title, float64(l.Width)/2, 20, parseHex(textColor), alignCenter)

	grid := parseHex(gridColor)
	axis := parseHex(axisColor)
	text := parseHex(textColor)

	var gridLines shapes
	for _, t := range l.YTicks {
		gridLines.segment(Point{l.Plot.X, t.Pos}, Point{l.Plot.X + l.Plot.W, t.Pos}, 1)
		drawText(img, t.Label, l.Plot.X-6, t.Pos+4, text, alignRight)
	}
	gridLines.fill(img, grid)

	bottom := l.Plot.Y + l.Plot.H
	var axes shapes
	axes.segment(Point{l.Plot.X, bottom}, Point{l.Plot.X + l.Plot.W, bottom}, 1)
	axes.segment(Point{l.Plot.X, l.Plot.Y}, Point{l.Plot.X, bottom}, 1)
	axes.fill(img, axis)

	for _, t := range l.XTicks {
		drawText(img, t.Label, t.Pos, bottom+16, text, alignCenter)
	}

	// one rasterizer pass per series
	for _, line := range l.Lines {
		var s shapes
		for i := 1; i < len(line.Points); i++ {
			s.segment(line.Points[i-1], line.Points[i], 2)
		}
		for _, p := range line.Points {
			s.rect(p.X-2.5, p.Y-2.5, 5, 5)
		}
		s.fill(img, parseHex(line.Color))
	}

	for _, item := range l.Legend {
		var s shapes
		s.rect(item.At.X, item.At.Y-9, 10, 10)
		s.fill(img, parseHex(item.Color))
		drawText(img, item.Name, item.At.X+14, item.At.Y, text, alignLeft)
	}

	return img
}

// RenderPNG rasterizes the layout and encodes it as PNG
func RenderPNG(w io.Writer, l Layout) error {
	if err := imaging.Encode(w, Rasterize(l), imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode chart png: %w", err)
	}
	return nil
}

type alignment int

const (
	alignLeft alignment = iota
	alignCenter
	alignRight
)

func drawText(dst draw.Image, s string, x, y float64, c color.Color, align alignment) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil()
	switch align {
	case alignCenter:
		x -= float64(width) / 2
	case alignRight:
		x -= float64(width)
	}

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(s)
}

// shapes collects closed polygons of one color so they can be rasterized in a
// single pass over their bounding box. Every polygon is wound the same way so
// overlaps accumulate instead of cancelling.
type shapes struct {
	polys                  [][]Point
	minX, minY, maxX, maxY float64
}

func (s *shapes) add(pts ...Point) {
	if len(s.polys) == 0 {
		s.minX, s.maxX, s.minY, s.maxY = pts[0].X, pts[0].X, pts[0].Y, pts[0].Y
	}
	for _, p := range pts {
		s.minX, s.maxX = math.Min(s.minX, p.X), math.Max(s.maxX, p.X)
		s.minY, s.maxY = math.Min(s.minY, p.Y), math.Max(s.maxY, p.Y)
	}
	s.polys = append(s.polys, pts)
}

// segment adds the quad around a-b with the given thickness
func (s *shapes) segment(a, b Point, thickness float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*thickness/2, dx/length*thickness/2
	s.add(
		Point{a.X + nx, a.Y + ny},
		Point{b.X + nx, b.Y + ny},
		Point{b.X - nx, b.Y - ny},
		Point{a.X - nx, a.Y - ny},
	)
}

// rect adds an axis-aligned rectangle, wound like segment quads
func (s *shapes) rect(x, y, w, h float64) {
	s.add(
		Point{x, y},
		Point{x, y + h},
		Point{x + w, y + h},
		Point{x + w, y},
	)
}

// fill rasterizes every collected polygon onto dst in c
func (s *shapes) fill(dst *image.NRGBA, c color.Color) {
	if len(s.polys) == 0 {
		return
	}
	box := image.Rect(
		int(math.Floor(s.minX)), int(math.Floor(s.minY)),
		int(math.Ceil(s.maxX))+1, int(math.Ceil(s.maxY))+1,
	).Intersect(dst.Bounds())
	if box.Empty() {
		return
	}

	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	z := vector.NewRasterizer(box.Dx(), box.Dy())
	z.DrawOp = draw.Over
	for _, poly := range s.polys {
		z.MoveTo(float32(poly[0].X-ox), float32(poly[0].Y-oy))
		for _, p := range poly[1:] {
			z.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		z.ClosePath()
	}
	z.Draw(dst, box, image.NewUniform(c), image.Point{})
}

// parseHex converts #rrggbb into a color, falling back to gray for malformed input
func parseHex(s string) color.NRGBA {
	fallback := color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return fallback
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
