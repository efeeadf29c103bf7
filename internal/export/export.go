// Package export serializes aggregated tables and rendered charts for download.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/chart"
)

// Format is an export file type
type Format string

const (
	FormatCSV  Format = "csv"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Formats lists every supported format
var Formats = []Format{FormatCSV, FormatSVG, FormatPNG, FormatPDF, FormatJSON}

// ErrUnsupportedFormat is returned for unknown export formats
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat validates an export format name
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Options controls chart size and report title
type Options struct {
	Title  string
	Width  int
	Height int
}

// Write serializes the pipeline result in the given format
func Write(w io.Writer, f Format, res analytics.Result, opts Options) error {
	switch f {
	case FormatCSV:
		table := res.Table
		if res.Query.Sort == analytics.SortDesc {
			table = table.Reversed()
		}
		return WriteCSV(w, table)
	case FormatSVG:
		return chart.RenderSVG(w, chart.NewLayout(res.Table, res.Series, opts.Width, opts.Height))
	case FormatPNG:
		return chart.RenderPNG(w, chart.NewLayout(res.Table, res.Series, opts.Width, opts.Height))
	case FormatPDF:
		return WritePDF(w, opts.Title, res)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to encode json export: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}
