package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/ticvision/ticvision/internal/analytics"
	"github.com/ticvision/ticvision/internal/chart"
)

// categories per table so every column fits the 12-unit grid
const pdfCategoriesPerTable = 5

// WritePDF renders a report with the chart image followed by the table.
// Wide tables are split into several tables of at most five categories.
func WritePDF(w io.Writer, title string, res analytics.Result) error {
	if title == "" {
		title = "TicVision report"
	}

	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(title, props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(8, func() {
			m.Col(12, func() {
				m.Text(fmt.Sprintf("%s, range %s", res.Table.Mode.Label(), res.Query.Range), props.Text{
					Top:   2,
					Align: consts.Center,
					Size:  10,
				})
			})
		})
	})

	if res.Table.Empty() {
		m.Row(20, func() {
			m.Col(12, func() {
				m.Text(chart.PlaceholderText, props.Text{Top: 8, Align: consts.Center, Size: 12})
			})
		})
		return output(w, m)
	}

	var img bytes.Buffer
	if err := chart.RenderPNG(&img, chart.NewLayout(res.Table, res.Series, 1000, 500)); err != nil {
		return err
	}
	var imgErr error
	m.Row(85, func() {
		m.Col(12, func() {
			imgErr = m.Base64Image(base64.StdEncoding.EncodeToString(img.Bytes()), consts.Png, props.Rect{
				Center:  true,
				Percent: 100,
			})
		})
	})
	if imgErr != nil {
		return fmt.Errorf("failed to add chart image: %w", imgErr)
	}

	table := res.Table
	if res.Query.Sort == analytics.SortDesc {
		table = table.Reversed()
	}
	for _, chunk := range splitColumns(table.Records(), pdfCategoriesPerTable) {
		sizes := gridSizes(len(chunk[0]))
		m.Row(6, func() {})
		m.TableList(chunk[0], chunk[1:], props.TableList{
			HeaderProp: props.TableListContent{
				Size:      10,
				GridSizes: sizes,
			},
			ContentProp: props.TableListContent{
				Size:      10,
				GridSizes: sizes,
			},
			Align:                consts.Center,
			AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
			HeaderContentSpace:   1,
			Line:                 false,
		})
	}

	return output(w, m)
}

func output(w io.Writer, m pdf.Maroto) error {
	buf, err := m.Output()
	if err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// splitColumns keeps the bucket column and slices the category columns into groups of n
func splitColumns(records [][]string, n int) [][][]string {
	if len(records) == 0 {
		return nil
	}
	cats := len(records[0]) - 1
	if cats <= 0 {
		return [][][]string{records}
	}

	var out [][][]string
	for start := 1; start <= cats; start += n {
		end := min(start+n, cats+1)
		chunk := make([][]string, 0, len(records))
		for _, rec := range records {
			row := make([]string, 0, end-start+1)
			row = append(row, rec[0])
			row = append(row, rec[start:end]...)
			chunk = append(chunk, row)
		}
		out = append(out, chunk)
	}
	return out
}

// gridSizes splits the 12-unit grid: 2 units per category, the rest to the bucket column
func gridSizes(columns int) []uint {
	sizes := make([]uint, columns)
	if columns == 1 {
		sizes[0] = 12
		return sizes
	}
	for i := 1; i < columns; i++ {
		sizes[i] = 2
	}
	sizes[0] = uint(12 - 2*(columns-1))
	return sizes
}
