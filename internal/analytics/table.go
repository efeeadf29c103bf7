package analytics

import (
	"strconv"
)

// Column headers for the bucket column
const (
	HeaderDate      = "date"
	HeaderTimeOfDay = "timeOfDay"
)

// TableRow is a dense row: one value per category column, 0 where the bucket had no events
type TableRow struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
}

// Table is the projected chart input. Header[0] names the bucket column and
// Header[1:] are the category series in the same order as TableRow.Values.
type Table struct {
	Header []string   `json:"header"`
	Rows   []TableRow `json:"rows"`
	Mode   Mode       `json:"mode"`
}

// Project builds the dense table for categories under mode
func Project(rows []Row, categories []string, mode Mode, byTimeOfDay bool) Table {
	header := make([]string, 0, len(categories)+1)
	if byTimeOfDay {
		header = append(header, HeaderTimeOfDay)
	} else {
		header = append(header, HeaderDate)
	}
	header = append(header, categories...)

	out := Table{Header: header, Rows: make([]TableRow, 0, len(rows)), Mode: mode}
	for _, r := range rows {
		values := make([]float64, len(categories))
		for i, name := range categories {
			if v, ok := r.Value(name, mode); ok {
				values[i] = v
			}
		}
		out.Rows = append(out.Rows, TableRow{Key: r.Key, Values: values})
	}
	return out
}

// Series returns the category names of the table
func (t Table) Series() []string {
	if len(t.Header) < 2 {
		return nil
	}
	return t.Header[1:]
}

// Empty reports whether the table holds only a header
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Max returns the largest value in the table, 0 for an empty table
func (t Table) Max() float64 {
	var highest float64
	for _, r := range t.Rows {
		for _, v := range r.Values {
			if v > highest {
				highest = v
			}
		}
	}
	return highest
}

// Reversed returns a copy of the table with rows in descending bucket order
func (t Table) Reversed() Table {
	rows := make([]TableRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[len(t.Rows)-1-i] = r
	}
	t.Rows = rows
	return t
}

// Records renders the table as string records, header first
func (t Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, append([]string(nil), t.Header...))
	for _, r := range t.Rows {
		record := make([]string, 0, len(r.Values)+1)
		record = append(record, r.Key)
		for _, v := range r.Values {
			record = append(record, FormatValue(v))
		}
		records = append(records, record)
	}
	return records
}

// FormatValue prints a value without trailing zeros, rounded to two decimals
func FormatValue(v float64) string {
	return strconv.FormatFloat(roundTo(v, 2), 'f', -1, 64)
}

func roundTo(v float64, places int) float64 {
	p := 1.0
	for range places {
		p *= 10
	}
	if v < 0 {
		return -float64(int64(-v*p+0.5)) / p
	}
	return float64(int64(v*p+0.5)) / p
}
