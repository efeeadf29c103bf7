package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ticvision/ticvision/internal/analytics"
)

// WriteCSV writes the table header first, then one record per bucket
func WriteCSV(w io.Writer, table analytics.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(table.Records()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
