package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes one row per reading: the label, then the primary witness
// columns, then the fragmentary witness columns. Fragmentary headers carry
// a "fragmentary:" prefix.
func WriteCSV(writer io.Writer, tables Tables) error {
	csvWriter := csv.NewWriter(writer)

	header := append([]string{"reading"}, tables.Witnesses...)
	for _, name := range tables.FragmentaryWitnesses {
		header = append(header, "fragmentary:"+name)
	}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, label := range tables.Readings {
		row := []string{label}
		for _, value := range rowOrEmpty(tables.Primary, i) {
			row = append(row, formatValue(value))
		}
		for _, value := range rowOrEmpty(tables.Fragmentary, i) {
			row = append(row, formatValue(value))
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
