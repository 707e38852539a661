package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// MaxConsoleWitnesses caps the witness columns shown on the console.
const MaxConsoleWitnesses = 12

// MaxConsoleReadings caps the reading rows shown on the console.
const MaxConsoleReadings = 40

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
)

// WriteConsole prints a summary and the top-left corner of the primary
// matrix.
func WriteConsole(writer io.Writer, tables Tables) error {
	var builder strings.Builder

	builder.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", tables.Source, tables.Grammar)))
	builder.WriteString("\n")
	fmt.Fprintf(&builder, "Variation units:       %d\n", tables.UnitCount)
	fmt.Fprintf(&builder, "Extant threshold:      %d\n", tables.ExtantThreshold)
	fmt.Fprintf(&builder, "Readings:              %d\n", len(tables.Readings))
	fmt.Fprintf(&builder, "Primary witnesses:     %d\n", len(tables.Witnesses))
	fmt.Fprintf(&builder, "Fragmentary witnesses: %d\n", len(tables.FragmentaryWitnesses))
	if len(tables.Weights) > 0 {
		builder.WriteString("TF-IDF reweighting:    applied\n")
	}

	if len(tables.Readings) > 0 && len(tables.Witnesses) > 0 {
		builder.WriteString("\n")
		builder.WriteString(matrixTable(tables).Render())
		builder.WriteString("\n")

		if len(tables.Readings) > MaxConsoleReadings || len(tables.Witnesses) > MaxConsoleWitnesses {
			builder.WriteString(mutedStyle.Render(fmt.Sprintf("showing %d of %d readings and %d of %d witnesses",
				min(len(tables.Readings), MaxConsoleReadings), len(tables.Readings),
				min(len(tables.Witnesses), MaxConsoleWitnesses), len(tables.Witnesses))))
			builder.WriteString("\n")
		}
	}

	if _, err := io.WriteString(writer, builder.String()); err != nil {
		return fmt.Errorf("failed to write console output: %w", err)
	}
	return nil
}

func matrixTable(tables Tables) *table.Table {
	witnessCount := min(len(tables.Witnesses), MaxConsoleWitnesses)
	readingCount := min(len(tables.Readings), MaxConsoleReadings)

	headers := append([]string{"reading"}, tables.Witnesses[:witnessCount]...)
	rows := make([][]string, 0, readingCount)
	for i := 0; i < readingCount; i++ {
		row := []string{tables.Readings[i]}
		values := rowOrEmpty(tables.Primary, i)
		for j := 0; j < witnessCount && j < len(values); j++ {
			row = append(row, formatValue(values[j]))
		}
		rows = append(rows, row)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}
