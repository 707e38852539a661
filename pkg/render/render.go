// Package render writes collation matrices as JSON, CSV, SQLite or console
// tables.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coolbeans/collatrix/pkg/collation"
)

// Tables is everything rendered for one collation source.
type Tables struct {
	Source               string
	Grammar              string
	UnitCount            int
	ExtantThreshold      int
	Readings             []string
	Witnesses            []string
	FragmentaryWitnesses []string
	Primary              [][]float64
	Fragmentary          [][]float64
	Weights              []float64
}

// FromResult collects the tables of a read result.
func FromResult(source, grammar string, result *collation.Result) Tables {
	tables := Tables{
		Source:               source,
		Grammar:              grammar,
		UnitCount:            result.UnitCount,
		ExtantThreshold:      result.ExtantThreshold,
		Readings:             append([]string(nil), result.Primary.Readings...),
		Witnesses:            append([]string(nil), result.Primary.Witnesses...),
		FragmentaryWitnesses: append([]string(nil), result.Fragmentary.Witnesses...),
		Primary:              result.Primary.Values(),
		Fragmentary:          result.Fragmentary.Values(),
	}
	if result.Weights != nil {
		tables.Weights = append([]float64(nil), result.Weights.Weights...)
	}
	return tables
}

// Format is an output format.
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
	FormatCSV
	FormatSQLite
)

func (format Format) String() string {
	switch format {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatSQLite:
		return "sqlite"
	}
	return "console"
}

// FormatFor picks the output format from a file extension. An empty path
// means the console.
func FormatFor(path string) (Format, error) {
	if path == "" {
		return FormatConsole, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	}
	return FormatConsole, fmt.Errorf("unrecognized output format %q (use .json, .csv, .db or .sqlite)", filepath.Ext(path))
}

// Write renders the tables to path, or to console when path is empty.
func Write(ctx context.Context, path string, tables Tables, console io.Writer) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	switch format {
	case FormatConsole:
		return WriteConsole(console, tables)
	case FormatSQLite:
		return WriteSQLite(ctx, path, []Tables{tables})
	}

	outputFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outputFile.Close()

	if format == FormatJSON {
		err = WriteJSON(outputFile, tables)
	} else {
		err = WriteCSV(outputFile, tables)
	}
	if err != nil {
		return err
	}
	return outputFile.Close()
}
