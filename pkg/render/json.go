package render

import (
	"encoding/json"
	"fmt"
	"io"
)

// jsonDocument is the JSON layout: one record per reading, with values in
// the order of the witness lists.
type jsonDocument struct {
	Source               string          `json:"source"`
	Grammar              string          `json:"grammar"`
	UnitCount            int             `json:"unit_count"`
	ExtantThreshold      int             `json:"extant_threshold"`
	Witnesses            []string        `json:"witnesses"`
	FragmentaryWitnesses []string        `json:"fragmentary_witnesses"`
	Readings             []readingRecord `json:"readings"`
}

type readingRecord struct {
	Reading     string    `json:"reading"`
	Weight      *float64  `json:"weight,omitempty"`
	Primary     []float64 `json:"primary"`
	Fragmentary []float64 `json:"fragmentary"`
}

func recordsOf(tables Tables) []readingRecord {
	records := make([]readingRecord, len(tables.Readings))
	for i, label := range tables.Readings {
		records[i] = readingRecord{
			Reading:     label,
			Primary:     rowOrEmpty(tables.Primary, i),
			Fragmentary: rowOrEmpty(tables.Fragmentary, i),
		}
		if i < len(tables.Weights) {
			weight := tables.Weights[i]
			records[i].Weight = &weight
		}
	}
	return records
}

func rowOrEmpty(values [][]float64, i int) []float64 {
	if i < len(values) && values[i] != nil {
		return values[i]
	}
	return []float64{}
}

// WriteJSON writes the tables as indented JSON.
func WriteJSON(writer io.Writer, tables Tables) error {
	document := jsonDocument{
		Source:               tables.Source,
		Grammar:              tables.Grammar,
		UnitCount:            tables.UnitCount,
		ExtantThreshold:      tables.ExtantThreshold,
		Witnesses:            nonNil(tables.Witnesses),
		FragmentaryWitnesses: nonNil(tables.FragmentaryWitnesses),
		Readings:             recordsOf(tables),
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
