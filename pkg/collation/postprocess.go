package collation

import (
	"fmt"
	"math"
)

// ExtantThreshold returns the minimum number of extant readings a witness
// needs to enter the primary matrix: floor(proportion × unitCount).
func ExtantThreshold(proportion float64, unitCount int) int {
	return int(math.Floor(proportion * float64(unitCount)))
}

// Postprocess splits a raw matrix into a primary matrix of witnesses with at
// least extantThreshold extant readings and a fragmentary matrix of the
// rest, then drops readings that no primary witness supports from both.
//
// If reweight is set, a TF-IDF transform is fitted on the primary matrix and
// applied to both; the fitted weights are returned. The input matrix is not
// modified.
func Postprocess(raw *Matrix, extantThreshold int, reweight bool) (primary, fragmentary *Matrix, weights *TFIDF, err error) {
	var primaryColumns, fragmentaryColumns []int
	for column, count := range raw.ExtantCounts() {
		if count >= extantThreshold {
			primaryColumns = append(primaryColumns, column)
		} else {
			fragmentaryColumns = append(fragmentaryColumns, column)
		}
	}
	primary = raw.SelectColumns(primaryColumns)
	fragmentary = raw.SelectColumns(fragmentaryColumns)

	var preservedRows []int
	for row, sum := range primary.RowSums() {
		if sum > 0 {
			preservedRows = append(preservedRows, row)
		}
	}
	primary = primary.SelectRows(preservedRows)
	fragmentary = fragmentary.SelectRows(preservedRows)

	if !reweight {
		return primary, fragmentary, nil, nil
	}

	weights = FitTFIDF(primary)
	if weights == nil {
		return primary, fragmentary, nil, nil
	}
	if err := weights.Transform(primary); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to reweight primary matrix: %w", err)
	}
	if err := weights.Transform(fragmentary); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to reweight fragmentary matrix: %w", err)
	}

	return primary, fragmentary, weights, nil
}
