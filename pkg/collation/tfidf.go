package collation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TFIDF is a fitted term frequency-inverse document frequency transform.
// Readings play the role of terms and witnesses the role of documents.
type TFIDF struct {
	// Weights holds the inverse document frequency of every reading row.
	Weights []float64
}

// FitTFIDF fits the transform to a matrix. The inverse document frequency is
// ln(witnesses / df) without smoothing and without the customary +1, so a
// reading attested by every witness is weighted to zero. It returns nil for
// a matrix with no rows or no columns.
func FitTFIDF(matrix *Matrix) *TFIDF {
	if matrix.Empty() {
		return nil
	}

	witnessCount := float64(len(matrix.Witnesses))
	weights := make([]float64, len(matrix.Readings))
	for i := range weights {
		documentFrequency := 0
		for _, coefficient := range matrix.Row(i) {
			if coefficient != 0 {
				documentFrequency++
			}
		}
		if documentFrequency == 0 {
			continue
		}
		weights[i] = math.Log(witnessCount / float64(documentFrequency))
	}

	return &TFIDF{Weights: weights}
}

// Transform scales every reading row of the matrix by its fitted weight, in
// place. Empty matrices are left unchanged.
func (tfidf *TFIDF) Transform(matrix *Matrix) error {
	if len(matrix.Readings) != len(tfidf.Weights) {
		return fmt.Errorf("%w: transform fitted on %d readings, matrix has %d", ErrDimensionMismatch, len(tfidf.Weights), len(matrix.Readings))
	}
	if matrix.Empty() {
		return nil
	}

	var scaled mat.Dense
	scaled.Mul(mat.NewDiagDense(len(tfidf.Weights), tfidf.Weights), matrix.data)
	matrix.data.Copy(&scaled)
	return nil
}
