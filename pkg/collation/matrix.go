package collation

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense reading-by-witness coefficient matrix with its row and
// column labels. Either dimension may be zero; gonum cannot represent empty
// matrices, so the backing store is nil in that case.
type Matrix struct {
	// Readings are the row labels.
	Readings []string

	// Witnesses are the column labels.
	Witnesses []string

	data *mat.Dense
}

// NewMatrix creates a zero-filled matrix with the given labels.
func NewMatrix(readings, witnesses []string) *Matrix {
	matrix := &Matrix{
		Readings:  append([]string(nil), readings...),
		Witnesses: append([]string(nil), witnesses...),
	}
	if len(readings) > 0 && len(witnesses) > 0 {
		matrix.data = mat.NewDense(len(readings), len(witnesses), nil)
	}
	return matrix
}

// Dims returns the number of readings and witnesses.
func (matrix *Matrix) Dims() (rows, cols int) {
	return len(matrix.Readings), len(matrix.Witnesses)
}

// Empty reports whether the matrix has no cells.
func (matrix *Matrix) Empty() bool {
	return matrix.data == nil
}

// At returns the coefficient of reading i for witness j. It panics if the
// indices are out of range, like gonum.
func (matrix *Matrix) At(i, j int) float64 {
	if matrix.data == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	return matrix.data.At(i, j)
}

// Set stores the coefficient of reading i for witness j.
func (matrix *Matrix) Set(i, j int, value float64) {
	if matrix.data == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	matrix.data.Set(i, j, value)
}

// Dense returns the backing gonum matrix for read-only use by factorization
// routines, or nil when the matrix is empty.
func (matrix *Matrix) Dense() mat.Matrix {
	if matrix.data == nil {
		return nil
	}
	return matrix.data
}

// Row returns a copy of the coefficients of reading i.
func (matrix *Matrix) Row(i int) []float64 {
	if matrix.data == nil {
		return make([]float64, len(matrix.Witnesses))
	}
	return mat.Row(nil, i, matrix.data)
}

// Column returns a copy of the coefficients of witness j.
func (matrix *Matrix) Column(j int) []float64 {
	if matrix.data == nil {
		return make([]float64, len(matrix.Readings))
	}
	return mat.Col(nil, j, matrix.data)
}

// RowSums returns the total coefficient of every reading.
func (matrix *Matrix) RowSums() []float64 {
	sums := make([]float64, len(matrix.Readings))
	if matrix.data == nil {
		return sums
	}
	for i := range sums {
		sums[i] = mat.Sum(matrix.data.RowView(i))
	}
	return sums
}

// ExtantCounts returns, for every witness, the number of readings it has
// non-zero support for.
func (matrix *Matrix) ExtantCounts() []int {
	counts := make([]int, len(matrix.Witnesses))
	if matrix.data == nil {
		return counts
	}
	rows, cols := matrix.data.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if matrix.data.At(i, j) != 0 {
				counts[j]++
			}
		}
	}
	return counts
}

// SelectColumns returns a new matrix with the given witness columns, in the
// given order, and all readings.
func (matrix *Matrix) SelectColumns(columns []int) *Matrix {
	witnesses := make([]string, len(columns))
	for index, column := range columns {
		witnesses[index] = matrix.Witnesses[column]
	}

	selected := NewMatrix(matrix.Readings, witnesses)
	if selected.data == nil {
		return selected
	}
	for i := range matrix.Readings {
		for index, column := range columns {
			selected.data.Set(i, index, matrix.data.At(i, column))
		}
	}
	return selected
}

// SelectRows returns a new matrix with the given reading rows, in the given
// order, and all witnesses.
func (matrix *Matrix) SelectRows(rows []int) *Matrix {
	readings := make([]string, len(rows))
	for index, row := range rows {
		readings[index] = matrix.Readings[row]
	}

	selected := NewMatrix(readings, matrix.Witnesses)
	if selected.data == nil {
		return selected
	}
	for index, row := range rows {
		selected.data.SetRow(index, mat.Row(nil, row, matrix.data))
	}
	return selected
}

// Values returns the coefficients as a slice of rows.
func (matrix *Matrix) Values() [][]float64 {
	values := make([][]float64, len(matrix.Readings))
	for i := range values {
		values[i] = matrix.Row(i)
	}
	return values
}
