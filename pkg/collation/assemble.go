package collation

// Assemble builds the raw collation matrix from per-unit support. Readings
// and witnesses keep their first-seen order across units. Reading labels are
// unit-qualified, so every cell is written by at most one unit.
func Assemble(units []UnitSupport) *Matrix {
	var readings, witnesses []string
	rowByReading := make(map[string]int)
	columnByWitness := make(map[string]int)

	for _, unit := range units {
		for _, label := range unit.Readings {
			if _, exists := rowByReading[label]; !exists {
				rowByReading[label] = len(readings)
				readings = append(readings, label)
			}
		}
		for _, baseWitness := range unit.Witnesses {
			if _, exists := columnByWitness[baseWitness]; !exists {
				columnByWitness[baseWitness] = len(witnesses)
				witnesses = append(witnesses, baseWitness)
			}
		}
	}

	matrix := NewMatrix(readings, witnesses)
	for _, unit := range units {
		for _, baseWitness := range unit.Witnesses {
			column := columnByWitness[baseWitness]
			for label, coefficient := range unit.Coefficients[baseWitness] {
				row, known := rowByReading[label]
				if !known {
					continue
				}
				matrix.Set(row, column, coefficient)
			}
		}
	}

	return matrix
}
