package analysis

import "gonum.org/v1/gonum/stat"

// scaler standardizes feature columns to zero mean and unit variance using
// the statistics of the matrix it was fitted on. Fitting and transforming
// are separate so that a recent window can never leak into the baseline fit.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(matrix [][]float64) *scaler {
	if len(matrix) == 0 {
		return &scaler{}
	}

	columns := len(matrix[0])
	s := &scaler{
		mean: make([]float64, columns),
		std:  make([]float64, columns),
	}

	column := make([]float64, len(matrix))
	for j := 0; j < columns; j++ {
		for i, row := range matrix {
			column[i] = row[j]
		}

		s.mean[j] = stat.Mean(column, nil)
		s.std[j] = stat.PopStdDev(column, nil)
		// a spreadless column stays untouched instead of dividing by zero
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}

	return s
}

func (s *scaler) transform(matrix [][]float64) [][]float64 {
	scaled := make([][]float64, len(matrix))
	for i, row := range matrix {
		scaledRow := make([]float64, len(row))
		for j, v := range row {
			scaledRow[j] = (v - s.mean[j]) / s.std[j]
		}
		scaled[i] = scaledRow
	}

	return scaled
}
