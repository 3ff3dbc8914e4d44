package sequence

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RobustScaler centers on per-column medians and scales by interquartile
// range, which keeps fat-tailed financial features from letting a single
// outlier dominate the scale. Fit once on the training partition; inference
// reuses the fitted parameters unchanged.
type RobustScaler struct {
	Center []float64 `json:"center"` // per-column median
	Scale  []float64 `json:"scale"`  // per-column IQR, 1 where degenerate
}

// FitRobustScaler computes medians and IQRs column-wise over the sample
// matrix. Columns with zero IQR (constant features) scale by 1.
func FitRobustScaler(rows [][]float64) (*RobustScaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fit scaler: no rows")
	}
	cols := len(rows[0])
	s := &RobustScaler{
		Center: make([]float64, cols),
		Scale:  make([]float64, cols),
	}
	col := make([]float64, len(rows))
	for c := 0; c < cols; c++ {
		for r, row := range rows {
			if len(row) != cols {
				return nil, fmt.Errorf("fit scaler: ragged row %d", r)
			}
			col[r] = row[c]
		}
		sort.Float64s(col)
		s.Center[c] = stat.Quantile(0.5, stat.LinInterp, col, nil)
		iqr := stat.Quantile(0.75, stat.LinInterp, col, nil) - stat.Quantile(0.25, stat.LinInterp, col, nil)
		if iqr == 0 {
			iqr = 1
		}
		s.Scale[c] = iqr
	}
	return s, nil
}

// Transform scales a single feature vector in place-free fashion.
func (s *RobustScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Center) {
		return nil, fmt.Errorf("scaler: got %d columns, fitted on %d", len(row), len(s.Center))
	}
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Center[i]) / s.Scale[i]
	}
	return out, nil
}

// TransformAll scales a window of feature vectors.
func (s *RobustScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		t, err := s.Transform(r)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
