package ml

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler applies zero-mean, unit-variance normalization. It is fitted
// on the training partition only and persisted next to the model so
// inference applies exactly the same transform.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-dimension mean and standard deviation over X.
// Dimensions with zero variance get scale 1 so they pass through
// untouched.
func FitScaler(X [][]float64) *Scaler {
	if len(X) == 0 {
		return &Scaler{}
	}
	dims := len(X[0])
	s := &Scaler{
		Mean:  make([]float64, dims),
		Scale: make([]float64, dims),
	}
	col := make([]float64, len(X))
	for d := 0; d < dims; d++ {
		for i := range X {
			col[i] = X[i][d]
		}
		s.Mean[d] = stat.Mean(col, nil)
		sd := stat.PopStdDev(col, nil)
		if sd == 0 {
			sd = 1
		}
		s.Scale[d] = sd
	}
	return s
}

// Transform returns the scaled copy of one feature vector.
func (s *Scaler) Transform(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for i := range vec {
		if i < len(s.Mean) {
			out[i] = (vec[i] - s.Mean[i]) / s.Scale[i]
		} else {
			out[i] = vec[i]
		}
	}
	return out
}

// TransformAll scales every row of X.
func (s *Scaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = s.Transform(X[i])
	}
	return out
}
