package pipeline

import (
	"errors"
	"math"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler is the first pipeline stage. Standard scaling centers each column
// to zero mean / unit variance; minmax maps each column onto [0, 1].
// Degenerate columns scale to 0 in both modes.
type Scaler struct {
	Kind string    `json:"kind"`
	Mean []float64 `json:"mean,omitempty"`
	Std  []float64 `json:"std,omitempty"`
	Min  []float64 `json:"min,omitempty"`
	Max  []float64 `json:"max,omitempty"`
}

func NewScaler(kind string) (*Scaler, error) {
	switch kind {
	case ScalerStandard, ScalerMinMax:
		return &Scaler{Kind: kind}, nil
	case "":
		return &Scaler{Kind: ScalerStandard}, nil
	default:
		return nil, errors.New("pipeline: unknown scaler kind " + kind)
	}
}

func (s *Scaler) Fit(x [][]float64) error {
	if len(x) == 0 || len(x[0]) == 0 {
		return errors.New("pipeline: cannot fit scaler on empty matrix")
	}
	p := len(x[0])
	switch s.Kind {
	case ScalerStandard:
		s.Mean = make([]float64, p)
		s.Std = make([]float64, p)
		for j := 0; j < p; j++ {
			for i := range x {
				s.Mean[j] += x[i][j]
			}
			s.Mean[j] /= float64(len(x))
			v := 0.0
			for i := range x {
				d := x[i][j] - s.Mean[j]
				v += d * d
			}
			s.Std[j] = math.Sqrt(v / float64(len(x)))
		}
	case ScalerMinMax:
		s.Min = make([]float64, p)
		s.Max = make([]float64, p)
		for j := 0; j < p; j++ {
			s.Min[j], s.Max[j] = x[0][j], x[0][j]
			for i := range x {
				if x[i][j] < s.Min[j] {
					s.Min[j] = x[i][j]
				}
				if x[i][j] > s.Max[j] {
					s.Max[j] = x[i][j]
				}
			}
		}
	default:
		return errors.New("pipeline: unknown scaler kind " + s.Kind)
	}
	return nil
}

func (s *Scaler) TransformRow(x []float64) []float64 {
	out := make([]float64, len(x))
	switch s.Kind {
	case ScalerStandard:
		for j := range x {
			if j < len(s.Std) && s.Std[j] != 0 {
				out[j] = (x[j] - s.Mean[j]) / s.Std[j]
			}
		}
	case ScalerMinMax:
		for j := range x {
			if j < len(s.Max) && s.Max[j] != s.Min[j] {
				out[j] = (x[j] - s.Min[j]) / (s.Max[j] - s.Min[j])
			}
		}
	}
	return out
}

func (s *Scaler) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = s.TransformRow(x[i])
	}
	return out
}
