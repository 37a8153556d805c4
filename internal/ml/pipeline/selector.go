package pipeline

import (
	"errors"

	"academic-compass/internal/ml/ranking"
)

// TopKSelector keeps the k columns most relevant to the label, scored with
// the same mutual-information metric the feature ranker reports.
type TopKSelector struct {
	K       int   `json:"k"`
	Indices []int `json:"indices"`
}

func NewTopKSelector(k int) *TopKSelector {
	return &TopKSelector{K: k}
}

func (s *TopKSelector) Fit(x [][]float64, y []string, names []string) error {
	if len(x) == 0 {
		return errors.New("pipeline: cannot fit selector on empty matrix")
	}
	k := s.K
	if k <= 0 || k > len(names) {
		k = len(names)
	}
	ranked := ranking.Rank(x, y, names)

	index := make(map[string]int, len(names))
	for j, name := range names {
		index[name] = j
	}
	s.Indices = make([]int, 0, k)
	for _, fs := range ranked[:k] {
		s.Indices = append(s.Indices, index[fs.Name])
	}
	return nil
}

func (s *TopKSelector) TransformRow(x []float64) []float64 {
	out := make([]float64, len(s.Indices))
	for i, j := range s.Indices {
		if j < len(x) {
			out[i] = x[j]
		}
	}
	return out
}

func (s *TopKSelector) Transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		out[i] = s.TransformRow(x[i])
	}
	return out
}
