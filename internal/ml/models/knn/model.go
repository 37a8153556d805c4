package knn

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
)

const Key = "knn"

type TrainOptions struct {
	K int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{K: 7}
}

// Artifact stores the full training set; KNN is lazy and the academic
// datasets it serves are small enough for that to stay cheap.
type Artifact struct {
	K          int         `json:"k"`
	NumClasses int         `json:"num_classes"`
	X          [][]float64 `json:"x"`
	Y          []int       `json:"y"`
}

// Model is a distance-weighted k-nearest-neighbors classifier. Votes are
// weighted by inverse euclidean distance; an exact match wins outright.
type Model struct {
	artifact Artifact
}

func New(opts TrainOptions) *Model {
	if opts.K <= 0 {
		opts.K = DefaultTrainOptions().K
	}
	return &Model{artifact: Artifact{K: opts.K}}
}

func (m *Model) Key() string { return Key }

func (m *Model) Fit(x [][]float64, y []int, numClasses int) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("knn: invalid training dataset")
	}
	if numClasses < 2 {
		return errors.New("knn: need at least two classes")
	}
	m.artifact.NumClasses = numClasses
	m.artifact.X = x
	m.artifact.Y = y
	return nil
}

func (m *Model) PredictProba(x []float64) []float64 {
	if m == nil || len(m.artifact.X) == 0 {
		return nil
	}
	type neighbor struct {
		dist  float64
		label int
	}
	nbrs := make([]neighbor, 0, len(m.artifact.X))
	for i, xi := range m.artifact.X {
		nbrs = append(nbrs, neighbor{dist: euclid(x, xi), label: m.artifact.Y[i]})
	}
	sort.Slice(nbrs, func(a, b int) bool { return nbrs[a].dist < nbrs[b].dist })

	k := m.artifact.K
	if k > len(nbrs) {
		k = len(nbrs)
	}

	votes := make([]float64, m.artifact.NumClasses)
	total := 0.0
	for _, nb := range nbrs[:k] {
		if nb.dist == 0 {
			out := make([]float64, m.artifact.NumClasses)
			out[nb.label] = 1
			return out
		}
		w := 1 / nb.dist
		votes[nb.label] += w
		total += w
	}
	if total == 0 {
		return votes
	}
	for c := range votes {
		votes[c] /= total
	}
	return votes
}

func (m *Model) MarshalArtifact() ([]byte, error) {
	if m == nil || len(m.artifact.X) == 0 {
		return nil, errors.New("knn: model not fitted")
	}
	return json.Marshal(m.artifact)
}

func Unmarshal(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("knn: empty artifact")
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if len(a.X) == 0 || len(a.X) != len(a.Y) || a.NumClasses < 2 {
		return nil, errors.New("knn: invalid artifact")
	}
	return &Model{artifact: a}, nil
}

func euclid(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		if i >= len(b) {
			break
		}
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
