package forest

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"

	"academic-compass/internal/ml/models/dtree"
)

const Key = "random_forest"

type TrainOptions struct {
	NumTrees        int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{NumTrees: 250, MaxDepth: 9, MinSamplesSplit: 4, Seed: 42}
}

type artifact struct {
	NumClasses int               `json:"num_classes"`
	Trees      []json.RawMessage `json:"trees"`
}

// Model is a bagging ensemble of CART trees with sqrt(p) feature subsampling
// per tree. Probabilities are the mean of the per-tree leaf distributions.
type Model struct {
	numClasses int
	trees      []*dtree.Model
	opts       TrainOptions
}

func New(opts TrainOptions) *Model {
	def := DefaultTrainOptions()
	if opts.NumTrees <= 0 {
		opts.NumTrees = def.NumTrees
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = def.MinSamplesSplit
	}
	return &Model{opts: opts}
}

func (m *Model) Key() string { return Key }

func (m *Model) Fit(x [][]float64, y []int, numClasses int) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("forest: invalid training dataset")
	}
	if numClasses < 2 {
		return errors.New("forest: need at least two classes")
	}
	n := len(x)
	p := len(x[0])
	maxFeatures := int(math.Ceil(math.Sqrt(float64(p))))

	m.numClasses = numClasses
	m.trees = make([]*dtree.Model, m.opts.NumTrees)
	for t := 0; t < m.opts.NumTrees; t++ {
		// Per-tree seed keeps the whole forest reproducible for a fixed seed.
		rng := rand.New(rand.NewSource(m.opts.Seed + int64(t)))

		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}

		feats := rng.Perm(p)[:maxFeatures]

		tree := dtree.New(dtree.TrainOptions{
			MaxDepth:        m.opts.MaxDepth,
			MinSamplesSplit: m.opts.MinSamplesSplit,
		})
		if err := tree.FitIndexed(x, y, sample, numClasses, feats); err != nil {
			return err
		}
		m.trees[t] = tree
	}
	return nil
}

func (m *Model) PredictProba(x []float64) []float64 {
	if m == nil || len(m.trees) == 0 {
		return nil
	}
	out := make([]float64, m.numClasses)
	for _, tree := range m.trees {
		probs := tree.PredictProba(x)
		for c := range probs {
			out[c] += probs[c]
		}
	}
	for c := range out {
		out[c] /= float64(len(m.trees))
	}
	return out
}

func (m *Model) MarshalArtifact() ([]byte, error) {
	if m == nil || len(m.trees) == 0 {
		return nil, errors.New("forest: model not fitted")
	}
	a := artifact{NumClasses: m.numClasses, Trees: make([]json.RawMessage, len(m.trees))}
	for i, tree := range m.trees {
		blob, err := tree.MarshalArtifact()
		if err != nil {
			return nil, err
		}
		a.Trees[i] = blob
	}
	return json.Marshal(a)
}

func Unmarshal(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("forest: empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if len(a.Trees) == 0 || a.NumClasses < 2 {
		return nil, errors.New("forest: invalid artifact")
	}
	m := &Model{numClasses: a.NumClasses, trees: make([]*dtree.Model, len(a.Trees))}
	for i, blob := range a.Trees {
		tree, err := dtree.Unmarshal(blob)
		if err != nil {
			return nil, err
		}
		m.trees[i] = tree
	}
	return m, nil
}
