package dtree

import (
	"encoding/json"
	"errors"
	"sort"
)

const Key = "decision_tree"

type TrainOptions struct {
	MaxDepth        int
	MinSamplesSplit int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{MaxDepth: 6, MinSamplesSplit: 6}
}

// Node is one tree node in serializable form. Leaves carry the class
// distribution of the training rows that reached them.
type Node struct {
	Leaf      bool      `json:"leaf"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *Node     `json:"left,omitempty"`
	Right     *Node     `json:"right,omitempty"`
	Probas    []float64 `json:"probas,omitempty"`
}

type Artifact struct {
	NumClasses      int   `json:"num_classes"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	Root            *Node `json:"root"`
}

// Model is a CART-style classifier with gini impurity and axis-aligned
// numeric splits (x <= threshold goes left).
type Model struct {
	artifact Artifact
	opts     TrainOptions
}

func New(opts TrainOptions) *Model {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultTrainOptions().MaxDepth
	}
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = DefaultTrainOptions().MinSamplesSplit
	}
	return &Model{opts: opts}
}

func (m *Model) Key() string { return Key }

func (m *Model) Fit(x [][]float64, y []int, numClasses int) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("dtree: invalid training dataset")
	}
	if numClasses < 2 {
		return errors.New("dtree: need at least two classes")
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	m.artifact = Artifact{
		NumClasses:      numClasses,
		MaxDepth:        m.opts.MaxDepth,
		MinSamplesSplit: m.opts.MinSamplesSplit,
		Root:            buildNode(x, y, idx, numClasses, 0, m.opts, allFeatures(len(x[0]))),
	}
	return nil
}

// FitIndexed grows the tree on a row subset considering only the given split
// features. The random forest uses this for bootstrap samples and per-tree
// feature subsampling.
func (m *Model) FitIndexed(x [][]float64, y []int, idx []int, numClasses int, featIndices []int) error {
	if len(x) == 0 || len(idx) == 0 {
		return errors.New("dtree: empty training subset")
	}
	if len(featIndices) == 0 {
		featIndices = allFeatures(len(x[0]))
	}
	m.artifact = Artifact{
		NumClasses:      numClasses,
		MaxDepth:        m.opts.MaxDepth,
		MinSamplesSplit: m.opts.MinSamplesSplit,
		Root:            buildNode(x, y, idx, numClasses, 0, m.opts, featIndices),
	}
	return nil
}

func (m *Model) PredictProba(x []float64) []float64 {
	if m == nil || m.artifact.Root == nil {
		return nil
	}
	node := m.artifact.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return append([]float64(nil), node.Probas...)
}

func (m *Model) MarshalArtifact() ([]byte, error) {
	if m == nil || m.artifact.Root == nil {
		return nil, errors.New("dtree: model not fitted")
	}
	return json.Marshal(m.artifact)
}

func Unmarshal(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("dtree: empty artifact")
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if a.Root == nil || a.NumClasses < 2 {
		return nil, errors.New("dtree: invalid artifact")
	}
	return &Model{artifact: a}, nil
}

func allFeatures(p int) []int {
	out := make([]int, p)
	for j := range out {
		out[j] = j
	}
	return out
}

// buildNode grows the tree recursively. featIndices restricts the candidate
// split features, which is how the random forest injects per-tree subsampling.
func buildNode(x [][]float64, y []int, idx []int, numClasses, depth int, opts TrainOptions, featIndices []int) *Node {
	counts := classCounts(y, idx, numClasses)

	if depth >= opts.MaxDepth || len(idx) < opts.MinSamplesSplit || isPure(counts) {
		return leafNode(counts)
	}

	best := findBestSplit(x, y, idx, numClasses, featIndices)
	if best.feature < 0 {
		return leafNode(counts)
	}

	node := &Node{Feature: best.feature, Threshold: best.threshold}
	node.Left = buildNode(x, y, best.left, numClasses, depth+1, opts, featIndices)
	node.Right = buildNode(x, y, best.right, numClasses, depth+1, opts, featIndices)
	return node
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func findBestSplit(x [][]float64, y []int, idx []int, numClasses int, featIndices []int) split {
	parent := gini(classCounts(y, idx, numClasses))
	best := split{feature: -1}
	total := float64(len(idx))

	type pair struct {
		v float64
		i int
	}

	for _, f := range featIndices {
		pairs := make([]pair, len(idx))
		for k, ii := range idx {
			pairs[k] = pair{v: x[ii][f], i: ii}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

		leftCounts := make([]int, numClasses)
		rightCounts := classCounts(y, idx, numClasses)
		for s := 1; s < len(pairs); s++ {
			label := y[pairs[s-1].i]
			leftCounts[label]++
			rightCounts[label]--
			if pairs[s].v == pairs[s-1].v {
				continue
			}
			nl := float64(s)
			nr := total - nl
			weighted := nl/total*gini(leftCounts) + nr/total*gini(rightCounts)
			gain := parent - weighted
			if gain > best.gain {
				left := make([]int, 0, s)
				right := make([]int, 0, len(pairs)-s)
				for k := 0; k < s; k++ {
					left = append(left, pairs[k].i)
				}
				for k := s; k < len(pairs); k++ {
					right = append(right, pairs[k].i)
				}
				best = split{
					feature:   f,
					threshold: (pairs[s-1].v + pairs[s].v) / 2,
					gain:      gain,
					left:      left,
					right:     right,
				}
			}
		}
	}
	return best
}

func leafNode(counts []int) *Node {
	total := 0
	for _, c := range counts {
		total += c
	}
	probas := make([]float64, len(counts))
	if total > 0 {
		for i, c := range counts {
			probas[i] = float64(c) / float64(total)
		}
	}
	return &Node{Leaf: true, Probas: probas}
}

func classCounts(y []int, idx []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, ii := range idx {
		counts[y[ii]]++
	}
	return counts
}

func gini(counts []int) float64 {
	total := 0.0
	for _, c := range counts {
		total += float64(c)
	}
	if total == 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		p := float64(c) / total
		res += p * (1 - p)
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}
