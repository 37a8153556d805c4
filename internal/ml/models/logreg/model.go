package logreg

import (
	"encoding/json"
	"errors"
	"math"
)

const Key = "logistic_regression"

type TrainOptions struct {
	LearningRate float64
	Epochs       int
	L2           float64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		LearningRate: 0.1,
		Epochs:       1200,
		L2:           0.0001,
	}
}

// Artifact is the serialized form of a fitted multinomial model.
// Weights[c] are the coefficients for class c; balanced class weights are
// baked into the fit and do not need to survive serialization.
type Artifact struct {
	NumClasses   int         `json:"num_classes"`
	Weights      [][]float64 `json:"weights"`
	Biases       []float64   `json:"biases"`
	LearningRate float64     `json:"learning_rate"`
	Epochs       int         `json:"epochs"`
	L2           float64     `json:"l2"`
}

// Model is a multinomial logistic regression fitted by batch gradient
// descent with balanced class weights.
type Model struct {
	artifact Artifact
	opts     TrainOptions
}

func New(opts TrainOptions) *Model {
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainOptions().LearningRate
	}
	if opts.Epochs <= 0 {
		opts.Epochs = DefaultTrainOptions().Epochs
	}
	if opts.L2 < 0 {
		opts.L2 = DefaultTrainOptions().L2
	}
	return &Model{opts: opts}
}

func (m *Model) Key() string { return Key }

func (m *Model) Fit(x [][]float64, y []int, numClasses int) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("logreg: invalid training dataset")
	}
	if numClasses < 2 {
		return errors.New("logreg: need at least two classes")
	}
	p := len(x[0])
	if p == 0 {
		return errors.New("logreg: empty feature vectors")
	}
	n := len(x)

	// Balanced class weights: w_c = n / (k * n_c).
	counts := make([]float64, numClasses)
	for _, label := range y {
		if label < 0 || label >= numClasses {
			return errors.New("logreg: label out of range")
		}
		counts[label]++
	}
	classWeights := make([]float64, numClasses)
	for c := range classWeights {
		if counts[c] > 0 {
			classWeights[c] = float64(n) / (float64(numClasses) * counts[c])
		}
	}

	weights := make([][]float64, numClasses)
	for c := range weights {
		weights[c] = make([]float64, p)
	}
	biases := make([]float64, numClasses)

	grads := make([][]float64, numClasses)
	for c := range grads {
		grads[c] = make([]float64, p)
	}
	gradBias := make([]float64, numClasses)

	for epoch := 0; epoch < m.opts.Epochs; epoch++ {
		for c := range grads {
			for j := range grads[c] {
				grads[c][j] = 0
			}
			gradBias[c] = 0
		}
		weightTotal := 0.0
		for i := range x {
			probs := softmax(logits(weights, biases, x[i]))
			w := classWeights[y[i]]
			weightTotal += w
			for c := 0; c < numClasses; c++ {
				target := 0.0
				if c == y[i] {
					target = 1
				}
				err := (probs[c] - target) * w
				for j := 0; j < p; j++ {
					grads[c][j] += err * x[i][j]
				}
				gradBias[c] += err
			}
		}
		for c := 0; c < numClasses; c++ {
			for j := 0; j < p; j++ {
				g := grads[c][j]/weightTotal + m.opts.L2*weights[c][j]
				weights[c][j] -= m.opts.LearningRate * g
			}
			biases[c] -= m.opts.LearningRate * (gradBias[c] / weightTotal)
		}
	}

	m.artifact = Artifact{
		NumClasses:   numClasses,
		Weights:      weights,
		Biases:       biases,
		LearningRate: m.opts.LearningRate,
		Epochs:       m.opts.Epochs,
		L2:           m.opts.L2,
	}
	return nil
}

// PredictProba returns the class distribution for one sample, aligned with
// the class indices the model was fitted on.
func (m *Model) PredictProba(x []float64) []float64 {
	if m == nil || len(m.artifact.Weights) == 0 {
		return nil
	}
	return softmax(logits(m.artifact.Weights, m.artifact.Biases, x))
}

func (m *Model) MarshalArtifact() ([]byte, error) {
	if m == nil || len(m.artifact.Weights) == 0 {
		return nil, errors.New("logreg: model not fitted")
	}
	return json.Marshal(m.artifact)
}

func Unmarshal(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("logreg: empty artifact")
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if a.NumClasses < 2 || len(a.Weights) != a.NumClasses || len(a.Biases) != a.NumClasses {
		return nil, errors.New("logreg: invalid artifact")
	}
	return &Model{artifact: a}, nil
}

func logits(weights [][]float64, biases []float64, x []float64) []float64 {
	out := make([]float64, len(weights))
	for c := range weights {
		s := biases[c]
		row := weights[c]
		for j := range row {
			if j < len(x) {
				s += row[j] * x[j]
			}
		}
		out[c] = s
	}
	return out
}

func softmax(z []float64) []float64 {
	max := math.Inf(-1)
	for _, v := range z {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
