package gbm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

const Key = "gradient_boosting"

type TrainOptions struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Rounds:       60,
		LearningRate: 0.1,
		MaxDepth:     4,
	}
}

type artifact struct {
	NumClasses int    `json:"num_classes"`
	ModelText  string `json:"model_text"`
}

// Model wraps a boosted multiclass ensemble. It is an optional candidate,
// off by default, so the standard four-candidate selection is unchanged
// unless explicitly enabled.
type Model struct {
	numClasses int
	boost      *boo.MultiClass
	opts       TrainOptions
}

func New(opts TrainOptions) *Model {
	def := DefaultTrainOptions()
	if opts.Rounds <= 0 {
		opts.Rounds = def.Rounds
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	return &Model{opts: opts}
}

func (m *Model) Key() string { return Key }

func (m *Model) Fit(x [][]float64, y []int, numClasses int) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("gbm: invalid training dataset")
	}
	if numClasses < 2 {
		return errors.New("gbm: need at least two classes")
	}

	o := boo.DefaultXOptions()
	o.Rounds = m.opts.Rounds
	o.LearningRate = m.opts.LearningRate
	o.MaxDepth = m.opts.MaxDepth
	o.Verbose = false
	o.EarlyStop = 0

	keys := make([]string, len(x[0]))
	for i := range keys {
		keys[i] = "f"
	}
	data := &utils.DataBunch{
		Data:   x,
		Labels: append([]int(nil), y...),
		Keys:   keys,
	}
	model := boo.NewMultiClass(data, o)
	if model == nil {
		return errors.New("gbm: training failed")
	}
	m.numClasses = numClasses
	m.boost = model
	return nil
}

// PredictProba maps boo's class-label ordering back onto the contiguous
// class indices the rest of the pipeline uses.
func (m *Model) PredictProba(x []float64) []float64 {
	if m == nil || m.boost == nil {
		return nil
	}
	probs := m.boost.PredictSingle(x)
	labels := m.boost.ClassLabels()
	out := make([]float64, m.numClasses)
	for i, label := range labels {
		if label >= 0 && label < m.numClasses && i < len(probs) {
			out[label] = probs[i]
		}
	}
	return out
}

func (m *Model) MarshalArtifact() ([]byte, error) {
	if m == nil || m.boost == nil {
		return nil, errors.New("gbm: model not fitted")
	}
	var buf bytes.Buffer
	if err := boo.JSONMultiClass(m.boost, "softmax", &buf); err != nil {
		return nil, err
	}
	return json.Marshal(artifact{NumClasses: m.numClasses, ModelText: buf.String()})
}

func Unmarshal(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, errors.New("gbm: empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	reader := bufio.NewReader(bytes.NewReader([]byte(a.ModelText)))
	model, err := boo.UnJSONMultiClass(reader)
	if err != nil {
		return nil, err
	}
	return &Model{numClasses: a.NumClasses, boost: model}, nil
}
