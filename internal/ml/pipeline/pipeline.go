package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"academic-compass/internal/ml/features"
	"academic-compass/internal/ml/models/dtree"
	"academic-compass/internal/ml/models/forest"
	"academic-compass/internal/ml/models/gbm"
	"academic-compass/internal/ml/models/knn"
	"academic-compass/internal/ml/models/logreg"
)

// Classifier is what a pipeline drives after scaling and selection. All the
// candidate models satisfy it.
type Classifier interface {
	Key() string
	Fit(x [][]float64, y []int, numClasses int) error
	PredictProba(x []float64) []float64
	MarshalArtifact() ([]byte, error)
}

// Pipeline chains scaler -> top-k selector -> classifier and owns the label
// encoding. Classes are the distinct labels in sorted order, so class index
// i always means Classes[i] on both sides of a save/load cycle.
type Pipeline struct {
	Scaler     *Scaler
	Selector   *TopKSelector
	Model      Classifier
	Classes    []string
	FeatureSet []string
}

type Artifact struct {
	Scaler     *Scaler         `json:"scaler"`
	Selector   *TopKSelector   `json:"selector"`
	ModelKey   string          `json:"model_key"`
	Model      json.RawMessage `json:"model"`
	Classes    []string        `json:"classes"`
	FeatureSet []string        `json:"feature_set"`
}

func New(scaler *Scaler, selector *TopKSelector, model Classifier) *Pipeline {
	return &Pipeline{Scaler: scaler, Selector: selector, Model: model}
}

// Fit trains the full chain. Labels are encoded against the sorted distinct
// label set; x rows follow the order of names.
func (p *Pipeline) Fit(x [][]float64, y []string, names []string) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.New("pipeline: invalid training dataset")
	}
	p.Classes = features.SortedLabels(y)
	if len(p.Classes) < 2 {
		return errors.New("pipeline: need at least two classes")
	}
	p.FeatureSet = append([]string(nil), names...)

	classIndex := make(map[string]int, len(p.Classes))
	for i, c := range p.Classes {
		classIndex[c] = i
	}
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = classIndex[label]
	}

	if err := p.Scaler.Fit(x); err != nil {
		return err
	}
	scaled := p.Scaler.Transform(x)
	if err := p.Selector.Fit(scaled, y, names); err != nil {
		return err
	}
	selected := p.Selector.Transform(scaled)
	return p.Model.Fit(selected, encoded, len(p.Classes))
}

// SelectedFeatures reports the feature names the selector kept, in ranking
// order.
func (p *Pipeline) SelectedFeatures() []string {
	out := make([]string, 0, len(p.Selector.Indices))
	for _, j := range p.Selector.Indices {
		if j < len(p.FeatureSet) {
			out = append(out, p.FeatureSet[j])
		}
	}
	return out
}

// PredictProba returns one probability per class, aligned with Classes.
func (p *Pipeline) PredictProba(x []float64) ([]float64, error) {
	if p == nil || p.Model == nil {
		return nil, errors.New("pipeline: not fitted")
	}
	row := p.Selector.TransformRow(p.Scaler.TransformRow(x))
	probs := p.Model.PredictProba(row)
	if len(probs) != len(p.Classes) {
		return nil, errors.New("pipeline: classifier returned malformed probabilities")
	}
	return probs, nil
}

// Predict returns the highest-probability label and the full distribution
// keyed by label. Ties break toward the earlier class in sorted order.
func (p *Pipeline) Predict(x []float64) (string, map[string]float64, error) {
	probs, err := p.PredictProba(x)
	if err != nil {
		return "", nil, err
	}
	best := 0
	dist := make(map[string]float64, len(p.Classes))
	for i, c := range p.Classes {
		dist[c] = probs[i]
		if probs[i] > probs[best] {
			best = i
		}
	}
	return p.Classes[best], dist, nil
}

func (p *Pipeline) Marshal() ([]byte, error) {
	if p == nil || p.Model == nil {
		return nil, errors.New("pipeline: not fitted")
	}
	blob, err := p.Model.MarshalArtifact()
	if err != nil {
		return nil, err
	}
	return json.Marshal(Artifact{
		Scaler:     p.Scaler,
		Selector:   p.Selector,
		ModelKey:   p.Model.Key(),
		Model:      blob,
		Classes:    p.Classes,
		FeatureSet: p.FeatureSet,
	})
}

func Unmarshal(data []byte) (*Pipeline, error) {
	if len(data) == 0 {
		return nil, errors.New("pipeline: empty artifact")
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	if a.Scaler == nil || a.Selector == nil || len(a.Classes) < 2 {
		return nil, errors.New("pipeline: invalid artifact")
	}
	model, err := unmarshalModel(a.ModelKey, a.Model)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Scaler:     a.Scaler,
		Selector:   a.Selector,
		Model:      model,
		Classes:    a.Classes,
		FeatureSet: a.FeatureSet,
	}, nil
}

func unmarshalModel(key string, blob []byte) (Classifier, error) {
	switch key {
	case logreg.Key:
		return logreg.Unmarshal(blob)
	case dtree.Key:
		return dtree.Unmarshal(blob)
	case forest.Key:
		return forest.Unmarshal(blob)
	case knn.Key:
		return knn.Unmarshal(blob)
	case gbm.Key:
		return gbm.Unmarshal(blob)
	default:
		return nil, fmt.Errorf("pipeline: unknown model key %q", key)
	}
}
