package bundle

import (
	"encoding/json"
	"errors"
	"time"

	"academic-compass/internal/ml/evaluate"
	"academic-compass/internal/ml/pipeline"
	"academic-compass/internal/ml/ranking"
)

// CandidateReport holds everything recorded about one trained candidate.
type CandidateReport struct {
	Metrics   evaluate.Metrics   `json:"metrics"`
	Confusion evaluate.Confusion `json:"confusion"`
}

// ModelBundle is the unit of persistence: the winning pipeline plus the full
// evaluation record of the training run that produced it.
type ModelBundle struct {
	Pipeline         *pipeline.Pipeline
	BestModel        string
	Metrics          evaluate.Metrics
	Confusion        evaluate.Confusion
	AllMetrics       map[string]CandidateReport
	Ranking          []ranking.FeatureScore
	FeatureOrder     []string
	SelectedFeatures []string
	TrainedAt        time.Time
}

type artifact struct {
	Pipeline         json.RawMessage            `json:"pipeline"`
	BestModel        string                     `json:"best_model"`
	Metrics          evaluate.Metrics           `json:"metrics"`
	Confusion        evaluate.Confusion         `json:"confusion"`
	AllMetrics       map[string]CandidateReport `json:"all_metrics"`
	Ranking          []ranking.FeatureScore     `json:"ranking"`
	FeatureOrder     []string                   `json:"feature_order"`
	SelectedFeatures []string                   `json:"selected_features"`
	TrainedAt        time.Time                  `json:"trained_at"`
}

func (b *ModelBundle) Marshal() ([]byte, error) {
	if b == nil || b.Pipeline == nil {
		return nil, errors.New("bundle: nothing to marshal")
	}
	blob, err := b.Pipeline.Marshal()
	if err != nil {
		return nil, err
	}
	return json.Marshal(artifact{
		Pipeline:         blob,
		BestModel:        b.BestModel,
		Metrics:          b.Metrics,
		Confusion:        b.Confusion,
		AllMetrics:       b.AllMetrics,
		Ranking:          b.Ranking,
		FeatureOrder:     b.FeatureOrder,
		SelectedFeatures: b.SelectedFeatures,
		TrainedAt:        b.TrainedAt,
	})
}

func Unmarshal(data []byte) (*ModelBundle, error) {
	if len(data) == 0 {
		return nil, errors.New("bundle: empty artifact")
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	p, err := pipeline.Unmarshal(a.Pipeline)
	if err != nil {
		return nil, err
	}
	if a.BestModel == "" {
		return nil, errors.New("bundle: artifact missing best model")
	}
	return &ModelBundle{
		Pipeline:         p,
		BestModel:        a.BestModel,
		Metrics:          a.Metrics,
		Confusion:        a.Confusion,
		AllMetrics:       a.AllMetrics,
		Ranking:          a.Ranking,
		FeatureOrder:     a.FeatureOrder,
		SelectedFeatures: a.SelectedFeatures,
		TrainedAt:        a.TrainedAt,
	}, nil
}
