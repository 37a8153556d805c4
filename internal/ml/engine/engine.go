package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/bundle"
	"academic-compass/internal/ml/dataset"
	"academic-compass/internal/ml/evaluate"
	"academic-compass/internal/ml/features"
	"academic-compass/internal/ml/ranking"
	"academic-compass/internal/ml/recommend"
	"academic-compass/internal/ml/training"
)

// StudentSource supplies labeled academic records for training. The engine
// tolerates a failing source; it falls back to the other dataset sources.
type StudentSource interface {
	TrainingPayloads(ctx context.Context) ([]map[string]any, error)
}

// Report is the serializable model summary served to dashboards.
type Report struct {
	BestModel        string                            `json:"best_model"`
	TrainedAt        time.Time                         `json:"trained_at"`
	Metrics          evaluate.Metrics                  `json:"metrics"`
	Confusion        evaluate.Confusion                `json:"confusion"`
	AllMetrics       map[string]bundle.CandidateReport `json:"all_metrics"`
	Ranking          []ranking.FeatureScore            `json:"ranking"`
	FeatureOrder     []string                          `json:"feature_order"`
	SelectedFeatures []string                          `json:"selected_features"`
}

// Engine owns the live model bundle. Reads go through an atomic pointer so
// predictions never block on a retrain; retrains themselves are serialized.
type Engine struct {
	tracer   trace.Tracer
	store    *bundle.Store
	trainer  *training.Service
	source   StudentSource
	csvPaths []string
	dsOpts   dataset.Options

	current atomic.Pointer[bundle.ModelBundle]
	trainMu sync.Mutex
}

func New(tracer trace.Tracer, store *bundle.Store, trainer *training.Service, source StudentSource, csvPaths []string, dsOpts dataset.Options) *Engine {
	return &Engine{
		tracer:   tracer,
		store:    store,
		trainer:  trainer,
		source:   source,
		csvPaths: csvPaths,
		dsOpts:   dsOpts,
	}
}

// Current returns the live bundle, or nil before the first successful load.
func (e *Engine) Current() *bundle.ModelBundle {
	return e.current.Load()
}

// LoadOrTrain returns a usable bundle: the live one, a persisted one, or a
// freshly trained one, in that order. With force it always retrains. When a
// retrain fails but an older bundle is live, the older bundle keeps serving
// and the failure is only logged; with nothing live, a readable persisted
// bundle is swapped in instead of surfacing the error. A save failure does
// not discard the new bundle; it is swapped in and the error reported.
func (e *Engine) LoadOrTrain(ctx context.Context, force bool) (*bundle.ModelBundle, error) {
	ctx, span := e.tracer.Start(ctx, "engine.LoadOrTrain")
	defer span.End()

	if !force {
		if b := e.current.Load(); b != nil {
			return b, nil
		}
	}

	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	if !force {
		if b := e.current.Load(); b != nil {
			return b, nil
		}
		if e.store.Exists() {
			b, err := e.store.Load(ctx)
			if err == nil {
				e.current.Store(b)
				return b, nil
			}
			log.Println("stored model bundle unusable, retraining:", err)
		}
	}

	b, err := e.train(ctx)
	if err != nil {
		if prior := e.current.Load(); prior != nil {
			log.Println("retrain failed, keeping current model:", err)
			return prior, nil
		}
		// No live bundle; a persisted one is still better than nothing.
		if e.store.Exists() {
			if stored, loadErr := e.store.Load(ctx); loadErr == nil {
				log.Println("retrain failed, serving persisted model:", err)
				e.current.Store(stored)
				return stored, nil
			}
		}
		return nil, err
	}

	e.current.Store(b)
	if err := e.store.Save(ctx, b); err != nil {
		return b, fmt.Errorf("model trained but not persisted: %w", err)
	}
	return b, nil
}

func (e *Engine) train(ctx context.Context) (*bundle.ModelBundle, error) {
	var webRows []map[string]any
	if e.source != nil {
		rows, err := e.source.TrainingPayloads(ctx)
		if err != nil {
			log.Println("student source unavailable, training without web rows:", err)
		} else {
			webRows = rows
		}
	}
	ds := dataset.Prepare(webRows, e.csvPaths, e.dsOpts)
	if report := dataset.DetectOutliers(ds, 0); len(report.Flagged) > 0 {
		log.Printf("dataset diagnostics: %d/%d rows flagged as outliers", len(report.Flagged), ds.Len())
	}
	return e.trainer.Train(ctx, ds)
}

// Predict scores one raw payload against the live bundle. Payload values are
// coerced leniently; callers wanting range validation do it at their boundary.
func (e *Engine) Predict(ctx context.Context, payload map[string]any) (domain.PredictionResult, error) {
	_, span := e.tracer.Start(ctx, "engine.Predict")
	defer span.End()

	b := e.current.Load()
	if b == nil {
		return domain.PredictionResult{}, domain.ErrModelUnavailable
	}

	v := features.FromPayload(payload)
	label, dist, err := b.Pipeline.Predict(v.Values())
	if err != nil {
		return domain.PredictionResult{}, err
	}

	maxProb := 0.0
	for _, prob := range dist {
		if prob > maxProb {
			maxProb = prob
		}
	}
	riesgo := domain.RiskLevel(label)
	return domain.PredictionResult{
		Riesgo:          riesgo,
		Score:           math.Round(maxProb*100*100) / 100,
		Probabilidades:  dist,
		Modelo:          b.BestModel,
		Recomendaciones: recommend.ForStudent(riesgo, v),
	}, nil
}

// Report summarizes the live bundle for dashboards and the metrics endpoint.
func (e *Engine) Report(ctx context.Context) (Report, error) {
	_, span := e.tracer.Start(ctx, "engine.Report")
	defer span.End()

	b := e.current.Load()
	if b == nil {
		return Report{}, domain.ErrModelUnavailable
	}
	return Report{
		BestModel:        b.BestModel,
		TrainedAt:        b.TrainedAt,
		Metrics:          b.Metrics,
		Confusion:        b.Confusion,
		AllMetrics:       b.AllMetrics,
		Ranking:          b.Ranking,
		FeatureOrder:     b.FeatureOrder,
		SelectedFeatures: b.SelectedFeatures,
	}, nil
}
