package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/bundle"
	"academic-compass/internal/ml/dataset"
	"academic-compass/internal/ml/training"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store := bundle.NewStore(filepath.Join(t.TempDir(), "bundle.json"), testTracer)
	trainer := training.NewService(testTracer, training.DefaultOptions())
	opts := dataset.Options{SyntheticSamples: 120, Seed: 42, SyntheticIfEmpty: true}
	return New(testTracer, store, trainer, nil, nil, opts)
}

func TestPredictBeforeLoadReturnsModelUnavailable(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Predict(context.Background(), map[string]any{"promedio": 8.0}); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestLoadOrTrainBootstrapsFromSynthetic(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("load or train: %v", err)
	}
	if b == nil || b.BestModel == "" {
		t.Fatal("expected a trained bundle")
	}
	if !e.store.Exists() {
		t.Fatal("bundle should be persisted after training")
	}
	if e.Current() != b {
		t.Fatal("trained bundle should be live")
	}
}

func TestLoadOrTrainIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	first, err := e.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := e.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second {
		t.Fatal("second call without force should return the live bundle")
	}
}

func TestLoadOrTrainPrefersPersistedBundle(t *testing.T) {
	store := bundle.NewStore(filepath.Join(t.TempDir(), "bundle.json"), testTracer)
	trainer := training.NewService(testTracer, training.DefaultOptions())
	opts := dataset.Options{SyntheticSamples: 120, Seed: 42, SyntheticIfEmpty: true}

	warm := New(testTracer, store, trainer, nil, nil, opts)
	saved, err := warm.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("warm train: %v", err)
	}

	cold := New(testTracer, store, trainer, nil, nil, opts)
	loaded, err := cold.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("cold load: %v", err)
	}
	if loaded.BestModel != saved.BestModel {
		t.Fatalf("loaded %s, saved %s", loaded.BestModel, saved.BestModel)
	}
	if !loaded.TrainedAt.Equal(saved.TrainedAt) {
		t.Fatalf("loaded bundle differs from saved: %v vs %v", loaded.TrainedAt, saved.TrainedAt)
	}
}

type singleClassSource struct{}

func (singleClassSource) TrainingPayloads(context.Context) ([]map[string]any, error) {
	rows := make([]map[string]any, 10)
	for i := range rows {
		rows[i] = map[string]any{
			"promedio":      8.0,
			"asistencia":    95.0,
			"horas_estudio": 15.0,
			"tendencia":     0.5,
			"puntualidad":   92.0,
			"habitos":       8.0,
			"riesgo":        "bajo",
		}
	}
	return rows, nil
}

func TestForcedRetrainFailureFallsBackToPersistedBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	trainer := training.NewService(testTracer, training.DefaultOptions())
	opts := dataset.Options{SyntheticSamples: 120, Seed: 42, SyntheticIfEmpty: true}

	warm := New(testTracer, bundle.NewStore(path, testTracer), trainer, nil, nil, opts)
	saved, err := warm.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("warm train: %v", err)
	}

	// Single-class source data makes the retrain fail; the cold engine has
	// nothing live, so the persisted bundle must keep serving.
	cold := New(testTracer, bundle.NewStore(path, testTracer), trainer, singleClassSource{}, nil, opts)
	b, err := cold.LoadOrTrain(context.Background(), true)
	if err != nil {
		t.Fatalf("expected persisted fallback, got %v", err)
	}
	if b == nil || !b.TrainedAt.Equal(saved.TrainedAt) {
		t.Fatalf("expected the persisted bundle, got %+v", b)
	}
	if cold.Current() != b {
		t.Fatal("fallback bundle should be live")
	}
}

func TestForcedRetrainFailureWithoutAnyBundleErrors(t *testing.T) {
	store := bundle.NewStore(filepath.Join(t.TempDir(), "bundle.json"), testTracer)
	trainer := training.NewService(testTracer, training.DefaultOptions())
	opts := dataset.Options{SyntheticSamples: 120, Seed: 42, SyntheticIfEmpty: true}
	e := New(testTracer, store, trainer, singleClassSource{}, nil, opts)

	if _, err := e.LoadOrTrain(context.Background(), true); !errors.Is(err, domain.ErrTrainingData) {
		t.Fatalf("expected ErrTrainingData with nothing to fall back to, got %v", err)
	}
}

func TestForceRetrainReplacesBundle(t *testing.T) {
	e := newTestEngine(t)
	first, err := e.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("first train: %v", err)
	}
	second, err := e.LoadOrTrain(context.Background(), true)
	if err != nil {
		t.Fatalf("force retrain: %v", err)
	}
	if first == second {
		t.Fatal("force retrain should produce a new bundle")
	}
	if e.Current() != second {
		t.Fatal("new bundle should be live")
	}
}

type failingSource struct{}

func (failingSource) TrainingPayloads(context.Context) ([]map[string]any, error) {
	return nil, errors.New("database down")
}

func TestFailingSourceFallsBackToSynthetic(t *testing.T) {
	store := bundle.NewStore(filepath.Join(t.TempDir(), "bundle.json"), testTracer)
	trainer := training.NewService(testTracer, training.DefaultOptions())
	opts := dataset.Options{SyntheticSamples: 120, Seed: 42, SyntheticIfEmpty: true}
	e := New(testTracer, store, trainer, failingSource{}, nil, opts)

	if _, err := e.LoadOrTrain(context.Background(), false); err != nil {
		t.Fatalf("expected synthetic fallback, got %v", err)
	}
}

func TestPredictContract(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.LoadOrTrain(context.Background(), false); err != nil {
		t.Fatalf("load or train: %v", err)
	}

	payload := map[string]any{
		"nota_promedio": "8.5",
		"asistencia":    95,
		"horas_estudio": 18.0,
		"tendencia":     1.0,
		"puntualidad":   96,
		"habitos":       "not-a-number",
	}
	res, err := e.Predict(context.Background(), payload)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !res.Riesgo.IsValid() {
		t.Fatalf("invalid risk level %q", res.Riesgo)
	}
	if res.Score < 0 || res.Score > 100 {
		t.Fatalf("score out of range: %f", res.Score)
	}
	if len(res.Probabilidades) != 3 {
		t.Fatalf("expected 3 class probabilities, got %v", res.Probabilidades)
	}
	if res.Modelo == "" {
		t.Fatal("result should carry the model key")
	}
	if len(res.Recomendaciones) == 0 {
		t.Fatal("result should carry recommendations")
	}
}

func TestConcurrentPredictDuringRetrain(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.LoadOrTrain(context.Background(), false); err != nil {
		t.Fatalf("load or train: %v", err)
	}

	payload := map[string]any{"promedio": 7.0, "asistencia": 88.0, "horas_estudio": 12.0, "puntualidad": 90.0, "habitos": 7.0}
	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Predict(context.Background(), payload); err != nil {
				errs <- err
			}
		}()
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.LoadOrTrain(context.Background(), true); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent use failed: %v", err)
	}
}

func TestReportMirrorsBundle(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.LoadOrTrain(context.Background(), false)
	if err != nil {
		t.Fatalf("load or train: %v", err)
	}
	report, err := e.Report(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.BestModel != b.BestModel {
		t.Fatalf("report model %s, bundle %s", report.BestModel, b.BestModel)
	}
	if len(report.AllMetrics) != len(b.AllMetrics) {
		t.Fatal("report should carry every candidate report")
	}
	if len(report.SelectedFeatures) != len(b.SelectedFeatures) {
		t.Fatal("report should carry the selected features")
	}
}
