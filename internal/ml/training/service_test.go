package training

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/dataset"
	"academic-compass/internal/ml/evaluate"
	"academic-compass/internal/ml/features"
	"academic-compass/internal/ml/models/dtree"
	"academic-compass/internal/ml/models/forest"
	"academic-compass/internal/ml/models/knn"
	"academic-compass/internal/ml/models/logreg"
	"academic-compass/internal/ml/pipeline"
	"academic-compass/internal/ml/ranking"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func syntheticDataset() dataset.Dataset {
	return dataset.GenerateSyntheticStudents(240, 42)
}

func TestTrainSelectsFromFourCandidates(t *testing.T) {
	svc := NewService(testTracer, DefaultOptions())
	b, err := svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	wantKeys := []string{logreg.Key, dtree.Key, forest.Key, knn.Key}
	if len(b.AllMetrics) != len(wantKeys) {
		t.Fatalf("expected %d candidate reports, got %d", len(wantKeys), len(b.AllMetrics))
	}
	for _, key := range wantKeys {
		if _, ok := b.AllMetrics[key]; !ok {
			t.Fatalf("missing candidate report for %s", key)
		}
	}
	if _, ok := b.AllMetrics[b.BestModel]; !ok {
		t.Fatalf("best model %s not among candidates", b.BestModel)
	}
	if b.Pipeline == nil {
		t.Fatal("bundle has no pipeline")
	}
	if len(b.SelectedFeatures) != 5 {
		t.Fatalf("expected 5 selected features, got %d", len(b.SelectedFeatures))
	}
	if len(b.Ranking) != 6 {
		t.Fatalf("expected full ranking, got %d entries", len(b.Ranking))
	}
	if b.Metrics.Accuracy <= 0.5 {
		t.Fatalf("winner accuracy suspiciously low: %f", b.Metrics.Accuracy)
	}
}

func TestTrainIsDeterministic(t *testing.T) {
	svc := NewService(testTracer, DefaultOptions())
	first, err := svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("first train: %v", err)
	}
	second, err := svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("second train: %v", err)
	}
	if first.BestModel != second.BestModel {
		t.Fatalf("winner changed between runs: %s vs %s", first.BestModel, second.BestModel)
	}
	if first.Metrics != second.Metrics {
		t.Fatalf("metrics changed between runs: %+v vs %+v", first.Metrics, second.Metrics)
	}
	if !reflect.DeepEqual(first.SelectedFeatures, second.SelectedFeatures) {
		t.Fatalf("selected features changed: %v vs %v", first.SelectedFeatures, second.SelectedFeatures)
	}
}

func TestTrainRejectsSingleClass(t *testing.T) {
	ds := dataset.Dataset{}
	for i := 0; i < 30; i++ {
		ds.Rows = append(ds.Rows, dataset.Row{Label: "bajo"})
	}
	svc := NewService(testTracer, DefaultOptions())
	if _, err := svc.Train(context.Background(), ds); !errors.Is(err, domain.ErrTrainingData) {
		t.Fatalf("expected ErrTrainingData, got %v", err)
	}
}

func TestTrainRejectsTinyClass(t *testing.T) {
	ds := syntheticDataset()
	ds.Rows = append(ds.Rows, dataset.Row{Label: "desconocido"})
	svc := NewService(testTracer, DefaultOptions())
	if _, err := svc.Train(context.Background(), ds); !errors.Is(err, domain.ErrTrainingData) {
		t.Fatalf("expected ErrTrainingData for single-row class, got %v", err)
	}
}

func TestScorePolicyFirstMaxWins(t *testing.T) {
	// A constant policy scores every candidate equally; the first registered
	// candidate must keep the win.
	opts := DefaultOptions()
	opts.Policy = func(evaluate.Metrics) float64 { return 1 }
	svc := NewService(testTracer, opts)
	b, err := svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if b.BestModel != logreg.Key {
		t.Fatalf("constant policy should keep first candidate %s, got %s", logreg.Key, b.BestModel)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.TestFraction != 0.2 {
		t.Fatalf("default test fraction = %g, want 0.2", opts.TestFraction)
	}
	if opts.Seed != 42 || opts.TopK != 5 {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if opts.ScalerKind != pipeline.ScalerStandard {
		t.Fatalf("default scaler = %q, want %q", opts.ScalerKind, pipeline.ScalerStandard)
	}
}

func TestScalerKindOptionIsApplied(t *testing.T) {
	opts := DefaultOptions()
	opts.ScalerKind = pipeline.ScalerMinMax
	svc := NewService(testTracer, opts)
	b, err := svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if b.Pipeline.Scaler.Kind != pipeline.ScalerMinMax {
		t.Fatalf("winner pipeline scaler = %q, want %q", b.Pipeline.Scaler.Kind, pipeline.ScalerMinMax)
	}

	svc = NewService(testTracer, Options{})
	b, err = svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("train with defaults: %v", err)
	}
	if b.Pipeline.Scaler.Kind != pipeline.ScalerStandard {
		t.Fatalf("empty scaler kind should mean standard, got %q", b.Pipeline.Scaler.Kind)
	}
}

func TestZeroSeedIsHonored(t *testing.T) {
	svc := NewService(testTracer, Options{Seed: 0})
	if svc.opts.Seed != 0 {
		t.Fatalf("seed 0 should be kept as given, got %d", svc.opts.Seed)
	}
	first, err := svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("first train: %v", err)
	}
	second, err := svc.Train(context.Background(), syntheticDataset())
	if err != nil {
		t.Fatalf("second train: %v", err)
	}
	if first.BestModel != second.BestModel || first.Metrics != second.Metrics {
		t.Fatalf("seed 0 runs diverged: %s %+v vs %s %+v", first.BestModel, first.Metrics, second.BestModel, second.Metrics)
	}
}

func TestRankingUsesTrainSplitOnly(t *testing.T) {
	ds := syntheticDataset()
	svc := NewService(testTracer, DefaultOptions())
	b, err := svc.Train(context.Background(), ds)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	x, y := labeledRows(ds)
	trainIdx, _, err := stratifiedSplit(y, svc.opts.TestFraction, svc.opts.Seed)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	xTrain, yTrain := take(x, y, trainIdx)
	want := ranking.Rank(xTrain, yTrain, features.Names)
	if !reflect.DeepEqual(b.Ranking, want) {
		t.Fatalf("bundle ranking should come from the train split: got %v, want %v", b.Ranking, want)
	}
}

func TestStratifiedSplitKeepsEveryClass(t *testing.T) {
	y := []string{}
	for i := 0; i < 8; i++ {
		y = append(y, "bajo")
	}
	for i := 0; i < 4; i++ {
		y = append(y, "medio")
	}
	y = append(y, "alto", "alto")

	train, test, err := stratifiedSplit(y, 0.25, 42)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(train)+len(test) != len(y) {
		t.Fatalf("split loses rows: %d + %d != %d", len(train), len(test), len(y))
	}
	trainClasses := map[string]bool{}
	testClasses := map[string]bool{}
	for _, i := range train {
		trainClasses[y[i]] = true
	}
	for _, i := range test {
		testClasses[y[i]] = true
	}
	for _, class := range []string{"bajo", "medio", "alto"} {
		if !trainClasses[class] {
			t.Fatalf("class %s missing from train split", class)
		}
		if !testClasses[class] {
			t.Fatalf("class %s missing from test split", class)
		}
	}
}
