package training

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/bundle"
	"academic-compass/internal/ml/dataset"
	"academic-compass/internal/ml/evaluate"
	"academic-compass/internal/ml/features"
	"academic-compass/internal/ml/models/dtree"
	"academic-compass/internal/ml/models/forest"
	"academic-compass/internal/ml/models/gbm"
	"academic-compass/internal/ml/models/knn"
	"academic-compass/internal/ml/models/logreg"
	"academic-compass/internal/ml/pipeline"
	"academic-compass/internal/ml/ranking"
)

// ScorePolicy ranks candidate metrics; higher wins. Candidates are compared
// in registration order and only a strictly better score displaces the
// current winner, so ties resolve to the earlier candidate.
type ScorePolicy func(m evaluate.Metrics) float64

// DefaultScorePolicy sums weighted F1 and accuracy.
func DefaultScorePolicy(m evaluate.Metrics) float64 {
	return m.F1Weighted + m.Accuracy
}

type Options struct {
	TestFraction float64
	// Seed drives every shuffle; zero is a valid seed and is used as given.
	Seed int64
	TopK int
	// ScalerKind selects the pipeline scaler: pipeline.ScalerStandard or
	// pipeline.ScalerMinMax. Empty means standard.
	ScalerKind string
	EnableGBM  bool
	Policy     ScorePolicy
}

func DefaultOptions() Options {
	return Options{TestFraction: 0.2, Seed: 42, TopK: 5, ScalerKind: pipeline.ScalerStandard}
}

type candidate struct {
	key   string
	build func() pipeline.Classifier
}

// Service trains every candidate on a shared stratified split and keeps the
// winner. The whole run is deterministic for a fixed seed.
type Service struct {
	tracer trace.Tracer
	opts   Options
	now    func() time.Time
}

func NewService(tracer trace.Tracer, opts Options) *Service {
	def := DefaultOptions()
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		opts.TestFraction = def.TestFraction
	}
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.ScalerKind == "" {
		opts.ScalerKind = def.ScalerKind
	}
	if opts.Policy == nil {
		opts.Policy = DefaultScorePolicy
	}
	return &Service{tracer: tracer, opts: opts, now: time.Now}
}

func (s *Service) candidates() []candidate {
	out := []candidate{
		{key: logreg.Key, build: func() pipeline.Classifier { return logreg.New(logreg.DefaultTrainOptions()) }},
		{key: dtree.Key, build: func() pipeline.Classifier { return dtree.New(dtree.DefaultTrainOptions()) }},
		{key: forest.Key, build: func() pipeline.Classifier { return forest.New(forest.DefaultTrainOptions()) }},
		{key: knn.Key, build: func() pipeline.Classifier { return knn.New(knn.DefaultTrainOptions()) }},
	}
	if s.opts.EnableGBM {
		out = append(out, candidate{key: gbm.Key, build: func() pipeline.Classifier { return gbm.New(gbm.DefaultTrainOptions()) }})
	}
	return out
}

// Train fits all candidates and returns the winning bundle.
func (s *Service) Train(ctx context.Context, ds dataset.Dataset) (*bundle.ModelBundle, error) {
	_, span := s.tracer.Start(ctx, "trainingService.Train")
	defer span.End()

	x, y := labeledRows(ds)
	labels := features.SortedLabels(y)
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: need at least two risk levels, got %d", domain.ErrTrainingData, len(labels))
	}

	trainIdx, testIdx, err := stratifiedSplit(y, s.opts.TestFraction, s.opts.Seed)
	if err != nil {
		return nil, err
	}
	xTrain, yTrain := take(x, y, trainIdx)
	xTest, yTest := take(x, y, testIdx)

	ranked := ranking.Rank(xTrain, yTrain, features.Names)

	var (
		best       *pipeline.Pipeline
		bestKey    string
		bestScore  float64
		bestReport bundle.CandidateReport
	)
	allMetrics := make(map[string]bundle.CandidateReport)
	for _, cand := range s.candidates() {
		scaler, err := pipeline.NewScaler(s.opts.ScalerKind)
		if err != nil {
			return nil, err
		}
		p := pipeline.New(scaler, pipeline.NewTopKSelector(s.opts.TopK), cand.build())
		if err := p.Fit(xTrain, yTrain, features.Names); err != nil {
			return nil, fmt.Errorf("train %s: %w", cand.key, err)
		}

		yPred := make([]string, len(xTest))
		for i, row := range xTest {
			label, _, err := p.Predict(row)
			if err != nil {
				return nil, fmt.Errorf("evaluate %s: %w", cand.key, err)
			}
			yPred[i] = label
		}
		metrics := evaluate.Evaluate(yTest, yPred)
		report := bundle.CandidateReport{
			Metrics:   metrics,
			Confusion: evaluate.BuildConfusion(yTest, yPred, labels),
		}
		allMetrics[cand.key] = report
		log.Printf("candidate %s: accuracy=%.4f f1_weighted=%.4f", cand.key, metrics.Accuracy, metrics.F1Weighted)

		score := s.opts.Policy(metrics)
		if best == nil || score > bestScore {
			best = p
			bestKey = cand.key
			bestScore = score
			bestReport = report
		}
	}

	log.Printf("selected model %s (score=%.4f)", bestKey, bestScore)
	return &bundle.ModelBundle{
		Pipeline:         best,
		BestModel:        bestKey,
		Metrics:          bestReport.Metrics,
		Confusion:        bestReport.Confusion,
		AllMetrics:       allMetrics,
		Ranking:          ranked,
		FeatureOrder:     append([]string(nil), features.Names...),
		SelectedFeatures: best.SelectedFeatures(),
		TrainedAt:        s.now().UTC(),
	}, nil
}

// labeledRows drops unlabeled rows; only labeled data can train or score.
func labeledRows(ds dataset.Dataset) ([][]float64, []string) {
	x := make([][]float64, 0, ds.Len())
	y := make([]string, 0, ds.Len())
	for _, row := range ds.Rows {
		if row.Label == "" {
			continue
		}
		x = append(x, row.Features.Values())
		y = append(y, row.Label)
	}
	return x, y
}

// stratifiedSplit shuffles each class independently with the shared seed and
// reserves the tail of every class for the test set. Every class keeps at
// least one training row and at least one test row.
func stratifiedSplit(y []string, testFraction float64, seed int64) (train, test []int, err error) {
	byClass := make(map[string][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for ci, label := range features.SortedLabels(y) {
		idx := byClass[label]
		if len(idx) < 2 {
			return nil, nil, fmt.Errorf("%w: class %q has %d rows, need at least 2", domain.ErrTrainingData, label, len(idx))
		}
		rng := rand.New(rand.NewSource(seed + int64(ci)))
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		nTest := int(float64(len(idx)) * testFraction)
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		test = append(test, idx[len(idx)-nTest:]...)
		train = append(train, idx[:len(idx)-nTest]...)
	}
	return train, test, nil
}

func take(x [][]float64, y []string, idx []int) ([][]float64, []string) {
	xs := make([][]float64, len(idx))
	ys := make([]string, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
