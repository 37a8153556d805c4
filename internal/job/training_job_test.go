package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/cache"
	"academic-compass/internal/ml/bundle"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type retrainerStub struct {
	calls int
	err   error
}

func (s *retrainerStub) LoadOrTrain(context.Context, bool) (*bundle.ModelBundle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &bundle.ModelBundle{BestModel: "knn"}, nil
}

func TestNextRunUTC(t *testing.T) {
	now := time.Date(2025, 6, 1, 2, 30, 0, 0, time.UTC)
	next := nextRunUTC(now, 3)
	if next != time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC) {
		t.Fatalf("expected same-day run, got %v", next)
	}

	now = time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	next = nextRunUTC(now, 3)
	if next != time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC) {
		t.Fatalf("run at the exact hour should schedule tomorrow, got %v", next)
	}

	now = time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	next = nextRunUTC(now, 3)
	if next != time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC) {
		t.Fatalf("expected next-day run, got %v", next)
	}
}

func TestNewTrainingJobClampsHour(t *testing.T) {
	j := NewTrainingJob(testTracer, &retrainerStub{}, cache.NewReportCache(nil), 99)
	if j.trainHour != 0 {
		t.Fatalf("invalid hour should clamp to 0, got %d", j.trainHour)
	}
}

func TestRunOnceForcesRetrain(t *testing.T) {
	stub := &retrainerStub{}
	j := NewTrainingJob(testTracer, stub, cache.NewReportCache(nil), 3)
	j.runOnce(context.Background())
	if stub.calls != 1 {
		t.Fatalf("expected one training call, got %d", stub.calls)
	}
}

func TestRunOnceSurvivesTrainingError(t *testing.T) {
	stub := &retrainerStub{err: errors.New("boom")}
	j := NewTrainingJob(testTracer, stub, cache.NewReportCache(nil), 3)
	j.runOnce(context.Background())
	if stub.calls != 1 {
		t.Fatalf("expected one training call, got %d", stub.calls)
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	j := NewTrainingJob(testTracer, nil, cache.NewReportCache(nil), 3)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop on context cancel")
	}
}
