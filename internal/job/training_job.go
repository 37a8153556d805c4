package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/cache"
	"academic-compass/internal/ml/bundle"
)

type Retrainer interface {
	LoadOrTrain(ctx context.Context, force bool) (*bundle.ModelBundle, error)
}

// TrainingJob retrains the model once a day at a fixed UTC hour so the live
// bundle keeps up with newly stored student rows.
type TrainingJob struct {
	tracer    trace.Tracer
	engine    Retrainer
	reports   *cache.ReportCache
	trainHour int
}

func NewTrainingJob(tracer trace.Tracer, engine Retrainer, reports *cache.ReportCache, trainHourUTC int) *TrainingJob {
	if trainHourUTC < 0 || trainHourUTC > 23 {
		trainHourUTC = 0
	}
	return &TrainingJob{tracer: tracer, engine: engine, reports: reports, trainHour: trainHourUTC}
}

func (j *TrainingJob) Start(ctx context.Context) {
	if j.engine == nil {
		log.Println("training job disabled: no engine")
		<-ctx.Done()
		return
	}
	for {
		next := nextRunUTC(time.Now().UTC(), j.trainHour)
		wait := time.Until(next)
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *TrainingJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "training-job.run-once")
	defer span.End()

	b, err := j.engine.LoadOrTrain(ctx, true)
	if err != nil {
		log.Printf("scheduled training error: %v", err)
		return
	}
	j.reports.Invalidate(ctx)
	log.Printf("scheduled training done model=%s accuracy=%.4f f1=%.4f", b.BestModel, b.Metrics.Accuracy, b.Metrics.F1Weighted)
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
