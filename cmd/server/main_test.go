package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"academic-compass/internal/config"
	"academic-compass/internal/job"
	"academic-compass/internal/ml/bundle"
	"academic-compass/internal/ml/dataset"
	"academic-compass/internal/ml/engine"
	"academic-compass/internal/ml/training"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps(t)
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func stubServerDeps(t *testing.T) func() {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origBootstrap := bootstrapModelFunc
	origStartJob := startTrainingJobFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origStopHTTP := stopHTTPServerFunc

	modelPath := t.TempDir() + "/best_model.json"

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			ModelPath:        modelPath,
			SyntheticSamples: 80,
			Seed:             42,
			TrainHourUTC:     3,
			HTTPPort:         8080,
		}
	}
	initPostgresFunc = func(context.Context, string) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	bootstrapModelFunc = func(*engine.Engine, context.Context) {}
	startTrainingJobFunc = func(*job.TrainingJob, context.Context) {}
	startTelegramBotFunc = func(*engine.Engine) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	stopHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		bootstrapModelFunc = origBootstrap
		startTrainingJobFunc = origStartJob
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		stopHTTPServerFunc = origStopHTTP
	}
}

func TestWarmupModelTrainsFromSynthetic(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	tracer := tp.Tracer("test")

	store := bundle.NewStore(t.TempDir()+"/best_model.json", tracer)
	trainer := training.NewService(tracer, training.Options{Seed: 42})
	eng := engine.New(tracer, store, trainer, nil, nil, dataset.Options{
		SyntheticSamples: 80,
		Seed:             42,
		SyntheticIfEmpty: true,
	})

	warmupModel(eng, context.Background())

	if eng.Current() == nil {
		t.Fatal("expected a trained bundle after warmup")
	}
}
