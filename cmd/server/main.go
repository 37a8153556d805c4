package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"academic-compass/internal/advisor"
	"academic-compass/internal/auth"
	"academic-compass/internal/bot"
	"academic-compass/internal/cache"
	"academic-compass/internal/config"
	"academic-compass/internal/db"
	"academic-compass/internal/etl"
	"academic-compass/internal/handler"
	"academic-compass/internal/job"
	"academic-compass/internal/ml/bundle"
	"academic-compass/internal/ml/dataset"
	"academic-compass/internal/ml/engine"
	"academic-compass/internal/ml/training"
	"academic-compass/internal/repository"
	"academic-compass/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "academic-compass/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newEngineFunc        = engine.New
	bootstrapModelFunc   = func(eng *engine.Engine, ctx context.Context) { go warmupModel(eng, ctx) }
	startTrainingJobFunc = func(j *job.TrainingJob, ctx context.Context) { go j.Start(ctx) }
	startTelegramBotFunc = bot.StartTelegramBot
	newRouterFunc        = gin.Default
	setupSignalNotify    = signal.Notify
	waitForSignalFunc    = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc  = func(srv *http.Server) error { return srv.ListenAndServe() }
	stopHTTPServerFunc   = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func warmupModel(eng *engine.Engine, ctx context.Context) {
	if _, err := eng.LoadOrTrain(ctx, false); err != nil {
		log.Printf("initial model bootstrap failed: %v", err)
	}
}

// @title           Academic Compass API
// @version         1.0
// @description     Motor de predicción de riesgo académico estudiantil.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories; migrations only when a database is configured
	studentRepo := repository.NewStudentRepository(db.Pool, tracer)
	predictionRepo := repository.NewPredictionRepository(db.Pool, tracer)
	userRepo := repository.NewUserRepository(db.Pool, tracer)
	if db.Pool != nil {
		if err := studentRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	// Model engine: persisted bundle store + candidate trainer
	store := bundle.NewStore(cfg.ModelPath, tracer)
	trainer := training.NewService(tracer, training.Options{
		Seed:       cfg.Seed,
		ScalerKind: cfg.ScalerKind,
		EnableGBM:  cfg.EnableGBM,
	})

	var source engine.StudentSource
	if db.Pool != nil {
		source = studentRepo
	}
	eng := newEngineFunc(tracer, store, trainer, source, cfg.DatasetCSVPaths, dataset.Options{
		SyntheticSamples: cfg.SyntheticSamples,
		Seed:             cfg.Seed,
		SyntheticIfEmpty: true,
	})
	bootstrapModelFunc(eng, ctx)

	// Nightly retrain (background goroutine, stopped by ctx cancel)
	reports := cache.NewReportCache(cache.Client)
	trainingJob := job.NewTrainingJob(tracer, eng, reports, cfg.TrainHourUTC)
	startTrainingJobFunc(trainingJob, ctx)

	// Start Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(eng)

	// Advisor (optional)
	var explainer handler.Explainer
	if cfg.OpenAIAPIKey != "" {
		llmClient := advisor.NewOpenAIClient(cfg.OpenAIAPIKey)
		explainer = advisor.NewAdvisorService(tracer, llmClient, cfg.OpenAIModel)
		log.Println("advisor service enabled")
	}

	// Auth, ETL and handlers; stores stay nil without a database so the
	// affected endpoints answer 503 instead of panicking
	var students handler.StudentStore
	var predictions handler.PredictionStore
	var authService *auth.Service
	if db.Pool != nil {
		students = studentRepo
		predictions = predictionRepo
		sessions := cache.NewSessionStore(cache.Client)
		authService = auth.NewService(tracer, userRepo, sessions)
	}
	importer := etl.NewImporter(tracer)
	h := handler.New(tracer, eng, students, predictions, authService, importer, reports, explainer)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("academic-compass"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := stopHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
