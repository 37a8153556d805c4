package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/auth"
	"academic-compass/internal/cache"
	"academic-compass/internal/domain"
	"academic-compass/internal/etl"
	"academic-compass/internal/ml/bundle"
	"academic-compass/internal/ml/engine"
	"academic-compass/internal/ml/features"
)

// ModelEngine is the inference surface the HTTP layer drives.
type ModelEngine interface {
	Predict(ctx context.Context, payload map[string]any) (domain.PredictionResult, error)
	LoadOrTrain(ctx context.Context, force bool) (*bundle.ModelBundle, error)
	Report(ctx context.Context) (engine.Report, error)
}

type StudentStore interface {
	Insert(ctx context.Context, s *domain.StudentRow) error
	InsertBatch(ctx context.Context, rows []*domain.StudentRow) error
	List(ctx context.Context, limit int) ([]*domain.StudentRow, error)
}

type PredictionStore interface {
	Insert(ctx context.Context, p *domain.PredictionRecord) error
	History(ctx context.Context, limit int) ([]*domain.PredictionRecord, error)
	Stats(ctx context.Context) (domain.RiskStats, error)
}

// Explainer produces a tutoring narrative for a prediction. Optional; a nil
// explainer disables the advisor endpoint.
type Explainer interface {
	Explain(ctx context.Context, result domain.PredictionResult, v features.Vector) (string, error)
}

type Handler struct {
	tracer      trace.Tracer
	engine      ModelEngine
	students    StudentStore
	predictions PredictionStore
	authService *auth.Service
	importer    *etl.Importer
	reports     *cache.ReportCache
	explainer   Explainer
}

func New(tracer trace.Tracer, eng ModelEngine, students StudentStore, predictions PredictionStore, authService *auth.Service, importer *etl.Importer, reports *cache.ReportCache, explainer Explainer) *Handler {
	return &Handler{
		tracer:      tracer,
		engine:      eng,
		students:    students,
		predictions: predictions,
		authService: authService,
		importer:    importer,
		reports:     reports,
		explainer:   explainer,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey), SessionAuth(h))
	api.POST("/predict", h.Predict)
	api.GET("/model/metrics", h.ModelMetrics)
	api.POST("/model/retrain", h.RetrainModel)
	api.GET("/stats", h.Stats)
	api.GET("/predictions", h.PredictionHistory)
	api.GET("/students", h.ListStudents)
	api.POST("/students", h.CreateStudent)
	api.POST("/etl/import", h.ImportCSV)
	api.POST("/advisor/explain", h.ExplainPrediction)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
}
