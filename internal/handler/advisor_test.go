package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"academic-compass/internal/cache"
	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

type explainerStub struct {
	narrative string
	err       error
	lastRisk  domain.RiskLevel
}

func (s *explainerStub) Explain(_ context.Context, result domain.PredictionResult, _ features.Vector) (string, error) {
	s.lastRisk = result.Riesgo
	return s.narrative, s.err
}

func newAdvisorRouter(eng ModelEngine, explainer Explainer) *gin.Engine {
	tracer := trace.NewNoopTracerProvider().Tracer("handler-test")
	h := New(tracer, eng, nil, nil, nil, nil, cache.NewReportCache(nil), explainer)
	router := gin.New()
	h.RegisterRoutes(router, "")
	return router
}

func TestExplainPrediction(t *testing.T) {
	eng := &engineStub{result: domain.PredictionResult{
		Riesgo: domain.RiskMedio,
		Score:  64.2,
		Modelo: "knn",
	}}
	explainer := &explainerStub{narrative: "El estudiante muestra señales mixtas."}
	router := newAdvisorRouter(eng, explainer)

	body := `{"promedio": 7.2, "asistencia": 80, "horas_estudio": 8, "tendencia": -0.3, "puntualidad": 85, "habitos": 6}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/advisor/explain", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Explicacion string                  `json:"explicacion"`
		Prediccion  domain.PredictionResult `json:"prediccion"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if res.Explicacion != explainer.narrative {
		t.Fatalf("unexpected narrative: %q", res.Explicacion)
	}
	if res.Prediccion.Riesgo != domain.RiskMedio {
		t.Fatalf("unexpected prediction: %+v", res.Prediccion)
	}
	if explainer.lastRisk != domain.RiskMedio {
		t.Fatal("explainer must receive the prediction result")
	}
}

func TestExplainPredictionWithoutAdvisor(t *testing.T) {
	router := newAdvisorRouter(&engineStub{}, nil)

	body := `{"promedio": 7.2, "asistencia": 80, "horas_estudio": 8, "tendencia": -0.3, "puntualidad": 85, "habitos": 6}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/advisor/explain", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without advisor, got %d", w.Code)
	}
}
