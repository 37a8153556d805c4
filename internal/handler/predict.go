package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

// Predict godoc
// @Summary      Predict academic risk for one student
// @Description  Scores the six academic indicators and returns risk level, score, probabilities and recommendations
// @Tags         prediction
// @Accept       json
// @Produce      json
// @Param        payload  body      map[string]interface{}  true  "Academic indicators"
// @Success      200  {object}  domain.PredictionResult
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/predict [post]
func (h *Handler) Predict(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.predict")
	defer span.End()

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cuerpo JSON inválido"})
		return
	}

	// Range validation happens here, at the boundary. The engine itself
	// accepts any payload and coerces leniently.
	if err := features.Validate(features.FromPayload(payload)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.Predict(ctx, payload)
	if errors.Is(err, domain.ErrModelUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.recordPrediction(c, payload, result)
	c.JSON(http.StatusOK, result)
}

// recordPrediction persists the history entry best-effort; a storage failure
// must not fail the prediction response.
func (h *Handler) recordPrediction(c *gin.Context, payload map[string]any, result domain.PredictionResult) {
	if h.predictions == nil {
		return
	}
	v := features.FromPayload(payload)
	rec := &domain.PredictionRecord{
		Promedio:     v.Promedio,
		Asistencia:   v.Asistencia,
		HorasEstudio: v.HorasEstudio,
		Tendencia:    v.Tendencia,
		Puntualidad:  v.Puntualidad,
		Habitos:      v.Habitos,
		Riesgo:       result.Riesgo,
		Score:        result.Score,
		Modelo:       result.Modelo,
	}
	if id, ok := c.Get("user_id"); ok {
		if userID, ok := id.(int64); ok {
			rec.UserID = userID
		}
	}
	if err := h.predictions.Insert(c.Request.Context(), rec); err != nil {
		log.Println("failed to persist prediction:", err)
	}
}

// PredictionHistory godoc
// @Summary      List recent predictions
// @Tags         prediction
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/predictions [get]
func (h *Handler) PredictionHistory(c *gin.Context) {
	if h.predictions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "historial no disponible"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.prediction-history")
	defer span.End()

	records, err := h.predictions.History(ctx, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"predicciones": records, "total": len(records)})
}
