package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

// ExplainPrediction godoc
// @Summary      Predict and explain academic risk with an LLM narrative
// @Description  Runs a prediction and asks the advisor for a short tutoring narrative grounded in it
// @Tags         advisor
// @Accept       json
// @Produce      json
// @Param        payload  body      map[string]interface{}  true  "Academic indicators"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/advisor/explain [post]
func (h *Handler) ExplainPrediction(c *gin.Context) {
	if h.explainer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "asesor no disponible"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.explain-prediction")
	defer span.End()

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cuerpo JSON inválido"})
		return
	}

	v := features.FromPayload(payload)
	if err := features.Validate(v); err != nil {
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

	narrative, err := h.explainer.Explain(ctx, result, v)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prediccion": result, "explicacion": narrative})
}
