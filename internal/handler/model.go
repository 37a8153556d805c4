package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-compass/internal/domain"
)

// ModelMetrics godoc
// @Summary      Current model report
// @Description  Returns the winning model, its metrics, the per-candidate comparison and the feature ranking
// @Tags         model
// @Produce      json
// @Success      200  {object}  engine.Report
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/model/metrics [get]
func (h *Handler) ModelMetrics(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.model-metrics")
	defer span.End()

	if report, ok := h.reports.Get(ctx); ok {
		c.JSON(http.StatusOK, report)
		return
	}

	report, err := h.engine.Report(ctx)
	if errors.Is(err, domain.ErrModelUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reports.Set(ctx, report)
	c.JSON(http.StatusOK, report)
}

// RetrainModel godoc
// @Summary      Force a model retrain
// @Description  Rebuilds the dataset, retrains every candidate and swaps in the winner
// @Tags         model
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/model/retrain [post]
func (h *Handler) RetrainModel(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.retrain-model")
	defer span.End()

	b, err := h.engine.LoadOrTrain(ctx, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.reports.Invalidate(ctx)
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"best_model":        b.BestModel,
		"metrics":           b.Metrics,
		"selected_features": b.SelectedFeatures,
		"trained_at":        b.TrainedAt,
	})
}
