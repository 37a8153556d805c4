package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ImportCSV godoc
// @Summary      Import an institutional CSV export
// @Description  Maps aliased columns onto the feature contract and stores the rows
// @Tags         etl
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV export"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/etl/import [post]
func (h *Handler) ImportCSV(c *gin.Context) {
	if h.students == nil || h.importer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "importación no disponible"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.import-csv")
	defer span.End()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "falta el archivo CSV"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	rows, err := h.importer.Import(ctx, f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.students.InsertBatch(ctx, rows); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// New rows change the training set; retrain in the background so the
	// import response does not wait on it.
	h.reports.Invalidate(ctx)
	go func() {
		if _, err := h.engine.LoadOrTrain(context.Background(), true); err != nil {
			log.Println("retrain after import failed:", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{"status": "ok", "importados": len(rows)})
}
