package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-compass/internal/domain"
	"academic-compass/internal/ml/features"
)

type studentRequest struct {
	Promedio     float64 `json:"promedio"`
	Asistencia   float64 `json:"asistencia"`
	HorasEstudio float64 `json:"horas_estudio"`
	Tendencia    float64 `json:"tendencia"`
	Puntualidad  float64 `json:"puntualidad"`
	Habitos      float64 `json:"habitos"`
	Riesgo       string  `json:"riesgo"`
}

// CreateStudent godoc
// @Summary      Store one labeled academic record
// @Tags         students
// @Accept       json
// @Produce      json
// @Param        student  body      studentRequest  true  "Academic record"
// @Success      201  {object}  domain.StudentRow
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/students [post]
func (h *Handler) CreateStudent(c *gin.Context) {
	if h.students == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "almacenamiento no disponible"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.create-student")
	defer span.End()

	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cuerpo JSON inválido"})
		return
	}
	v := features.Vector{
		Promedio:     req.Promedio,
		Asistencia:   req.Asistencia,
		HorasEstudio: req.HorasEstudio,
		Tendencia:    req.Tendencia,
		Puntualidad:  req.Puntualidad,
		Habitos:      req.Habitos,
	}
	if err := features.Validate(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Riesgo != "" && !domain.RiskLevel(req.Riesgo).IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "riesgo debe ser bajo, medio o alto"})
		return
	}

	row := &domain.StudentRow{
		Promedio:     req.Promedio,
		Asistencia:   req.Asistencia,
		HorasEstudio: req.HorasEstudio,
		Tendencia:    req.Tendencia,
		Puntualidad:  req.Puntualidad,
		Habitos:      req.Habitos,
		Riesgo:       req.Riesgo,
	}
	if err := h.students.Insert(ctx, row); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, row)
}

// ListStudents godoc
// @Summary      List stored academic records
// @Tags         students
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/students [get]
func (h *Handler) ListStudents(c *gin.Context) {
	if h.students == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "almacenamiento no disponible"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list-students")
	defer span.End()

	rows, err := h.students.List(ctx, 200)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"estudiantes": rows, "total": len(rows)})
}

// Stats godoc
// @Summary      Aggregated prediction statistics
// @Tags         stats
// @Produce      json
// @Success      200  {object}  domain.RiskStats
// @Failure      503  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	if h.predictions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "estadísticas no disponibles"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.stats")
	defer span.End()

	stats, err := h.predictions.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
