package domain

import (
	"errors"
	"time"
)

type RiskLevel string

const (
	RiskBajo  RiskLevel = "bajo"
	RiskMedio RiskLevel = "medio"
	RiskAlto  RiskLevel = "alto"
)

func (r RiskLevel) IsValid() bool {
	return r == RiskBajo || r == RiskMedio || r == RiskAlto
}

// ErrModelUnavailable is returned by predict when no trained bundle is loaded.
var ErrModelUnavailable = errors.New("modelo no disponible")

// ErrTrainingData is returned when a dataset cannot be trained on
// (fewer than two label classes, or too few rows for a stratified split).
var ErrTrainingData = errors.New("invalid training dataset")

// StudentRow is one labeled academic record as stored by the web system.
// Riesgo may be empty for rows that were never labeled.
type StudentRow struct {
	ID           int64     `json:"id"`
	Promedio     float64   `json:"promedio"`
	Asistencia   float64   `json:"asistencia"`
	HorasEstudio float64   `json:"horas_estudio"`
	Tendencia    float64   `json:"tendencia"`
	Puntualidad  float64   `json:"puntualidad"`
	Habitos      float64   `json:"habitos"`
	Riesgo       string    `json:"riesgo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Payload flattens the row into the shape the dataset preparer unifies.
func (s StudentRow) Payload() map[string]any {
	p := map[string]any{
		"promedio":      s.Promedio,
		"asistencia":    s.Asistencia,
		"horas_estudio": s.HorasEstudio,
		"tendencia":     s.Tendencia,
		"puntualidad":   s.Puntualidad,
		"habitos":       s.Habitos,
	}
	if s.Riesgo != "" {
		p["riesgo"] = s.Riesgo
	}
	return p
}

// PredictionResult is what the inference engine hands back to callers.
// It is derived output; persisting it is the repository layer's concern.
type PredictionResult struct {
	Riesgo          RiskLevel          `json:"riesgo"`
	Score           float64            `json:"score"`
	Probabilidades  map[string]float64 `json:"probabilidades"`
	Modelo          string             `json:"modelo"`
	Recomendaciones []string           `json:"recomendaciones"`
}

// PredictionRecord is the persisted history entry for one prediction.
type PredictionRecord struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id,omitempty"`
	Promedio     float64   `json:"promedio"`
	Asistencia   float64   `json:"asistencia"`
	HorasEstudio float64   `json:"horas_estudio"`
	Tendencia    float64   `json:"tendencia"`
	Puntualidad  float64   `json:"puntualidad"`
	Habitos      float64   `json:"habitos"`
	Riesgo       RiskLevel `json:"riesgo"`
	Score        float64   `json:"score"`
	Modelo       string    `json:"modelo"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is an authenticated account of the web system.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Nombre       string    `json:"nombre"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SSHUser is an account allowed to open the SSH metrics dashboard.
type SSHUser struct {
	ID          int64
	Username    string
	Fingerprint string
	LastLogin   *time.Time
}

// RiskStats aggregates prediction history for the dashboard.
type RiskStats struct {
	Total      int64            `json:"total"`
	PorNivel   map[string]int64 `json:"por_nivel"`
	ScoreMedio float64          `json:"score_medio"`
}
