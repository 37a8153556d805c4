package repository

import (
	"context"

	"academic-compass/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const createPredictionsTable = `
CREATE TABLE IF NOT EXISTS predictions (
    id            BIGSERIAL   PRIMARY KEY,
    user_id       BIGINT,
    promedio      NUMERIC     NOT NULL,
    asistencia    NUMERIC     NOT NULL,
    horas_estudio NUMERIC     NOT NULL,
    tendencia     NUMERIC     NOT NULL,
    puntualidad   NUMERIC     NOT NULL,
    habitos       NUMERIC     NOT NULL,
    riesgo        TEXT        NOT NULL,
    score         NUMERIC     NOT NULL,
    modelo        TEXT        NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at DESC);
`

type PredictionRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPredictionRepository(pool PgxPool, tracer trace.Tracer) *PredictionRepository {
	return &PredictionRepository{pool: pool, tracer: tracer}
}

func (r *PredictionRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "prediction-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createPredictionsTable)
	return err
}

func (r *PredictionRepository) Insert(ctx context.Context, p *domain.PredictionRecord) error {
	_, span := r.tracer.Start(ctx, "prediction-repo.insert")
	defer span.End()

	return r.pool.QueryRow(ctx,
		`INSERT INTO predictions (user_id, promedio, asistencia, horas_estudio, tendencia, puntualidad, habitos, riesgo, score, modelo)
		 VALUES (NULLIF($1, 0), $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		p.UserID, p.Promedio, p.Asistencia, p.HorasEstudio, p.Tendencia, p.Puntualidad, p.Habitos, string(p.Riesgo), p.Score, p.Modelo,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *PredictionRepository) History(ctx context.Context, limit int) ([]*domain.PredictionRecord, error) {
	_, span := r.tracer.Start(ctx, "prediction-repo.history")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, COALESCE(user_id, 0), promedio, asistencia, horas_estudio, tendencia, puntualidad, habitos, riesgo, score, modelo, created_at
		 FROM predictions
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.PredictionRecord
	for rows.Next() {
		p := &domain.PredictionRecord{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Promedio, &p.Asistencia, &p.HorasEstudio, &p.Tendencia, &p.Puntualidad, &p.Habitos, &p.Riesgo, &p.Score, &p.Modelo, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Stats aggregates prediction history for the dashboard and the SSH TUI.
func (r *PredictionRepository) Stats(ctx context.Context) (domain.RiskStats, error) {
	_, span := r.tracer.Start(ctx, "prediction-repo.stats")
	defer span.End()

	stats := domain.RiskStats{PorNivel: make(map[string]int64, 3)}
	rows, err := r.pool.Query(ctx,
		`SELECT riesgo, COUNT(*), COALESCE(AVG(score), 0)
		 FROM predictions
		 GROUP BY riesgo`,
	)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	var weighted float64
	for rows.Next() {
		var riesgo string
		var count int64
		var avg float64
		if err := rows.Scan(&riesgo, &count, &avg); err != nil {
			return stats, err
		}
		stats.PorNivel[riesgo] = count
		stats.Total += count
		weighted += avg * float64(count)
	}
	if stats.Total > 0 {
		stats.ScoreMedio = weighted / float64(stats.Total)
	}
	return stats, rows.Err()
}
