package repository

import (
	"context"

	"academic-compass/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createStudentsTable = `
CREATE TABLE IF NOT EXISTS students (
    id            BIGSERIAL   PRIMARY KEY,
    promedio      NUMERIC     NOT NULL,
    asistencia    NUMERIC     NOT NULL,
    horas_estudio NUMERIC     NOT NULL,
    tendencia     NUMERIC     NOT NULL,
    puntualidad   NUMERIC     NOT NULL,
    habitos       NUMERIC     NOT NULL,
    riesgo        TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_students_riesgo ON students (riesgo);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type StudentRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewStudentRepository(pool PgxPool, tracer trace.Tracer) *StudentRepository {
	return &StudentRepository{pool: pool, tracer: tracer}
}

func (r *StudentRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "student-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createStudentsTable)
	return err
}

func (r *StudentRepository) Insert(ctx context.Context, s *domain.StudentRow) error {
	_, span := r.tracer.Start(ctx, "student-repo.insert")
	defer span.End()

	return r.pool.QueryRow(ctx,
		`INSERT INTO students (promedio, asistencia, horas_estudio, tendencia, puntualidad, habitos, riesgo)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		 RETURNING id, created_at`,
		s.Promedio, s.Asistencia, s.HorasEstudio, s.Tendencia, s.Puntualidad, s.Habitos, s.Riesgo,
	).Scan(&s.ID, &s.CreatedAt)
}

// InsertBatch stores imported ETL rows in one round trip.
func (r *StudentRepository) InsertBatch(ctx context.Context, rows []*domain.StudentRow) error {
	if len(rows) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "student-repo.insert-batch")
	defer span.End()

	batch := &pgx.Batch{}
	for _, s := range rows {
		batch.Queue(
			`INSERT INTO students (promedio, asistencia, horas_estudio, tendencia, puntualidad, habitos, riesgo)
			 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`,
			s.Promedio, s.Asistencia, s.HorasEstudio, s.Tendencia, s.Puntualidad, s.Habitos, s.Riesgo,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *StudentRepository) List(ctx context.Context, limit int) ([]*domain.StudentRow, error) {
	_, span := r.tracer.Start(ctx, "student-repo.list")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, promedio, asistencia, horas_estudio, tendencia, puntualidad, habitos, COALESCE(riesgo, ''), created_at
		 FROM students
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.StudentRow
	for rows.Next() {
		s := &domain.StudentRow{}
		if err := rows.Scan(&s.ID, &s.Promedio, &s.Asistencia, &s.HorasEstudio, &s.Tendencia, &s.Puntualidad, &s.Habitos, &s.Riesgo, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TrainingPayloads feeds the engine: every labeled student row flattened
// into the payload shape the dataset preparer unifies.
func (r *StudentRepository) TrainingPayloads(ctx context.Context) ([]map[string]any, error) {
	_, span := r.tracer.Start(ctx, "student-repo.training-payloads")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT promedio, asistencia, horas_estudio, tendencia, puntualidad, habitos, riesgo
		 FROM students
		 WHERE riesgo IS NOT NULL AND riesgo <> ''`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		s := domain.StudentRow{}
		if err := rows.Scan(&s.Promedio, &s.Asistencia, &s.HorasEstudio, &s.Tendencia, &s.Puntualidad, &s.Habitos, &s.Riesgo); err != nil {
			return nil, err
		}
		out = append(out, s.Payload())
	}
	return out, rows.Err()
}
