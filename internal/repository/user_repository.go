package repository

import (
	"context"
	"errors"

	"academic-compass/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

// ErrUserNotFound keeps pgx.ErrNoRows out of callers.
var ErrUserNotFound = errors.New("user not found")

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL   PRIMARY KEY,
    email         TEXT        NOT NULL UNIQUE,
    nombre        TEXT        NOT NULL,
    role          TEXT        NOT NULL DEFAULT 'docente',
    password_hash TEXT        NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type UserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewUserRepository(pool PgxPool, tracer trace.Tracer) *UserRepository {
	return &UserRepository{pool: pool, tracer: tracer}
}

func (r *UserRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "user-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createUsersTable)
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, span := r.tracer.Start(ctx, "user-repo.create")
	defer span.End()

	return r.pool.QueryRow(ctx,
		`INSERT INTO users (email, nombre, role, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		u.Email, u.Nombre, u.Role, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	_, span := r.tracer.Start(ctx, "user-repo.by-email")
	defer span.End()

	u := &domain.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, nombre, role, password_hash, created_at
		 FROM users
		 WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Nombre, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
