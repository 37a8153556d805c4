package repository

import (
	"context"
	"errors"
	"time"

	"academic-compass/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const createSSHUsersTable = `
CREATE TABLE IF NOT EXISTS ssh_users (
    id          BIGSERIAL   PRIMARY KEY,
    username    TEXT        NOT NULL,
    fingerprint TEXT        NOT NULL UNIQUE,
    last_login  TIMESTAMPTZ
);
`

// SSHUserRepository stores the public-key fingerprints allowed to open the
// terminal dashboard.
type SSHUserRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSSHUserRepository(pool PgxPool, tracer trace.Tracer) *SSHUserRepository {
	return &SSHUserRepository{pool: pool, tracer: tracer}
}

func (r *SSHUserRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSSHUsersTable)
	return err
}

func (r *SSHUserRepository) ByFingerprint(ctx context.Context, fingerprint string) (*domain.SSHUser, error) {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.by-fingerprint")
	defer span.End()

	u := &domain.SSHUser{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, fingerprint, last_login
		 FROM ssh_users
		 WHERE fingerprint = $1`,
		fingerprint,
	).Scan(&u.ID, &u.Username, &u.Fingerprint, &u.LastLogin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *SSHUserRepository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	_, span := r.tracer.Start(ctx, "ssh-user-repo.touch-login")
	defer span.End()

	_, err := r.pool.Exec(ctx, `UPDATE ssh_users SET last_login = $2 WHERE id = $1`, id, at)
	return err
}
