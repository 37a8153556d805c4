package auth

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"academic-compass/internal/domain"
	"academic-compass/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrWeakPassword       = errors.New("la contraseña debe tener al menos 8 caracteres")
	ErrEmailTaken         = errors.New("el correo ya está registrado")
)

const DefaultRole = "docente"

type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	ByEmail(ctx context.Context, email string) (*domain.User, error)
}

type Sessions interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, token string) (int64, bool)
}

type Service struct {
	tracer   trace.Tracer
	users    UserStore
	sessions Sessions
}

func NewService(tracer trace.Tracer, users UserStore, sessions Sessions) *Service {
	return &Service{tracer: tracer, users: users, sessions: sessions}
}

func (s *Service) Register(ctx context.Context, email, nombre, password string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidCredentials
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if existing, err := s.users.ByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        email,
		Nombre:       strings.TrimSpace(nombre),
		Role:         DefaultRole,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies the password and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Authenticate resolves a bearer token to a user ID.
func (s *Service) Authenticate(ctx context.Context, token string) (int64, bool) {
	if s == nil || s.sessions == nil {
		return 0, false
	}
	return s.sessions.Resolve(ctx, token)
}
