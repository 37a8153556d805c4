package main

import (
	"context"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"academic-compass/internal/cache"
	"academic-compass/internal/config"
	"academic-compass/internal/db"
	"academic-compass/internal/domain"
	"academic-compass/internal/ml/bundle"
	"academic-compass/internal/ml/dataset"
	"academic-compass/internal/ml/engine"
	"academic-compass/internal/ml/training"
	"academic-compass/internal/repository"
	"academic-compass/internal/tui"
	"academic-compass/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

// ctxKey is a typed context key to avoid collisions.
type ctxKey string

const sshUserKey ctxKey = "ssh_user"

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initPostgresFunc   = db.InitPostgres
	initRedisFunc      = cache.InitRedis
	initTracerFunc     = tracing.InitTracer
	newSSHUserRepoFunc = repository.NewSSHUserRepository
	newEngineFunc      = engine.New
	bootstrapModelFunc = func(eng *engine.Engine, ctx context.Context) {
		go func() {
			if _, err := eng.LoadOrTrain(ctx, false); err != nil {
				log.Printf("model bootstrap failed: %v", err)
			}
		}()
	}
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories
	studentRepo := repository.NewStudentRepository(db.Pool, tracer)
	predictionRepo := repository.NewPredictionRepository(db.Pool, tracer)
	sshUserRepo := newSSHUserRepoFunc(db.Pool, tracer)

	// Model engine backed by the same persisted bundle as the HTTP server
	store := bundle.NewStore(cfg.ModelPath, tracer)
	trainer := training.NewService(tracer, training.Options{
		Seed:       cfg.Seed,
		ScalerKind: cfg.ScalerKind,
		EnableGBM:  cfg.EnableGBM,
	})
	var source engine.StudentSource
	if db.Pool != nil {
		source = studentRepo
	}
	eng := newEngineFunc(tracer, store, trainer, source, cfg.DatasetCSVPaths, dataset.Options{
		SyntheticSamples: cfg.SyntheticSamples,
		Seed:             cfg.Seed,
		SyntheticIfEmpty: true,
	})
	bootstrapModelFunc(eng, ctx)

	// Build Wish SSH server
	addr := fmt.Sprintf("%s:%d", cfg.SSHBind, cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(func(ctx ssh.Context, key ssh.PublicKey) bool {
			fingerprint := gossh.FingerprintSHA256(key)
			user, err := sshUserRepo.ByFingerprint(context.Background(), fingerprint)
			if err != nil || user == nil {
				log.Printf("SSH auth denied: fingerprint=%s err=%v", fingerprint, err)
				return false
			}
			ctx.SetValue(sshUserKey, user)
			_ = sshUserRepo.TouchLogin(context.Background(), user.ID, time.Now().UTC())
			log.Printf("SSH auth accepted: user=%s fingerprint=%s", user.Username, fingerprint)
			return true
		}),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				user, _ := s.Context().Value(sshUserKey).(*domain.SSHUser)

				username := "unknown"
				if user != nil {
					username = user.Username
				}

				var stats tui.StatsProvider
				if db.Pool != nil {
					stats = predictionRepo
				}

				model := tui.NewAppModel(tui.Services{
					Reports:  eng,
					Stats:    stats,
					Username: username,
				})
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)

				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		log.Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			log.Printf("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("SSH server stopped: %v", err)
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("SSH server shutdown error: %v", err)
		}
	}

	log.Println("SSH server exited")
}
