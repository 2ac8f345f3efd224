package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maynagashev/redactvault/models"
	"github.com/maynagashev/redactvault/server/internal/handlers"
	"github.com/maynagashev/redactvault/server/internal/metrics"
	appmiddleware "github.com/maynagashev/redactvault/server/internal/middleware"
	"github.com/maynagashev/redactvault/server/internal/repository"
	"github.com/maynagashev/redactvault/server/internal/services"
	"github.com/maynagashev/redactvault/server/internal/storage"
	"github.com/maynagashev/redactvault/server/internal/upstream"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	startupTimeout         = 30 * time.Second
)

// Replaced in tests.
//
//nolint:gochecknoglobals // test seams
var (
	newPostgresDB    = repository.NewPostgresDB
	migrate          = repository.Migrate
	newObjectStorage = func(ctx context.Context, cfg storage.MinioConfig) (storage.ObjectStorage, error) {
		return storage.NewMinioStorage(ctx, cfg)
	}
)

type dependencies struct {
	db           *sqlx.DB
	registry     *prometheus.Registry
	authHandler  *handlers.AuthHandler
	vaultHandler *handlers.VaultHandler
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Printf("Configuration error: %v", err)
		os.Exit(1)
	}
	if err = run(cfg); err != nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	log.Println("Starting redaction vault server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	deps, err := setupDependencies(startCtx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			log.Printf("Failed to close database: %v", closeErr)
		}
	}()

	r := setupRouter(deps.authHandler, deps.vaultHandler, []byte(cfg.JWTSecret), deps.registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSEnabled() {
			log.Printf("Listening for HTTPS on port %s (cert %s)", cfg.Port, cfg.CertFile)
			errCh <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
			return
		}
		log.Printf("Listening for HTTP on port %s", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancelShutdown()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

// setupDependencies connects to PostgreSQL and MinIO and wires services and handlers.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	db, err := newPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close database after startup error: %v", closeErr)
		}
	}

	if err = migrate(ctx, db); err != nil {
		closeDB()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	objects, err := newObjectStorage(ctx, storage.MinioConfig{
		Endpoint:        cfg.MinioEndpoint,
		AccessKeyID:     cfg.MinioUser,
		SecretAccessKey: cfg.MinioPassword,
		UseSSL:          cfg.MinioUseSSL,
		BucketName:      cfg.MinioBucket,
	})
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("object storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	vaultMetrics := metrics.NewVaultMetrics(registry)

	userRepo := repository.NewPostgresUserRepository(db)
	entryRepo := repository.NewPostgresVaultEntryRepository(db)

	authService := services.NewAuthService(userRepo, []byte(cfg.JWTSecret), cfg.TokenTTL, cfg.DefaultRole)
	vaultService := services.NewVaultService(entryRepo, upstream.NewRestorer(objects, cfg.RestorePrefix), vaultMetrics)

	return &dependencies{
		db:           db,
		registry:     registry,
		authHandler:  handlers.NewAuthHandler(authService),
		vaultHandler: handlers.NewVaultHandler(vaultService),
	}, nil
}

// setupRouter builds the chi router.
func setupRouter(
	authHandler *handlers.AuthHandler,
	vaultHandler *handlers.VaultHandler,
	jwtSecret []byte,
	registry *prometheus.Registry,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Authenticator(jwtSecret))

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/refresh", authHandler.Refresh)

			r.Route("/vault", func(r chi.Router) {
				read := appmiddleware.RequirePermission(models.PermVaultRead)
				r.With(read).Get("/entries", vaultHandler.List)
				r.With(read).Get("/entries/{id}", vaultHandler.Get)
				r.With(read).Get("/stats", vaultHandler.Stats)
				r.With(appmiddleware.RequirePermission(models.PermVaultCreate)).
					Post("/entries", vaultHandler.Create)
				r.With(appmiddleware.RequirePermission(models.PermVaultArchive)).
					Post("/entries/{id}/archive", vaultHandler.Archive)
				r.With(appmiddleware.RequirePermission(models.PermVaultFeedback)).
					Post("/entries/{id}/feedback", vaultHandler.Feedback)
				r.With(appmiddleware.RequirePermission(models.PermVaultRevert)).
					Post("/entries/{id}/revert", vaultHandler.Revert)
			})
		})
	})
	return r
}
