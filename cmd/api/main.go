// Package main is the entry point for the tag ledger API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/pkordes/tagledger/internal/config"
	"github.com/pkordes/tagledger/internal/handler"
	"github.com/pkordes/tagledger/internal/middleware"
	"github.com/pkordes/tagledger/internal/repo"
	"github.com/pkordes/tagledger/internal/service"
	"github.com/pkordes/tagledger/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// stores groups the repo views the services are built on.
type stores struct {
	tags    repo.TagRepo
	batches repo.BatchRepo
	audit   repo.AuditRepo
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// --- Store ------------------------------------------------------------
	var st stores
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory ledger; all data is lost on exit")
		mem := repo.NewMemoryStore()
		st = stores{tags: mem.Tags(), batches: mem.Batches(), audit: mem.Audit()}
	default:
		pool, err := connectDB(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.MigrateOnStart {
			db := stdlib.OpenDBFromPool(pool)
			applied, err := migrations.Up(ctx, db)
			db.Close()
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "count", applied)
		}
		st = stores{tags: repo.NewTagRepo(pool), batches: repo.NewBatchRepo(pool), audit: repo.NewAuditRepo(pool)}
	}

	// --- Services ---------------------------------------------------------
	srv := handler.NewServer(
		service.NewBatchIssuer(st.tags, st.batches, cfg.MaxBatchSize, logger),
		service.NewTagStateMachine(st.tags, cfg.MaxSweepSize, logger),
		service.NewPickupValidator(st.tags, logger),
		service.NewReconciliationEngine(st.tags, logger),
		service.NewAuditTrail(st.audit),
		logger,
	)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Actor → Logger →
	// Recoverer → CORS → MaxBodySize.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// Actor copies X-Actor-ID into the context so the logger can record it.
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewActorExtractor())
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srv.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: when ctx is cancelled by a signal, give in-flight
	// requests up to 15 seconds to complete before forcefully closing.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", httpSrv.Addr, "store", cfg.StoreDriver)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// connectDB opens the pool and retries the first ping with exponential
// backoff for up to cfg.DBConnectTimeout, so the server can start alongside
// a database that is still booting. Authentication and unknown-database
// errors stop the retry immediately.
func connectDB(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.DBConnectTimeout
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		err := pool.Ping(ctx)
		if err == nil {
			return nil
		}
		if !isTransientConnectError(err) {
			return backoff.Permanent(err)
		}
		logger.Warn("database not ready", "attempt", attempt, "error", err)
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info("database connection established", "attempts", attempt)
	return pool, nil
}

// isTransientConnectError reports whether a failed ping is worth retrying.
// Server-reported errors in class 28 (invalid authorization) and 3D (invalid
// catalog name) will not fix themselves; network failures and a server still
// starting up (57P03) might.
func isTransientConnectError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "28", "3D":
			return false
		}
	}
	return !errors.Is(err, context.Canceled)
}
