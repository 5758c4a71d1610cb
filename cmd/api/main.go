package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tripnetwork/identity-service/internal/api"
	"github.com/tripnetwork/identity-service/internal/api/handler"
	"github.com/tripnetwork/identity-service/internal/core/ports"
	"github.com/tripnetwork/identity-service/internal/core/service"
	"github.com/tripnetwork/identity-service/internal/infrastructure/config"
	"github.com/tripnetwork/identity-service/internal/infrastructure/db/postgres"
	redisdb "github.com/tripnetwork/identity-service/internal/infrastructure/db/redis"
	"github.com/tripnetwork/identity-service/internal/infrastructure/queue"
	"github.com/tripnetwork/identity-service/internal/infrastructure/security"
	"github.com/tripnetwork/identity-service/pkg/logger"
)

const serviceName = "identity-service"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	secret, err := cfg.SigningSecret(log)
	if err != nil {
		return err
	}

	// --- Storage ---
	pool, err := postgres.Connect(ctx, cfg.Postgres.URL, postgres.PoolSettings{
		MaxConns: cfg.Postgres.MaxConns,
		MinConns: cfg.Postgres.MinConns,
	}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info().Msg("database schema applied")
	}

	repo := postgres.NewAccountRepository(pool)
	checks := map[string]handler.Check{"postgres": repo.Ping}

	var limiter ports.AttemptLimiter
	if cfg.Redis.Addr != "" {
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB}, log)
		if err != nil {
			return err
		}
		defer client.Close()
		limiter = redisdb.NewLoginLimiter(client, "")
		checks["redis"] = redisdb.Checker(client)
	} else {
		log.Warn().Msg("REDIS_ADDR is not set: login throttling disabled")
	}

	// The hash pool outlives the signal context so in-flight requests can
	// finish during graceful shutdown.
	poolCtx, stopPool := context.WithCancel(context.WithoutCancel(ctx))
	defer stopPool()
	hashes := queue.NewHashPool(cfg.HashWorkers, security.NewBcryptHasher(), log)
	hashes.Start(poolCtx)

	// --- Services ---
	tokens := service.NewTokenService(secret, cfg.JWTExpiresIn.Duration())
	accounts := service.NewAccountService(repo, hashes, tokens, log)
	approvals := service.NewApprovalService(repo, log)

	e := api.NewRouter(api.Dependencies{
		Accounts:    accounts,
		Approvals:   approvals,
		Tokens:      tokens,
		Limiter:     limiter,
		LoginLimit:  cfg.Login.RateLimit,
		LoginWindow: cfg.Login.RateWindow,
		Checks:      checks,
		Log:         log,
		Development: cfg.IsDevelopment(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("starting identity API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv, stopPool, cfg.ShutdownTimeout, log)
	})

	return g.Wait()
}

func shutdown(srv *http.Server, stopPool context.CancelFunc, timeout time.Duration, log zerolog.Logger) error {
	log.Info().Dur("timeout", timeout).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	defer stopPool()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
