// Command provision-admin creates an active admin account. Admins cannot
// register over HTTP, so this is the only way to bootstrap one.
//
//	provision-admin -email root@example.com -password s3cret! -name "Root Admin"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tripnetwork/identity-service/internal/core/service"
	"github.com/tripnetwork/identity-service/internal/infrastructure/config"
	"github.com/tripnetwork/identity-service/internal/infrastructure/db/postgres"
	"github.com/tripnetwork/identity-service/internal/infrastructure/security"
	"github.com/tripnetwork/identity-service/pkg/logger"
)

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password (at least 6 characters)")
	name := flag.String("name", "", "admin display name")
	flag.Parse()

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *email, *password, *name); err != nil {
		fmt.Fprintf(os.Stderr, "provision-admin: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, email, password, name string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Service: "provision-admin",
	})

	secret, err := cfg.SigningSecret(log)
	if err != nil {
		return err
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres.URL, postgres.PoolSettings{MaxConns: 1}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	accounts := service.NewAccountService(
		postgres.NewAccountRepository(pool),
		security.NewBcryptHasher(),
		service.NewTokenService(secret, cfg.JWTExpiresIn.Duration()),
		log,
	)

	admin, err := accounts.ProvisionAdmin(ctx, email, password, name)
	if err != nil {
		return err
	}

	log.Info().Int64("account_id", admin.ID).Str("email", admin.Email).Msg("admin provisioned")
	return nil
}
