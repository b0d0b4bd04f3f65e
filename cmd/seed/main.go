package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/config"
	"github.com/spec-kit/portal-gateway/internal/domain"
	"github.com/spec-kit/portal-gateway/internal/observability"
	"github.com/spec-kit/portal-gateway/internal/persistence"
)

// Seeds a portal account so a fresh deployment has something to log in with.
// Existing accounts with the same email are updated in place.
func main() {
	email := flag.String("email", "", "account email (required)")
	name := flag.String("name", "Portal Admin", "display name")
	password := flag.String("password", "", "plaintext password (required)")
	role := flag.String("role", string(domain.RoleSystemAdmin), "role name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	roleName := domain.RoleName(*role)
	if !roleName.Valid() {
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	hash, err := auth.HashPassword(*password, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}

	const upsert = `
		INSERT INTO users (name, email, password_hash, role_name, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			password_hash = EXCLUDED.password_hash,
			role_name = EXCLUDED.role_name,
			active = TRUE,
			updated_at = NOW()`
	if _, err := pg.PoolHandle().Exec(ctx, upsert, *name, *email, hash, string(roleName)); err != nil {
		logger.Fatal("failed to seed account", zap.Error(err))
	}

	logger.Info("seeded account", zap.String("email", *email), zap.String("role", string(roleName)))
}
