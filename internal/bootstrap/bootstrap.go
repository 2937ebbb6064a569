package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/config"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/domain"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/password"
	"github.com/ZLoganZ/SocialNetwork-Server/internal/repository"
)

const usersSchemaSQL = `CREATE TABLE IF NOT EXISTS users (
	id             BIGINT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	password_hash  TEXT NOT NULL DEFAULT '',
	session_token  TEXT NOT NULL DEFAULT '',
	avatar_url     TEXT NOT NULL DEFAULT '',
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	role           TEXT NOT NULL DEFAULT 'user',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the users table on startup when it is missing.
func EnsureSchema(lc fx.Lifecycle, pool *pgxpool.Pool, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := pool.Exec(ctx, usersSchemaSQL); err != nil {
				return fmt.Errorf("ensure users schema: %w", err)
			}
			logger.Info("database ready")
			return nil
		},
	})
}

// EnsureAdmin creates a default admin account for dev/e2e when
// ADMIN_EMAIL and ADMIN_PASSWORD are configured and the account does
// not exist yet.
func EnsureAdmin(lc fx.Lifecycle, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdmin(ctx, cfg, users, node, logger)
		},
	})
}

func ensureAdmin(ctx context.Context, cfg config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || strings.TrimSpace(cfg.AdminPassword) == "" {
		return nil
	}

	if _, err := users.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !domain.IsKind(err, domain.KindNotFound) {
		return fmt.Errorf("bootstrap lookup admin: %w", err)
	}

	hashed, err := password.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap hash password: %w", err)
	}

	admin := domain.User{
		ID:            node.Generate().Int64(),
		Email:         email,
		FirstName:     "Admin",
		PasswordHash:  hashed,
		EmailVerified: true,
		Role:          domain.RoleAdmin,
	}
	if _, err := users.Insert(ctx, admin); err != nil {
		if domain.IsKind(err, domain.KindConflict) {
			return nil
		}
		return fmt.Errorf("bootstrap create admin: %w", err)
	}

	logger.Info("admin account ready", zap.String("email", email))
	return nil
}
