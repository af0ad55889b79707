// Package bootstrap runs one-time startup tasks.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jackson0tr/lerko-backend/internal/auth"
	"github.com/jackson0tr/lerko-backend/internal/config"
	"github.com/jackson0tr/lerko-backend/internal/domain"
	"github.com/jackson0tr/lerko-backend/internal/repository"
)

// EnsureAdmin seeds the admin account at startup when one is configured and
// missing. Without ADMIN_EMAIL/ADMIN_PASSWORD the step is skipped.
func EnsureAdmin(lc fx.Lifecycle, cfg *config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureAdmin(ctx, cfg, users, node, logger)
		},
	})
}

func ensureAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository, node *snowflake.Node, logger *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Info("admin bootstrap skipped, no credentials configured")
		return nil
	}

	if _, err := users.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("bootstrap lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap hash password: %w", err)
	}

	created, err := users.Create(ctx, domain.User{
		ID:           node.Generate().Int64(),
		Name:         "Admin",
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Verified:     true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap create admin: %w", err)
	}

	logger.Info("admin account seeded", zap.Int64("user_id", created.ID))
	return nil
}
