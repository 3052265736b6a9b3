// Package bootstrap wires the process-wide runtime: store, cache and the
// development super admin.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"agora/internal/cache"
	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and ensures the development
// super admin. A Redis failure is logged and returns a nil client: the API
// runs without rate limiting, revocation, caching and realtime events.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without it", slog.String("error", err.Error()))
		rdb = nil
	}

	if err := EnsureSuperAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap super admin: %w", err)
	}
	return db, rdb, nil
}

// EnsureSuperAdmin creates the initial super admin from INITIAL_ADMIN_* in
// development when none exists yet. It never runs in other environments.
func EnsureSuperAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.InitialAdminEmail))
	if email == "" || cfg.InitialAdminPassword == "" {
		return nil
	}
	username := strings.TrimSpace(cfg.InitialAdminUsername)
	if username == "" {
		username = "superadmin"
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("INITIAL_ADMIN_EMAIL: %w", err)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return fmt.Errorf("INITIAL_ADMIN_USERNAME: %w", err)
	}
	if err := validation.ValidatePassword(cfg.InitialAdminPassword); err != nil {
		return fmt.Errorf("INITIAL_ADMIN_PASSWORD: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created := false
	err = repository.NewStore(db).Transaction(ctx, func(tx *repository.Store) error {
		n, err := tx.Users.CountByRole(ctx, models.RoleSuperAdmin)
		if err != nil || n > 0 {
			return err
		}
		// an existing account with that email is promoted in place
		if existing, err := tx.Users.GetByEmail(ctx, email); err == nil {
			created = true
			return tx.Users.UpdateRole(ctx, existing.ID, models.RoleSuperAdmin)
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		created = true
		return tx.Users.Create(ctx, &models.User{
			Username: username,
			Email:    email,
			Password: string(hashed),
			Role:     models.RoleSuperAdmin,
		})
	})
	if err != nil {
		return err
	}

	if created {
		middleware.Logger.Info("Initial super admin ensured", slog.String("email", email))
	}
	return nil
}
