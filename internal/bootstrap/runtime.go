// Package bootstrap prepares the database, Redis and development accounts
// before the server or a command-line tool starts.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gamelogue/internal/cache"
	"gamelogue/internal/config"
	"gamelogue/internal/database"
	"gamelogue/internal/middleware"
	"gamelogue/internal/models"
	"gamelogue/internal/repository"
	"gamelogue/internal/service"
	"gamelogue/internal/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and ensures the development admin.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureDevAdmin(context.Background(), cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return db, r, nil
}

// EnsureDevAdmin creates the configured development account when DEV_BOOTSTRAP_ADMIN
// is on and APP_ENV is development. An existing account only gets its password reset.
func EnsureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	username := strings.TrimSpace(cfg.DevAdminUsername)
	if username == "" {
		username = "gamelogue_admin"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@gamelogue.local"
	}
	password := cfg.DevAdminPassword
	if password == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), session.NewManager(cfg.JWTSecret))

	_, err := auth.Register(ctx, service.RegisterInput{
		Email:    email,
		Password: password,
		Username: username,
	})
	switch {
	case err == nil:
	case models.HasCode(err, models.CodeConflict):
		if err := auth.SetPassword(ctx, email, password); err != nil {
			return err
		}
	default:
		return err
	}

	if err := auth.VerifyEmail(ctx, email); err != nil {
		return err
	}

	middleware.Logger.Info("development admin ensured", slog.String("email", email))
	return nil
}
