// Package bootstrap wires the process's runtime dependencies and seeds the
// initial administrator.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bookblog/internal/cache"
	"bookblog/internal/config"
	"bookblog/internal/database"
	"bookblog/internal/middleware"
	"bookblog/internal/models"
	"bookblog/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InitRuntime prepares the database store and Redis. The configured admin is
// seeded each time the store connects. With DB_CONNECT_EAGER the first
// connection is made here and its failure is returned.
func InitRuntime(ctx context.Context, cfg *config.Config) (*database.Store, *redis.Client, error) {
	store := database.NewStore(cfg)
	store.OnConnect(seedAdminHook(cfg))

	if cfg.DBConnectEager {
		if _, err := store.EnsureConnected(ctx); err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)

	return store, cache.GetClient(), nil
}

// ErrSchemaMissing is returned on connect when the tables do not exist yet.
// Production never auto-migrates, so the schema must be created with
// `admin migrate` before the server takes traffic.
var ErrSchemaMissing = errors.New("database schema missing: run `admin migrate` before starting the server")

func seedAdminHook(cfg *config.Config) func(ctx context.Context, db *gorm.DB) error {
	return func(ctx context.Context, db *gorm.DB) error {
		if !db.WithContext(ctx).Migrator().HasTable(&models.User{}) {
			middleware.Logger.ErrorContext(ctx, "users table not found; the admin cannot be seeded",
				slog.Bool("production", cfg.IsProduction()),
				slog.String("fix", "admin migrate"),
			)
			return ErrSchemaMissing
		}
		_, err := EnsureAdmin(ctx, repository.NewUserRepository(db), cfg.AdminEmail, cfg.AdminPassword)
		return err
	}
}

// EnsureAdmin creates the admin account for email unless it already exists.
// It reports whether a user was created. The password is stored as a bcrypt
// hash and never logged.
func EnsureAdmin(ctx context.Context, users repository.UserRepository, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, fmt.Errorf("admin email and password must be set")
	}

	existing, err := users.GetAdminByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("look up admin: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		IsAdmin:      true,
	}
	if err := users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "Admin user created", slog.String("email", email))
	return true, nil
}
