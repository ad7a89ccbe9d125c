// Package database handles database connections and migrations.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookblog/internal/config"
	"bookblog/internal/middleware"
	"bookblog/internal/models"

	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const defaultConnectTimeout = 5 * time.Second

// GormLogger integrates GORM with slog
type GormLogger struct {
	logger *slog.Logger
	Config logger.Config
}

// NewGormLogger returns a GORM logger writing warnings and errors to l.
func NewGormLogger(l *slog.Logger) *GormLogger {
	return &GormLogger{
		logger: l,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}
}

// LogMode sets the logging level and returns a new interface instance.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newlogger := *l
	newlogger.Config.LogLevel = level
	return &newlogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Config.LogLevel >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs trace-level information including SQL queries and execution time.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Config.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.Config.LogLevel >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.logger.ErrorContext(ctx, "GORM query error",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > l.Config.SlowThreshold && l.Config.SlowThreshold != 0 && l.Config.LogLevel >= logger.Warn:
		l.logger.WarnContext(ctx, "GORM slow query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.Config.LogLevel >= logger.Info:
		l.logger.InfoContext(ctx, "GORM query",
			slog.String("sql", sql),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

// Models lists every persisted model, in migration order.
func Models() []any {
	return []any{&models.User{}, &models.Post{}, &models.Review{}}
}

// Migrate creates or updates the users, posts and reviews tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.Open(cfg.DBPath), nil
	case "postgres", "":
		return postgres.Open(cfg.PostgresDSN()), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Connect opens a database connection, verifies it within ctx and, outside
// production, migrates the schema.
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:               NewGormLogger(middleware.Logger),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access sql.DB: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// SQLite serialises writers; one connection also keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "Database connected successfully", slog.String("driver", d.Name()))

	if !cfg.IsProduction() {
		if err := Migrate(db); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		middleware.Logger.InfoContext(ctx, "Database migration completed")
	}

	return db, nil
}

// Store owns the process's single database connection. The connection is
// established on first use and shared afterwards; a failed attempt is not
// remembered, so the next caller dials again.
type Store struct {
	cfg     *config.Config
	dial    func(ctx context.Context, cfg *config.Config) (*gorm.DB, error)
	timeout time.Duration

	mu        sync.RWMutex
	db        *gorm.DB
	group     singleflight.Group
	onConnect []func(ctx context.Context, db *gorm.DB) error
}

// NewStore returns an unconnected Store for cfg.
func NewStore(cfg *config.Config) *Store {
	timeout := cfg.DBConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return &Store{cfg: cfg, dial: Connect, timeout: timeout}
}

// NewStoreWithDB wraps an already-open connection.
func NewStoreWithDB(db *gorm.DB) *Store {
	return &Store{db: db, timeout: defaultConnectTimeout}
}

// OnConnect registers fn to run after every successful dial, before the
// connection is shared. A failing hook fails the dial.
func (s *Store) OnConnect(fn func(ctx context.Context, db *gorm.DB) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = append(s.onConnect, fn)
}

// DB returns the live connection, or nil if none has been established yet.
func (s *Store) DB() *gorm.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// EnsureConnected returns the live connection, dialing it if necessary.
// Concurrent first callers share a single dial.
func (s *Store) EnsureConnected(ctx context.Context) (*gorm.DB, error) {
	if db := s.DB(); db != nil {
		return db, nil
	}
	if s.dial == nil {
		return nil, errors.New("database store has no dialer")
	}

	ch := s.group.DoChan("connect", func() (any, error) {
		if db := s.DB(); db != nil {
			return db, nil
		}
		// Detached from any single request so one cancelled caller does not fail the others.
		dialCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		db, err := s.dial(dialCtx, s.cfg)
		if err != nil {
			middleware.Logger.Error("database connection failed", slog.String("error", err.Error()))
			return nil, err
		}

		s.mu.RLock()
		hooks := s.onConnect
		s.mu.RUnlock()
		for _, fn := range hooks {
			if err := fn(dialCtx, db); err != nil {
				middleware.Logger.Error("database connect hook failed", slog.String("error", err.Error()))
				if sqlDB, dbErr := db.DB(); dbErr == nil {
					_ = sqlDB.Close()
				}
				return nil, err
			}
		}

		s.mu.Lock()
		s.db = db
		s.mu.Unlock()
		return db, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*gorm.DB), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ping checks the live connection. It fails if no connection exists.
func (s *Store) Ping(ctx context.Context) error {
	db := s.DB()
	if db == nil {
		return errors.New("database not connected")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
