// Package server contains the HTTP handlers and routing for the blog.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bookblog/internal/config"
	"bookblog/internal/database"
	"bookblog/internal/middleware"
	"bookblog/internal/models"
	"bookblog/internal/repository"
	"bookblog/internal/service"
	"bookblog/internal/session"
	"bookblog/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *database.Store
	redis          *redis.Client
	sessions       *session.Manager
	engine         *views.Engine
	promMiddleware *fiberprometheus.FiberPrometheus
	app            *fiber.App
}

// services groups the use cases bound to the live connection.
type services struct {
	posts   *service.PostService
	reviews *service.ReviewService
	auth    *service.AuthService
}

// NewServer creates a server over an existing store. redisClient may be nil, in
// which case sessions are kept in memory.
func NewServer(cfg *config.Config, store *database.Store, redisClient *redis.Client) (*Server, error) {
	engine, err := views.New()
	if err != nil {
		return nil, err
	}

	var storage fiber.Storage
	if redisClient != nil {
		storage = session.NewRedisStorage(redisClient)
	}

	s := &Server{
		config: cfg,
		store:  store,
		redis:  redisClient,
		sessions: session.NewManager(session.Config{
			TTL:     cfg.SessionTTL,
			Secure:  cfg.SessionCookieSecure,
			Storage: storage,
		}),
		engine:         engine,
		promMiddleware: middleware.InitMetrics("bookblog"),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "bookblog",
		Views:        engine,
		ErrorHandler: s.errorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)

	return s, nil
}

// App returns the configured Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Session cookies are encrypted with a key derived from SESSION_SECRET.
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: session.CookieKey(s.config.SessionSecret),
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	store := middleware.StoreRequired(s.store)
	admin := middleware.AdminRequired(s.sessions)

	// Public routes
	app.Get("/", store, s.ListPosts)
	app.Get("/post/:id", store, s.GetPost)
	app.Post("/post/:id/review", store, s.SubmitReview)

	// Auth routes
	app.Get("/admin/login", s.LoginPage)
	app.Post("/admin/login", store, s.Login)
	app.Post("/admin/logout", s.Logout)

	// Admin routes
	app.Get("/admin", admin, store, s.Dashboard)
	app.Post("/admin/post", admin, store, s.CreatePost)
	app.Post("/admin/review/:id/:action", admin, store, s.ModerateReview)
}

// Start listens on addr until the app is shut down.
func (s *Server) Start(addr string) error {
	middleware.Logger.Info("Server starting", slog.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	middleware.Logger.Info("Shutting down server")
	return s.app.ShutdownWithContext(ctx)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks. Redis is optional, so only
// a configured but unreachable Redis marks the app unhealthy.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	adminStatus := "unknown"
	if db, err := s.store.EnsureConnected(ctx); err != nil {
		dbStatus = "unhealthy"
	} else if err := s.store.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	} else {
		adminStatus = adminCheck(ctx, repository.NewUserRepository(db))
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
			"admin":    adminStatus,
		},
		"time": time.Now(),
	})
}

// adminCheck reports whether anyone can sign in to the admin. A missing admin
// does not fail readiness: the public pages still work, and the operator
// fixes it with ADMIN_EMAIL/ADMIN_PASSWORD or `admin seed-admin`.
func adminCheck(ctx context.Context, users repository.UserRepository) string {
	n, err := users.CountAdmins(ctx)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "admin readiness check failed", slog.String("error", err.Error()))
		return "unknown"
	}
	if n == 0 {
		return "missing"
	}
	return "present"
}

// services binds repositories and services to the live connection.
func (s *Server) services(c *fiber.Ctx) (*services, error) {
	db, err := s.store.EnsureConnected(c.UserContext())
	if err != nil {
		return nil, models.NewUnavailableError(err)
	}

	postRepo := repository.NewPostRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	return &services{
		posts:   service.NewPostService(postRepo, reviewRepo),
		reviews: service.NewReviewService(postRepo, reviewRepo),
		auth:    service.NewAuthService(repository.NewUserRepository(db)),
	}, nil
}

// errorHandler renders every failed request as the error page.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error", slog.String("error", err.Error()))
	}

	message := errorMessage(status, err)
	c.Status(status)
	if renderErr := c.Render("error", fiber.Map{
		"Title":   message,
		"Status":  status,
		"Message": message,
	}); renderErr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

func errorMessage(status int, err error) string {
	switch status {
	case fiber.StatusNotFound:
		return "Not found"
	case fiber.StatusInternalServerError:
		return "Something went wrong"
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return utils.StatusMessage(status)
}
