// Package server contains the HTTP handlers for the Gamelogue API and page routes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "gamelogue/docs" // swagger docs
	"gamelogue/internal/bootstrap"
	"gamelogue/internal/config"
	"gamelogue/internal/middleware"
	"gamelogue/internal/models"
	"gamelogue/internal/repository"
	"gamelogue/internal/service"
	"gamelogue/internal/session"
	"gamelogue/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *session.Manager
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	authService    *service.AuthService
	userService    *service.UserService
	postService    *service.PostService
	uploadService  *service.UploadService
}

// NewServer initializes the runtime, connects the object store and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}

	var remote storage.Remote
	if cfg.RemoteStorageEnabled() {
		s3Store, err := storage.NewS3(context.Background(), cfg)
		if err != nil {
			middleware.Logger.Warn("Object storage unavailable, uploads will be stored locally",
				slog.String("error", err.Error()))
		} else {
			middleware.Logger.Info("Using object storage",
				slog.String("bucket", cfg.S3Bucket),
				slog.String("region", cfg.S3Region))
			remote = s3Store
		}
	}

	return NewServerWithDeps(cfg, db, redisClient, remote)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient and remote may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, remote storage.Remote) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	sessions := session.NewManager(cfg.JWTSecret)
	middleware.InitMiddleware(sessions, cfg.IsProduction())
	models.ExposeErrorDetails = !cfg.IsProduction()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("gamelogue-api"),
		sessions:       sessions,
		userRepo:       userRepo,
		postRepo:       postRepo,
	}
	s.authService = service.NewAuthService(userRepo, sessions)
	s.userService = service.NewUserService(userRepo)
	s.uploadService = service.NewUploadService(cfg, remote)
	s.postService = service.NewPostService(postRepo, s.uploadService)

	return s, nil
}

// rateLimitStore returns the Redis client as a Cmdable, or a nil interface without Redis.
func (s *Server) rateLimitStore() redis.Cmdable {
	if s.redis == nil {
		return nil
	}
	return s.redis
}

// NewApp builds the fiber app with the error handler and body limit for uploads.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := service.DefaultUploadMaxSizeMB
	if s.config.UploadMaxSizeMB > 0 {
		bodyLimit = s.config.UploadMaxSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName:      "Gamelogue API",
		BodyLimit:    (bodyLimit + 1) * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			middleware.Logger.ErrorContext(c.UserContext(), "request failed", slog.String("error", err.Error()))
			return models.RespondWithError(c, fe.Code, models.NewInternalError(err))
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Screenshots under /uploads are embedded by other origins.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	uploadDir := s.config.UploadDir
	if uploadDir == "" {
		uploadDir = "./public/uploads"
	}
	app.Static("/uploads", uploadDir, fiber.Static{
		MaxAge: 86400,
	})

	api := app.Group("/api")

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.rateLimitStore(), 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.rateLimitStore(), 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Get("/me", middleware.AuthRequired, s.Me)

	// Post routes. Specific paths come before /:id.
	posts := api.Group("/posts")
	posts.Get("/", middleware.OptionalAuth, s.GetMyPosts)
	posts.Get("/public", middleware.OptionalAuth, s.GetPublicPosts)
	posts.Get("/:id/comments", middleware.OptionalAuth, s.GetComments)
	posts.Post("/", middleware.AuthRequired, middleware.RateLimit(
		s.rateLimitStore(), 10, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", middleware.AuthRequired, s.ToggleLike)
	posts.Post("/:id/comments", middleware.AuthRequired, middleware.RateLimit(
		s.rateLimitStore(), 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id/comments/:createdAt", middleware.AuthRequired, s.DeleteComment)
	posts.Patch("/:id/visibility", middleware.AuthRequired, s.UpdateVisibility)
	posts.Delete("/:id", middleware.AuthRequired, s.DeletePost)

	// User routes
	users := api.Group("/users")
	users.Put("/me", middleware.AuthRequired, s.UpdateMyProfile)
	users.Get("/by-email/:email", middleware.AuthRequired, s.GetUserByEmail)
	users.Get("/:username", s.GetUserByUsername)

	// Page routes behind the session guard.
	pages := app.Group("", middleware.SessionGuard)
	pages.Get("/", s.RootPage)
	pages.Get("/auth", s.AuthPage)
	pages.Get("/public", s.PublicPage)
	pages.Get("/user/:id/novo-post", s.NewPostPage)
	pages.Get("/user/:id/profile", s.ProfilePage)
	pages.Get("/user/:id", s.UserPage)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs the feed cache and rate limits, so its absence degrades but does not fail readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
			}
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
