// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "devfolio/docs" // swagger docs
	"devfolio/internal/auth"
	"devfolio/internal/bootstrap"
	"devfolio/internal/cache"
	"devfolio/internal/config"
	"devfolio/internal/database"
	"devfolio/internal/imagehost"
	"devfolio/internal/middleware"
	"devfolio/internal/models"
	"devfolio/internal/repository"
	"devfolio/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	appName        = "Devfolio API"
	serviceName    = "devfolio-api"
	requestTimeout = 5 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *auth.TokenService
	cookieOpts     auth.CookieOptions
	imageHost      imagehost.Host
	userRepo       repository.UserRepository
	authService    *service.AuthService
	userService    *service.UserService
	pictureService *service.PictureService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{
		DemoProfiles: cfg.DevSeedProfiles,
	})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Host)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, host imagehost.Host) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}
	if host == nil {
		return nil, errors.New("image host is required")
	}
	if cache.GetClient() != redisClient {
		cache.SetClient(redisClient)
	}

	s := newServer(cfg, repository.NewUserRepository(db), host)
	s.db = db
	s.redis = redisClient
	return s, nil
}

func newServer(cfg *config.Config, userRepo repository.UserRepository, host imagehost.Host) *Server {
	tokens := auth.NewTokenService(cfg.JWTSecret)
	return &Server{
		config:         cfg,
		promMiddleware: middleware.InitMetrics(serviceName),
		tokens:         tokens,
		cookieOpts:     auth.CookieOptions{Secure: cfg.CookieSecure},
		imageHost:      host,
		userRepo:       userRepo,
		authService:    service.NewAuthService(userRepo, tokens),
		userService:    service.NewUserService(userRepo),
		pictureService: service.NewPictureService(userRepo, host, cfg.ImageMaxUploadSizeMB),
	}
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      appName,
		BodyLimit:    int(s.pictureService.MaxUploadSizeBytes()) + 1024*1024,
		ErrorHandler: s.errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler handles errors that escaped the handlers.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			return models.RespondWithError(c, models.NewValidationError(
				fmt.Sprintf("File too large (max %dMB)", s.pictureService.MaxUploadSizeBytes()/(1024*1024))))
		}
		if fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
		}
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Propagates request and trace ids into the user context for the logger
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded pictures are embedded by the frontend from another origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS must run before the limiter so rejected requests still carry CORS headers.
	// Fiber refuses credentialed CORS for a wildcard origin.
	origins := strings.TrimSpace(s.config.AllowedOrigins)
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: origins != "" && origins != "*",
		MaxAge:           86400,
	}))

	if s.config.RateLimitMax > 0 {
		window := time.Duration(s.config.RateLimitWindowMinutes) * time.Minute
		limit := middleware.RateLimit(s.redis, s.config.RateLimitMax, window, "global")
		app.Use(func(c *fiber.Ctx) error {
			// preflight is answered by CORS
			if c.Method() == fiber.MethodOptions {
				return c.Next()
			}
			return limit(c)
		})
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Devfolio Metrics Dashboard",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.imageHost.(*imagehost.LocalHost); ok {
		app.Static(imagehost.LocalRoute, local.Dir(), fiber.Static{
			MaxAge: 3600,
		})
	}

	gate := middleware.AuthRequired(s.tokens)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", s.Register)
	authGroup.Post("/login", s.Login)
	authGroup.Get("/profile", gate, s.GetAuthProfile)

	users := app.Group("/user", gate)
	users.Get("/profile", s.GetProfile)
	users.Put("/profile", s.UpdateProfile)
	users.Post("/upload-profile-picture", s.UploadProfilePicture)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so a server
// running without it is still ready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
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
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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
	app := s.app
	if app == nil {
		app = s.NewApp()
	}
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
